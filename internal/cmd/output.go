package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yoockh/applytrack/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02")
}

func writeJobs(ctx *Context, jobs []models.JobView) error {
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, jobs)
	}

	if ctx.PlainText {
		for _, j := range jobs {
			line := []string{fmt.Sprintf("%d", j.SequentialID), j.ID, string(j.ApplicationStatus), j.Title, j.Company, day(j.UpdatedAt)}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	if len(jobs) == 0 {
		ctx.UI.Infof("No jobs found.")
		return nil
	}
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tid\tstatus\ttitle\tcompany\tupdated")
	for _, j := range jobs {
		title := j.Title
		if j.IsArchived {
			title += " (archived)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			j.SequentialID, shortID(j.ID), ctx.UI.Status(j.ApplicationStatus), title, j.Company, day(j.UpdatedAt))
	}
	return tw.Flush()
}

func writeJobDetail(ctx *Context, j *models.JobDetail) error {
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, j)
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", j.ID)
	fmt.Fprintf(tw, "number\t#%d\n", j.SequentialID)
	fmt.Fprintf(tw, "title\t%s\n", j.Title)
	fmt.Fprintf(tw, "company\t%s\n", j.Company)
	if j.Location != "" {
		fmt.Fprintf(tw, "location\t%s\n", j.Location)
	}
	fmt.Fprintf(tw, "status\t%s\n", ctx.UI.Status(j.ApplicationStatus))
	if j.AIParseStatus != "" {
		fmt.Fprintf(tw, "ai parse\t%s\n", j.AIParseStatus)
	}
	if len(j.Keywords) > 0 {
		fmt.Fprintf(tw, "keywords\t%s\n", strings.Join(j.Keywords, ", "))
	}
	fmt.Fprintf(tw, "resumes\t%d\n", len(j.LinkedResumes))
	fmt.Fprintf(tw, "cover letters\t%d\n", len(j.LinkedCoverLetters))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(j.StatusHistory) > 0 {
		fmt.Fprintln(ctx.Out)
		tw = tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "date\tstatus\tnotes")
		for _, h := range j.StatusHistory {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", day(h.Date), h.Status, h.Notes)
		}
		return tw.Flush()
	}
	return nil
}

func writeDocuments(ctx *Context, docs []models.DocumentView) error {
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, docs)
	}

	if ctx.PlainText {
		for _, d := range docs {
			line := []string{d.ID, d.Name, d.FileName, d.TargetCompany, fmt.Sprintf("%d", len(d.LinkedJobIDs))}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	if len(docs) == 0 {
		ctx.UI.Infof("No documents found.")
		return nil
	}
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tname\tfile\ttarget\tjobs")
	for _, d := range docs {
		target := strings.TrimSpace(d.TargetRole + " @ " + d.TargetCompany)
		if d.TargetRole == "" && d.TargetCompany == "" {
			target = ""
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", shortID(d.ID), d.Name, d.FileName, target, len(d.LinkedJobIDs))
	}
	return tw.Flush()
}

// readInput reads a file, or ctx.In (stdin) for "-".
func readInput(ctx *Context, path string) ([]byte, error) {
	if path == "-" {
		in := ctx.In
		if in == nil {
			in = os.Stdin
		}
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}
