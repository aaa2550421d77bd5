package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yoockh/applytrack/internal/client"
	"github.com/yoockh/applytrack/internal/services"
)

type JobsCmd struct {
	List      JobsListCmd      `cmd:"" default:"withargs" help:"List jobs."`
	Get       JobsGetCmd       `cmd:"" help:"Show one job with its status history."`
	Create    JobsCreateCmd    `cmd:"" help:"Add a job posting."`
	Status    JobsStatusCmd    `cmd:"" help:"Change the application status."`
	Archive   JobsArchiveCmd   `cmd:"" help:"Archive a job."`
	Delete    JobsDeleteCmd    `cmd:"" help:"Delete a job and its history."`
	Duplicate JobsDuplicateCmd `cmd:"" help:"Mark a job as a duplicate of another."`
	Parse     JobsParseCmd     `cmd:"" help:"Run AI extraction on a stored job."`
}

type JobsListCmd struct {
	Status   string `help:"Filter by status."`
	Company  string `help:"Filter by company (substring)."`
	Search   string `short:"s" help:"Search title, company, role, location and posting text."`
	All      bool   `help:"Include archived jobs."`
	Archived bool   `help:"Only archived jobs."`
}

func (c *JobsListCmd) Run(ctx *Context) error {
	o := client.JobListOptions{Status: c.Status, Company: c.Company, Search: c.Search}
	switch {
	case c.Archived:
		v := true
		o.Archived = &v
	case !c.All:
		v := false
		o.Archived = &v
	}

	jobs, err := ctx.API.ListJobs(ctx.context(), o)
	if err != nil {
		return err
	}
	return writeJobs(ctx, jobs)
}

type JobsGetCmd struct {
	ID string `arg:"" help:"Job id."`
}

func (c *JobsGetCmd) Run(ctx *Context) error {
	j, err := ctx.API.GetJob(ctx.context(), c.ID)
	if err != nil {
		return err
	}
	return writeJobDetail(ctx, j)
}

type JobsCreateCmd struct {
	Title    string `required:"" help:"Job title."`
	Company  string `required:"" help:"Company name."`
	Role     string `help:"Role or team."`
	Location string `help:"Location."`
	Text     string `help:"Posting text."`
	File     string `short:"f" help:"Read posting text from a file ('-' for stdin)."`
	Status   string `help:"Initial status (default pending)."`
	Parse    bool   `help:"Run AI extraction after creating."`
}

func (c *JobsCreateCmd) Run(ctx *Context) error {
	raw := c.Text
	if c.File != "" {
		b, err := readInput(ctx, c.File)
		if err != nil {
			return fmt.Errorf("read --file: %w", err)
		}
		raw = string(b)
	}
	if strings.TrimSpace(raw) == "" {
		return errors.New("posting text is required: use --text or --file")
	}

	job, err := ctx.API.CreateJob(ctx.context(), services.JobInput{
		Title:             c.Title,
		Company:           c.Company,
		Role:              c.Role,
		Location:          c.Location,
		RawText:           raw,
		ApplicationStatus: c.Status,
	})
	if err != nil {
		return err
	}

	if ctx.JSONOutput && !c.Parse {
		return writeJSON(ctx.Out, job)
	}
	ctx.UI.Successf("Created job #%d %s (%s)", job.SequentialID, job.Title, job.ID)

	if c.Parse {
		return (&JobsParseCmd{ID: job.ID}).Run(ctx)
	}
	return nil
}

type JobsStatusCmd struct {
	ID     string `arg:"" help:"Job id."`
	Status string `arg:"" help:"New status." enum:"pending,applied,interviewing,offered,rejected,withdrawn"`
}

func (c *JobsStatusCmd) Run(ctx *Context) error {
	job, err := ctx.API.UpdateJob(ctx.context(), c.ID, services.JobPatch{ApplicationStatus: &c.Status})
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, job)
	}
	ctx.UI.Successf("#%d %s is now %s", job.SequentialID, job.Title, job.ApplicationStatus)
	return nil
}

type JobsArchiveCmd struct {
	ID string `arg:"" help:"Job id."`
}

func (c *JobsArchiveCmd) Run(ctx *Context) error {
	job, err := ctx.API.ArchiveJob(ctx.context(), c.ID)
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, job)
	}
	ctx.UI.Successf("Archived #%d %s", job.SequentialID, job.Title)
	return nil
}

type JobsDeleteCmd struct {
	ID string `arg:"" help:"Job id."`
}

func (c *JobsDeleteCmd) Run(ctx *Context) error {
	if err := ctx.API.DeleteJob(ctx.context(), c.ID); err != nil {
		return err
	}
	ctx.UI.Successf("Deleted %s", c.ID)
	return nil
}

type JobsDuplicateCmd struct {
	ID string `arg:"" help:"Job id to mark."`
	Of string `arg:"" help:"Id of the job it duplicates."`
}

func (c *JobsDuplicateCmd) Run(ctx *Context) error {
	job, err := ctx.API.MarkDuplicate(ctx.context(), c.ID, c.Of)
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, job)
	}
	ctx.UI.Successf("#%d marked as duplicate of %s", job.SequentialID, c.Of)
	return nil
}

type JobsParseCmd struct {
	ID string `arg:"" help:"Job id."`
}

func (c *JobsParseCmd) Run(ctx *Context) error {
	res, err := ctx.API.ParseJob(ctx.context(), c.ID)
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, res)
	}

	switch {
	case res.Queued:
		ctx.UI.Infof("Parse queued for %s", c.ID)
	case res.Result != nil && res.Result.Success:
		ctx.UI.Successf("Parsed %s%s", c.ID, cachedSuffix(res.Result))
	case res.Result != nil && res.Result.Error != nil:
		ctx.UI.Warnf("Parse failed (%s): %s", res.Result.Error.Kind, res.Result.Error.Message)
	}
	return nil
}

func cachedSuffix(r *services.ParseResult) string {
	if r.Cached {
		return " (cached)"
	}
	return ""
}

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *Context) error {
	s, err := ctx.API.Stats(ctx.context())
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, s)
	}

	rows := []struct {
		label string
		n     int64
	}{
		{"total", s.Total},
		{"pending", s.Pending},
		{"applied", s.Applied},
		{"interviewing", s.Interviewing},
		{"offered", s.Offered},
		{"rejected", s.Rejected},
		{"archived", s.Archived},
	}
	for _, r := range rows {
		if ctx.PlainText {
			fmt.Fprintf(ctx.Out, "%s\t%d\n", r.label, r.n)
			continue
		}
		fmt.Fprintf(ctx.Out, "%-13s %d\n", r.label, r.n)
	}
	return nil
}
