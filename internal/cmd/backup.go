package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/applytrack/internal/backup"
	"github.com/yoockh/applytrack/internal/services"
)

type ExportCmd struct {
	Out string `short:"o" help:"Output file ('-' for stdout)." default:"-"`
}

func (c *ExportCmd) Run(ctx *Context) error {
	b, err := ctx.API.Export(ctx.context())
	if err != nil {
		return err
	}

	if c.Out == "-" {
		return backup.Encode(ctx.Out, b)
	}
	var buf bytes.Buffer
	if err := backup.Encode(&buf, b); err != nil {
		return err
	}
	if err := os.WriteFile(c.Out, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}
	ctx.UI.Successf("Exported %d jobs, %d resumes, %d cover letters to %s",
		len(b.JobDescriptions), len(b.Resumes), len(b.CoverLetters), c.Out)
	return nil
}

type ImportCmd struct {
	In string `short:"i" required:"" help:"Backup file to import ('-' for stdin)."`
}

func (c *ImportCmd) Run(ctx *Context) error {
	raw, err := readInput(ctx, c.In)
	if err != nil {
		return fmt.Errorf("read --in: %w", err)
	}
	b, err := backup.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}
	ctx.Logger.WithFields(logrus.Fields{"version": b.Version, "jobs": len(b.JobDescriptions)}).Debug("importing backup")

	res, err := ctx.API.Import(ctx.context(), b)
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, res)
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "category\timported\terrors")
	for _, row := range []struct {
		name string
		c    services.Counts
	}{
		{"job descriptions", res.JobDescriptions},
		{"resumes", res.Resumes},
		{"cover letters", res.CoverLetters},
		{"status history", res.StatusHistory},
		{"activity logs", res.ActivityLogs},
		{"resume links", res.ResumeLinks},
		{"cover letter links", res.CoverLetterLinks},
		{"duplicates", res.DuplicateRelations},
		{"scraper cache", res.ScraperCache},
	} {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", row.name, row.c.Imported, row.c.Errors)
	}
	return tw.Flush()
}

type ClearCmd struct {
	Yes bool `help:"Confirm deleting every job, document and cache entry."`
}

func (c *ClearCmd) Run(ctx *Context) error {
	if !c.Yes {
		return errors.New("refusing to delete all data without --yes")
	}
	res, err := ctx.API.ClearAll(ctx.context(), services.ClearAllConfirmation)
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, res)
	}
	ctx.UI.Successf("Deleted %d jobs, %d resumes, %d cover letters, %d cache entries",
		res.JobDescriptions, res.Resumes, res.CoverLetters, res.ScraperCache)
	return nil
}

type CacheCmd struct {
	List    CacheListCmd    `cmd:"" default:"withargs" help:"List cached parse results."`
	Cleanup CacheCleanupCmd `cmd:"" help:"Delete expired entries."`
}

type CacheListCmd struct{}

func (c *CacheListCmd) Run(ctx *Context) error {
	rows, err := ctx.API.CacheList(ctx.context())
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, rows)
	}
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "hash\texpires\tpreview")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", shortID(r.InputHash), day(r.ExpiresAt), r.InputPreview)
	}
	return tw.Flush()
}

type CacheCleanupCmd struct{}

func (c *CacheCleanupCmd) Run(ctx *Context) error {
	n, err := ctx.API.CacheCleanup(ctx.context())
	if err != nil {
		return err
	}
	ctx.UI.Successf("Removed %d expired entries", n)
	return nil
}
