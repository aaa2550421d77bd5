package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yoockh/applytrack/internal/client"
)

type family string

const (
	familyResumes      family = "resumes"
	familyCoverLetters family = "cover-letters"
)

func (ctx *Context) documents(f family) *client.Documents {
	if f == familyCoverLetters {
		return ctx.API.CoverLetters()
	}
	return ctx.API.Resumes()
}

// DocsCmd serves both document families; the family is fixed by NewCLI.
type DocsCmd struct {
	List   DocsListCmd   `cmd:"" default:"withargs" help:"List documents."`
	Upload DocsUploadCmd `cmd:"" help:"Upload a PDF, DOCX or text file."`
	Delete DocsDeleteCmd `cmd:"" help:"Delete a document."`
	Link   DocsLinkCmd   `cmd:"" help:"Link a document to a job."`
	Unlink DocsUnlinkCmd `cmd:"" help:"Remove a document-job link."`
	Jobs   DocsJobsCmd   `cmd:"" help:"List jobs a document is linked to."`
}

func newDocsCmd(f family) DocsCmd {
	return DocsCmd{
		List:   DocsListCmd{family: f},
		Upload: DocsUploadCmd{family: f},
		Delete: DocsDeleteCmd{family: f},
		Link:   DocsLinkCmd{family: f},
		Unlink: DocsUnlinkCmd{family: f},
		Jobs:   DocsJobsCmd{family: f},
	}
}

type DocsListCmd struct {
	family family
	Search string `short:"s" help:"Search name, target company and role."`
}

func (c *DocsListCmd) Run(ctx *Context) error {
	docs, err := ctx.documents(c.family).List(ctx.context(), c.Search)
	if err != nil {
		return err
	}
	return writeDocuments(ctx, docs)
}

type DocsUploadCmd struct {
	family        family
	File          string `arg:"" help:"File to upload (max 10MB)."`
	Name          string `help:"Display name; defaults to the file name."`
	TargetCompany string `help:"Company this document targets."`
	TargetRole    string `help:"Role this document targets."`
}

func (c *DocsUploadCmd) Run(ctx *Context) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := ctx.documents(c.family).Upload(ctx.context(), filepath.Base(c.File), f, client.UploadFields{
		Name:          c.Name,
		TargetCompany: c.TargetCompany,
		TargetRole:    c.TargetRole,
	})
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, doc)
	}
	ctx.UI.Successf("Uploaded %s (%s, %d bytes)", doc.Name, doc.ID, doc.FileSize)
	return nil
}

type DocsDeleteCmd struct {
	family family
	ID     string `arg:"" help:"Document id."`
}

func (c *DocsDeleteCmd) Run(ctx *Context) error {
	if err := ctx.documents(c.family).Delete(ctx.context(), c.ID); err != nil {
		return err
	}
	ctx.UI.Successf("Deleted %s", c.ID)
	return nil
}

type DocsLinkCmd struct {
	family family
	ID     string `arg:"" help:"Document id."`
	JobID  string `arg:"" name:"job-id" help:"Job id."`
}

func (c *DocsLinkCmd) Run(ctx *Context) error {
	if _, err := ctx.documents(c.family).Link(ctx.context(), c.ID, c.JobID); err != nil {
		if client.IsAlreadyExists(err) {
			ctx.UI.Warnf("Already linked")
			return nil
		}
		return err
	}
	ctx.UI.Successf("Linked %s to job %s", c.ID, c.JobID)
	return nil
}

type DocsUnlinkCmd struct {
	family family
	ID     string `arg:"" help:"Document id."`
	JobID  string `arg:"" name:"job-id" help:"Job id."`
}

func (c *DocsUnlinkCmd) Run(ctx *Context) error {
	if err := ctx.documents(c.family).Unlink(ctx.context(), c.ID, c.JobID); err != nil {
		return err
	}
	ctx.UI.Successf("Unlinked %s from job %s", c.ID, c.JobID)
	return nil
}

type DocsJobsCmd struct {
	family family
	ID     string `arg:"" help:"Document id."`
}

func (c *DocsJobsCmd) Run(ctx *Context) error {
	jobs, err := ctx.documents(c.family).Jobs(ctx.context(), c.ID)
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, jobs)
	}
	for _, j := range jobs {
		fmt.Fprintf(ctx.Out, "#%d\t%s\t%s @ %s\n", j.SequentialID, j.ApplicationStatus, j.Title, j.Company)
	}
	return nil
}
