package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`
	API     string `name:"api" help:"API base URL." env:"APPLYTRACK_API_URL" default:"http://localhost:8080"`
	Token   string `help:"Bearer token for the API." env:"APPLYTRACK_TOKEN"`

	VersionFlag kong.VersionFlag `name:"version" help:"Print version."`

	Version      VersionCmd `cmd:"" help:"Print version."`
	Jobs         JobsCmd    `cmd:"" help:"Manage job applications."`
	Stats        StatsCmd   `cmd:"" help:"Show application counts by status."`
	Parse        ParseCmd   `cmd:"" help:"Extract fields from a job posting with AI."`
	Resumes      DocsCmd    `cmd:"" help:"Manage resumes."`
	CoverLetters DocsCmd    `cmd:"" name:"cover-letters" help:"Manage cover letters."`
	Export       ExportCmd  `cmd:"" help:"Write a full JSON backup."`
	Import       ImportCmd  `cmd:"" help:"Import a JSON backup."`
	Clear        ClearCmd   `cmd:"" help:"Delete all data."`
	Cache        CacheCmd   `cmd:"" help:"Inspect the parse cache."`
}

func NewCLI() *CLI {
	return &CLI{
		Resumes:      newDocsCmd(familyResumes),
		CoverLetters: newDocsCmd(familyCoverLetters),
	}
}
