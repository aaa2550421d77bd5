package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/applytrack/internal/client"
	"github.com/yoockh/applytrack/internal/cmd"
	"github.com/yoockh/applytrack/internal/ui"
)

var (
	version = "dev"
	commit  = ""
)

func main() {
	_ = godotenv.Load()

	cli := cmd.NewCLI()
	applyEnvDefaults(cli)
	versionString := version
	if commit != "" {
		versionString = fmt.Sprintf("%s (%s)", version, commit)
	}

	parser, err := kong.New(cli,
		kong.Name("applytrack"),
		kong.Description("Track job applications from the terminal."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": versionString},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fallbackUI := ui.New(os.Stdout, os.Stderr, ui.NormalizeColorMode(os.Getenv("APPLYTRACK_COLOR")), false)
		fallbackUI.Errorf("%v", err)
		os.Exit(1)
	}

	userInterface := ui.New(os.Stdout, os.Stderr, ui.NormalizeColorMode(cli.Color), cli.JSON || cli.Plain)

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if cli.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx := &cmd.Context{
		Ctx:        ctx,
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		UI:         userInterface,
		API:        client.New(cli.API, client.WithToken(cli.Token), client.WithLogger(log, cli.Verbose)),
		Logger:     log,
		Verbose:    cli.Verbose,
		JSONOutput: cli.JSON,
		PlainText:  cli.Plain,
		Version:    versionString,
	}

	if err := kctx.Run(runCtx); err != nil {
		userInterface.Errorf("%v", err)
		os.Exit(1)
	}
}

func applyEnvDefaults(cli *cmd.CLI) {
	if envBool("APPLYTRACK_JSON") {
		cli.JSON = true
	}
	if envBool("APPLYTRACK_VERBOSE") {
		cli.Verbose = true
	}
	if value := os.Getenv("APPLYTRACK_COLOR"); value != "" {
		cli.Color = value
	}
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
