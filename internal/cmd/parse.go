package cmd

import (
	"errors"
	"fmt"
)

type ParseCmd struct {
	File    string `short:"f" required:"" help:"Posting text file ('-' for stdin)."`
	Context string `help:"Extra hints for the model, e.g. the target role."`
}

func (c *ParseCmd) Run(ctx *Context) error {
	b, err := readInput(ctx, c.File)
	if err != nil {
		return fmt.Errorf("read posting: %w", err)
	}

	res, err := ctx.API.ParseText(ctx.context(), string(b), c.Context)
	if err != nil {
		return err
	}
	if !res.Success {
		if ctx.JSONOutput {
			_ = writeJSON(ctx.Out, res)
		}
		if res.Error != nil {
			return fmt.Errorf("parse failed (%s): %s", res.Error.Kind, res.Error.Message)
		}
		return errors.New("parse failed")
	}

	if !ctx.JSONOutput && res.Cached {
		ctx.UI.Infof("served from cache")
	}
	if ctx.JSONOutput {
		return writeJSON(ctx.Out, res)
	}
	return writeJSON(ctx.Out, res.Data)
}
