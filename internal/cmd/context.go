package cmd

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/applytrack/internal/client"
	"github.com/yoockh/applytrack/internal/ui"
)

type Context struct {
	Ctx        context.Context
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	UI         *ui.UI
	API        *client.Client
	Logger     *logrus.Logger
	Verbose    bool
	JSONOutput bool
	PlainText  bool
	Version    string
}

func (c *Context) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}
