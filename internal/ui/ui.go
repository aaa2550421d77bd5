package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/yoockh/applytrack/internal/models"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type UI struct {
	Out          io.Writer
	Err          io.Writer
	Output       *termenv.Output
	ErrOutput    *termenv.Output
	ColorEnabled bool
}

func New(out io.Writer, err io.Writer, mode ColorMode, disableColor bool) *UI {
	output := termenv.NewOutput(out)
	errOutput := termenv.NewOutput(err)

	return &UI{
		Out:          out,
		Err:          err,
		Output:       output,
		ErrOutput:    errOutput,
		ColorEnabled: shouldEnableColor(output, mode, disableColor),
	}
}

func shouldEnableColor(output *termenv.Output, mode ColorMode, disableColor bool) bool {
	if disableColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return output.ColorProfile() != termenv.Ascii
	}
}

func (u *UI) print(w io.Writer, out *termenv.Output, color, format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if u.ColorEnabled {
		msg = out.String(msg).Foreground(out.Color(color)).String()
	}
	fmt.Fprintln(w, msg)
}

func (u *UI) Errorf(format string, args ...any) { u.print(u.Err, u.ErrOutput, "1", format, args...) }

func (u *UI) Warnf(format string, args ...any) { u.print(u.Err, u.ErrOutput, "3", format, args...) }

func (u *UI) Infof(format string, args ...any) { u.print(u.Out, u.Output, "4", format, args...) }

func (u *UI) Successf(format string, args ...any) { u.print(u.Out, u.Output, "2", format, args...) }

// Status colors an application status for table cells.
func (u *UI) Status(s models.ApplicationStatus) string {
	if !u.ColorEnabled {
		return string(s)
	}
	color := ""
	switch s {
	case models.StatusApplied:
		color = "4"
	case models.StatusInterviewing:
		color = "5"
	case models.StatusOffered:
		color = "2"
	case models.StatusRejected, models.StatusWithdrawn:
		color = "1"
	case models.StatusDuplicate:
		color = "8"
	default:
		return string(s)
	}
	return u.Output.String(string(s)).Foreground(u.Output.Color(color)).String()
}

func NormalizeColorMode(value string) ColorMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ColorAlways):
		return ColorAlways
	case string(ColorNever):
		return ColorNever
	default:
		return ColorAuto
	}
}
