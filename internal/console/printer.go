package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	pkghttp "github.com/futig/rag-console/pkg/http"
	"github.com/tidwall/pretty"
)

// Printer renders command output; it is also the client's Notifier.
type Printer struct {
	out    io.Writer
	errOut io.Writer

	success *color.Color
	failure *color.Color
	warning *color.Color
	label   *color.Color
}

func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{
		out:     out,
		errOut:  errOut,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow),
		label:   color.New(color.FgCyan, color.Bold),
	}
}

// Success prints a mutation acknowledgment.
func (p *Printer) Success(message string) {
	p.success.Fprintln(p.out, "✔ "+message)
}

// Error prints err in red. API errors show only their user-facing message.
func (p *Printer) Error(err error) {
	var apiErr *pkghttp.ApiError
	if !errors.As(err, &apiErr) {
		p.failure.Fprintln(p.errOut, "✘ "+err.Error())
		return
	}

	switch apiErr.Kind {
	case pkghttp.KindUnavailable:
		p.warning.Fprintln(p.errOut, "✘ "+apiErr.Message)
	default:
		p.failure.Fprintln(p.errOut, "✘ "+apiErr.Message)
	}
}

// Label prints a highlighted heading.
func (p *Printer) Label(format string, args ...any) {
	p.label.Fprintf(p.out, format+"\n", args...)
}

// Line prints plain text.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Write streams raw text without a trailing newline.
func (p *Printer) Write(s string) {
	fmt.Fprint(p.out, s)
}

// JSON pretty-prints v, coloured when the output supports it.
func (p *Printer) JSON(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	out := pretty.Pretty(raw)
	if !color.NoColor {
		out = pretty.Color(out, nil)
	}
	_, err = p.out.Write(out)
	return err
}
