// Package printer writes styled, human-oriented command output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/markreview/internal/core/styles"
)

type ctxKey struct{}

// Printer writes status lines to out and failures to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, errOut: errOut}
}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one writing to stdout and stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout, os.Stderr)
}

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Section(title string) {
	_, _ = fmt.Fprintln(p.out, styles.CommandHeaderStyle.Render(title))
}

func (p *Printer) Infof(format string, args ...any) {
	p.line(p.out, styles.MutedTextStyle.Render(styles.IconInfo), format, args...)
}

func (p *Printer) Successf(format string, args ...any) {
	p.line(p.out, styles.SuccessTextStyle.Render(styles.IconSuccess), format, args...)
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(p.errOut, styles.WarningTextStyle.Render(styles.IconWarning), format, args...)
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(p.errOut, styles.ErrorTextStyle.Render(styles.IconError), format, args...)
}

// Success prints a success line with a muted detail under it.
func (p *Printer) Success(title, detail string) {
	p.Successf("%s", title)
	if detail != "" {
		_, _ = fmt.Fprintln(p.out, "  "+styles.MutedTextStyle.Render(detail))
	}
}

func (p *Printer) line(w io.Writer, icon, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", icon, fmt.Sprintf(format, args...))
}
