package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// printer renders command results as aligned text or as JSON.
type printer struct {
	w    io.Writer
	json bool

	label *color.Color
	good  *color.Color
	bad   *color.Color
	faint *color.Color
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	p := &printer{
		w:     w,
		json:  asJSON,
		label: color.New(color.FgCyan),
		good:  color.New(color.FgGreen, color.Bold),
		bad:   color.New(color.FgRed, color.Bold),
		faint: color.New(color.Faint),
	}
	if asJSON || !isTerminal(w) {
		for _, c := range []*color.Color{p.label, p.good, p.bad, p.faint} {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// field is one labelled line of a detail view.
type field struct {
	label string
	value string
}

// result prints v as JSON, or the fields as a detail view.
func (p *printer) result(v interface{}, fields []field) error {
	if p.json {
		return p.encode(v)
	}
	width := 0
	for _, f := range fields {
		if len(f.label) > width {
			width = len(f.label)
		}
	}
	for _, f := range fields {
		pad := strings.Repeat(" ", width-len(f.label))
		fmt.Fprintf(p.w, "%s%s  %s\n", p.label.Sprint(f.label+":"), pad, f.value)
	}
	return nil
}

// table prints v as JSON, or rows under headers.
func (p *printer) table(v interface{}, headers []string, rows [][]string) error {
	if p.json {
		return p.encode(v)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func (p *printer) encode(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// notice prints a one-line status message in table mode only.
func (p *printer) notice(ok bool, format string, args ...interface{}) {
	if p.json {
		return
	}
	c := p.good
	if !ok {
		c = p.bad
	}
	fmt.Fprintln(p.w, c.Sprintf(format, args...))
}

// hint prints a de-emphasized line in table mode only.
func (p *printer) hint(format string, args ...interface{}) {
	if p.json {
		return
	}
	fmt.Fprintln(p.w, p.faint.Sprintf(format, args...))
}
