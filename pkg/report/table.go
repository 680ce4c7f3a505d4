package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Align is a column alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Format selects the output of Table.Write.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts md, markdown and html.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported format %q (want md or html)", s)
}

// Table is a titled report table.
type Table struct {
	Title   string
	Caption string
	Headers []string
	Align   []Align
	Rows    [][]string
}

// Markdown writes the table as a GFM table under a heading.
func (t *Table) Markdown(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "## %s\n\n", t.Title)
	if t.Caption != "" {
		fmt.Fprintf(&buf, "%s\n\n", escapeCell(t.Caption))
	}

	buf.WriteString(row(t.Headers))
	sep := make([]string, len(t.Headers))
	for i := range t.Headers {
		sep[i] = "---"
		if i < len(t.Align) && t.Align[i] == AlignRight {
			sep[i] = "---:"
		}
	}
	buf.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, r := range t.Rows {
		buf.WriteString(row(r))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// HTML renders the markdown form with goldmark's GFM extension.
func (t *Table) HTML(w io.Writer) error {
	var md bytes.Buffer
	if err := t.Markdown(&md); err != nil {
		return err
	}
	renderer := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := renderer.Convert(md.Bytes(), w); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}

// Write renders t in format f.
func (t *Table) Write(w io.Writer, f Format) error {
	if f == FormatHTML {
		return t.HTML(w)
	}
	return t.Markdown(w)
}

func row(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escapeCell(c)
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatMinutes(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
