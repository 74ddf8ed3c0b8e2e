package inspect

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/goccy/go-yaml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ErrUnknownFormat is returned for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
var Formats = []string{"json", "yaml", "xml", "markdown", "html", "csv"}

// Render serializes a report.
func Render(res Report, format string, opt Options) ([]byte, error) {
	switch format {
	case "json":
		if opt.Pretty {
			return json.MarshalIndent(res, "", "  ")
		}

		return json.Marshal(res)
	case "yaml":
		return yaml.Marshal(res)
	case "xml":
		return XML(res)
	case "markdown":
		return []byte(Markdown(res)), nil
	case "html":
		return HTML(res)
	case "csv":
		return VoicesCSV(res, true)
	default:
		return nil, fmt.Errorf("%w: '%s': must be one of %s", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// XML renders the report as an XML document.
func XML(res Report) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("report")
	root.CreateAttr("id", res.ID)
	if res.Source != "" {
		root.CreateAttr("source", res.Source)
	}
	root.CreateAttr("measures", strconv.Itoa(res.Measures))
	root.CreateAttr("header-line", strconv.Itoa(res.HeaderLine))

	voices := root.CreateElement("voices")
	for _, v := range res.Voices {
		e := voices.CreateElement("voice")
		e.CreateAttr("id", strconv.Itoa(v.ID))
		e.CreateAttr("type", v.Type)
		e.CreateAttr("line", strconv.Itoa(v.Line))
		e.CreateAttr("notes", strconv.Itoa(v.Notes))
		e.CreateAttr("rests", strconv.Itoa(v.Rests))
		e.CreateAttr("duration", v.Duration)

		for _, c := range slices.Sorted(maps.Keys(v.Tokens)) {
			te := e.CreateElement("tokens")
			te.CreateAttr("category", c)
			te.CreateAttr("count", strconv.Itoa(v.Tokens[c]))
		}
	}

	if len(res.Metacomments) > 0 {
		refs := root.CreateElement("metacomments")
		for _, m := range res.Metacomments {
			e := refs.CreateElement("metacomment")
			if m.Key != "" {
				e.CreateAttr("key", m.Key)
			}
			e.CreateAttr("line", strconv.Itoa(m.Line))
			e.SetText(m.Value)
		}
	}

	if len(res.Pages) > 0 {
		pages := root.CreateElement("pages")
		for _, p := range res.Pages {
			e := pages.CreateElement("page")
			e.CreateAttr("label", p.Page)
			e.CreateAttr("x", strconv.Itoa(p.Box.X))
			e.CreateAttr("y", strconv.Itoa(p.Box.Y))
			e.CreateAttr("w", strconv.Itoa(p.Box.W))
			e.CreateAttr("h", strconv.Itoa(p.Box.H))
			e.CreateAttr("from-measure", strconv.Itoa(p.FromMeasure))
			e.CreateAttr("to-measure", strconv.Itoa(p.ToMeasure))
		}
	}

	if len(res.Errors) > 0 {
		errs := root.CreateElement("errors")
		for _, ce := range res.Errors {
			e := errs.CreateElement("error")
			e.CreateAttr("line", strconv.Itoa(ce.Line))
			e.CreateAttr("column", strconv.Itoa(ce.Column))
			e.CreateAttr("raw", ce.Raw)
			e.SetText(ce.Message)
		}
	}

	doc.Indent(2)

	return doc.WriteToBytes()
}

// Markdown renders the report as a GitHub flavored Markdown document.
func Markdown(res Report) string {
	var b strings.Builder

	title := res.Source
	if title == "" {
		title = res.ID
	}

	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- measures: %d\n- header line: %d\n\n", res.Measures, res.HeaderLine)

	b.WriteString("## Voices\n\n")
	b.WriteString("| id | type | line | notes | rests | duration |\n")
	b.WriteString("|---:|------|-----:|------:|------:|---------:|\n")
	for _, v := range res.Voices {
		fmt.Fprintf(&b, "| %d | %s | %d | %d | %d | %s |\n", v.ID, escapeCell(v.Type), v.Line, v.Notes, v.Rests, v.Duration)
	}

	if len(res.Metacomments) > 0 {
		b.WriteString("\n## Metacomments\n\n")
		for _, m := range res.Metacomments {
			if m.Key != "" {
				fmt.Fprintf(&b, "- **%s**: %s\n", m.Key, m.Value)
			} else {
				fmt.Fprintf(&b, "- %s\n", m.Value)
			}
		}
	}

	if len(res.Pages) > 0 {
		b.WriteString("\n## Pages\n\n")
		b.WriteString("| page | x | y | w | h | measures |\n")
		b.WriteString("|------|--:|--:|--:|--:|----------|\n")
		for _, p := range res.Pages {
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d-%d |\n", escapeCell(p.Page), p.Box.X, p.Box.Y, p.Box.W, p.Box.H, p.FromMeasure, p.ToMeasure)
		}
	}

	if len(res.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "- line %d, column %d: `%s` %s\n", e.Line, e.Column, e.Raw, e.Message)
		}
	}

	for _, note := range res.Notes {
		fmt.Fprintf(&b, "\n> %s\n", note)
	}

	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML renders the Markdown report to HTML.
func HTML(res Report) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(res)), &buf); err != nil {
		return nil, fmt.Errorf("failed to render html: %w", err)
	}

	return buf.Bytes(), nil
}

// VoicesCSV renders only the voice list to CSV with a header row.
func VoicesCSV(res Report, withHeader bool) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if withHeader {
		_ = w.Write([]string{"id", "type", "line", "notes", "rests", "duration"})
	}

	for _, v := range res.Voices {
		_ = w.Write([]string{strconv.Itoa(v.ID), v.Type, strconv.Itoa(v.Line), strconv.Itoa(v.Notes), strconv.Itoa(v.Rests), v.Duration})
	}

	w.Flush()

	return buf.Bytes(), w.Error()
}
