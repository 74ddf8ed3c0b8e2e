package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shibukawa/spinetree"
	"github.com/shibukawa/spinetree/document"
	"github.com/shibukawa/spinetree/tree"
)

// ErrUnknownListFormat is returned for an unsupported --format value.
var ErrUnknownListFormat = errors.New("unknown list format")

type tokenRow struct {
	Line     int    `json:"line"`
	Measure  int    `json:"measure"`
	Category string `json:"category"`
	Encoding string `json:"encoding"`
	Export   string `json:"export"`
}

// TokensCmd represents the tokens command
type TokensCmd struct {
	Input   string   `arg:"" optional:"" help:"Input document (default: stdin)"`
	Include []string `help:"Keep only tokens of these categories"`
	Exclude []string `help:"Drop tokens of these categories"`
	Where   string   `help:"CEL predicate over category, encoding, export, voice, stage, line, measure, hidden"`
	Unique  bool     `short:"u" help:"List every canonical encoding once"`
	Format  string   `short:"f" help:"Output format: table, tsv or json" default:"table" enum:"table,tsv,json"`
}

// Run executes the tokens command
func (cmd *TokensCmd) Run(ctx *Context) error {
	s, err := ctx.session()
	if err != nil {
		return err
	}

	selector, err := s.hierarchy.Selector(spinetree.Categories(cmd.Include), spinetree.Categories(cmd.Exclude))
	if err != nil {
		return err
	}

	doc, err := s.read(ctx, cmd.Input)
	if err != nil {
		return err
	}

	var nodes []*tree.Node
	if cmd.Where != "" {
		w, err := document.CompileWhere(cmd.Where, s.hierarchy)
		if err != nil {
			return err
		}
		nodes, err = doc.Select(w)
		if err != nil {
			return err
		}
	} else {
		doc.Walk(func(n *tree.Node) bool {
			if n.Token != nil {
				nodes = append(nodes, n)
			}
			return true
		})
	}

	t := doc.Tree()
	seen := make(map[string]bool)
	rows := make([]tokenRow, 0, len(nodes))
	for _, n := range nodes {
		if !selector.Match(n.Token.Category()) {
			continue
		}
		if cmd.Unique {
			if seen[n.Token.Export()] {
				continue
			}
			seen[n.Token.Export()] = true
		}
		rows = append(rows, tokenRow{
			Line:     t.Line(n.Stage),
			Measure:  doc.MeasureOf(n.Stage),
			Category: string(n.Token.Category()),
			Encoding: n.Token.Encoding(),
			Export:   n.Token.Export(),
		})
	}

	return writeTokenRows(ctx, rows, cmd.Format)
}

func writeTokenRows(ctx *Context, rows []tokenRow, format string) error {
	switch format {
	case "json":
		return writeJSON(ctx, rows)
	case "tsv":
		for _, r := range rows {
			fmt.Fprintf(ctx.Stdout, "%d\t%d\t%s\t%s\t%s\n", r.Line, r.Measure, r.Category, r.Encoding, r.Export)
		}
		return nil
	case "table", "":
		cells := make([][]string, len(rows))
		for i, r := range rows {
			cells[i] = []string{strconv.Itoa(r.Line), strconv.Itoa(r.Measure), r.Category, r.Encoding, r.Export}
		}
		fmt.Fprintln(ctx.Stdout, renderTable(
			[]string{"Line", "Measure", "Category", "Encoding", "Export"},
			cells,
			[]columnAlignment{alignRight, alignRight},
		))
		return nil
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownListFormat, format)
	}
}

// MetacommentsCmd represents the metacomments command
type MetacommentsCmd struct {
	Input string `arg:"" optional:"" help:"Input document (default: stdin)"`
	Key   string `short:"k" help:"Keep only reference records with this key, e.g. COM"`
	Strip bool   `short:"s" help:"Print only the value of reference records"`
}

// Run executes the metacomments command
func (cmd *MetacommentsCmd) Run(ctx *Context) error {
	s, err := ctx.session()
	if err != nil {
		return err
	}

	doc, err := s.read(ctx, cmd.Input)
	if err != nil {
		return err
	}

	values := doc.Metacomments(cmd.Key, cmd.Strip)
	if len(values) == 0 {
		return nil
	}

	_, err = fmt.Fprintln(ctx.Stdout, strings.Join(values, "\n"))
	return err
}
