package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/shibukawa/spinetree/batch"
	"github.com/shibukawa/spinetree/catalog"
	"github.com/shibukawa/spinetree/exporter"
)

// BatchCmd represents the batch command
type BatchCmd struct {
	Inputs      []string `arg:"" help:"Input files or directories"`
	OutputDir   string   `short:"o" name:"output-dir" help:"Output directory (default: batch.output_dir)"`
	Parallel    int      `short:"p" help:"Number of parallel workers (default: batch.parallel, 0 = CPU count)"`
	Extension   string   `help:"Extension of exported files (default: batch.extension)"`
	DryRun      bool     `name:"dry-run" help:"Parse and export without writing files"`
	NoCatalog   bool     `name:"no-catalog" help:"Do not record results in the catalog"`
	ExportFlags `embed:""`
}

// Run executes the batch command
func (cmd *BatchCmd) Run(ctx *Context) error {
	s, err := ctx.session()
	if err != nil {
		return err
	}

	opts, err := cmd.options(s)
	if err != nil {
		return err
	}

	inputs, err := batch.Collect(cmd.Inputs, s.config.Batch.Extension, ".krn")
	if err != nil {
		return err
	}

	bg := context.Background()

	var store *catalog.Store
	if !cmd.NoCatalog && !cmd.DryRun {
		store, err = catalog.Open(bg, s.config.Catalog.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	run := batch.Options{
		Parallel:  firstNonZero(cmd.Parallel, s.config.Batch.Parallel),
		OutputDir: firstNonEmpty(cmd.OutputDir, s.config.Batch.OutputDir),
		Extension: firstNonEmpty(cmd.Extension, s.config.Batch.Extension),
		DryRun:    cmd.DryRun,
		Parser:    s.parser,
		Export:    opts,
	}

	if ctx.Verbose {
		color.New(color.FgBlue).Fprintf(ctx.Stderr, "Converting %d document(s) into %s\n", len(inputs), run.OutputDir)
	}

	runner := batch.NewRunner(exporter.NewExporter(s.hierarchy, s.logger), store, s.logger)
	results, err := runner.Run(bg, inputs, run)
	if err != nil && !errors.Is(err, batch.ErrItemsFailed) {
		return err
	}

	if !ctx.Quiet {
		ok := color.New(color.FgGreen)
		ng := color.New(color.FgRed)
		for _, res := range results {
			switch {
			case res.Err != nil:
				ng.Fprintf(ctx.Stdout, "✗ %s: %v\n", res.Source, res.Err)
			case cmd.DryRun:
				ok.Fprintf(ctx.Stdout, "✓ %s (%d voices, %d measures)\n", res.Source, res.Voices, res.Measures)
			default:
				ok.Fprintf(ctx.Stdout, "✓ %s -> %s\n", res.Source, res.Output)
			}
		}
	}

	return err
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// CatalogCmd groups the catalog subcommands
type CatalogCmd struct {
	List CatalogListCmd `cmd:"" help:"List recorded batch results"`
}

// CatalogListCmd represents the catalog list command
type CatalogListCmd struct {
	Source string `help:"Only entries for this source file"`
	Status string `help:"Only entries with this status"`
	Limit  int    `short:"n" help:"Maximum number of entries (0 = all)" default:"0"`
	JSON   bool   `name:"json" help:"Print entries as JSON"`
}

// Run executes the catalog list command
func (cmd *CatalogListCmd) Run(ctx *Context) error {
	s, err := ctx.session()
	if err != nil {
		return err
	}

	bg := context.Background()

	store, err := catalog.Open(bg, s.config.Catalog.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(bg, catalog.Filter{
		Source: cmd.Source,
		Status: catalog.Status(cmd.Status),
		Limit:  cmd.Limit,
	})
	if err != nil {
		return err
	}

	if cmd.JSON {
		return writeJSON(ctx, entries)
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.ID.String()[:8],
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			string(e.Status),
			e.Source,
			e.Variant,
			fmt.Sprint(e.Voices),
			fmt.Sprint(e.Measures),
			fmt.Sprint(e.CellErrors),
		}
	}

	fmt.Fprintln(ctx.Stdout, renderTable(
		[]string{"ID", "Created", "Status", "Source", "Variant", "Voices", "Measures", "Errors"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))

	return nil
}
