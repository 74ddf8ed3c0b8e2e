// Package cli implements the spinetree command-line interface.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/shibukawa/spinetree"
)

// CLI represents the command-line interface
type CLI struct {
	Config       string          `help:"Configuration file path" default:"spinetree.yaml"`
	Verbose      bool            `help:"Enable verbose output" short:"v"`
	Quiet        bool            `help:"Suppress output" short:"q"`
	Export       ExportCmd       `cmd:"" help:"Export a measure range of a document"`
	Inspect      InspectCmd      `cmd:"" help:"Summarize voices, measures and errors of a document"`
	Tokens       TokensCmd       `cmd:"" help:"List the tokens of a document"`
	Metacomments MetacommentsCmd `cmd:"" help:"Print the global comments of a document"`
	Batch        BatchCmd        `cmd:"" help:"Convert many documents in parallel"`
	Catalog      CatalogCmd      `cmd:"" help:"Query the batch catalog"`
	Version      VersionCmd      `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	_, err := fmt.Fprintf(ctx.Stdout, "spinetree %s\n", spinetree.Version)
	return err
}

func writeJSON(ctx *Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	_, err = fmt.Fprintln(ctx.Stdout, string(data))

	return err
}
