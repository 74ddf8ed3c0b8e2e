package cli

import (
	"strings"

	"github.com/shibukawa/spinetree/inspect"
)

// InspectCmd represents the inspect command
type InspectCmd struct {
	Input  string `arg:"" optional:"" help:"Input document (default: stdin)"`
	Format string `short:"f" help:"Output format: json, yaml, xml, markdown, html or csv" default:"json"`
	Output string `short:"o" help:"Output file (default: stdout)"`
	Strict bool   `help:"Fail when any cell was rejected"`
	Pretty bool   `help:"Indent JSON output" default:"true" negatable:""`
}

// Run executes the inspect command
func (cmd *InspectCmd) Run(ctx *Context) error {
	s, err := ctx.session()
	if err != nil {
		return err
	}

	doc, err := s.read(ctx, cmd.Input)
	if err != nil {
		return err
	}

	opt := inspect.Options{Strict: cmd.Strict, Pretty: cmd.Pretty}

	report, err := inspect.Inspect(doc, opt)
	if err != nil {
		return err
	}

	data, err := inspect.Render(report, strings.ToLower(cmd.Format), opt)
	if err != nil {
		return err
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	return ctx.write(cmd.Output, data)
}
