package cli

import (
	"github.com/fatih/color"

	"github.com/shibukawa/spinetree"
	"github.com/shibukawa/spinetree/document"
	"github.com/shibukawa/spinetree/exporter"
	"github.com/shibukawa/spinetree/token"
)

// ExportFlags are the export settings shared by export and batch. Unset
// flags fall back to the export section of the configuration.
type ExportFlags struct {
	From      int      `help:"First measure to export (1-based, 0 = from the beginning)" default:"0"`
	To        int      `help:"Last measure to export (inclusive, 0 = to the end)" default:"0"`
	Variant   string   `help:"Output encoding: raw, kern, ekern, bkern or bekern"`
	VoiceType []string `name:"voice-type" help:"Keep only voices of this type, e.g. '**kern'"`
	VoiceID   []int    `name:"voice-id" help:"Keep only voices with this declaration index"`
	Include   []string `help:"Keep only tokens of these categories"`
	Exclude   []string `help:"Drop tokens of these categories"`
	Where     string   `help:"CEL predicate; rejected cells become placeholders"`
}

func (f *ExportFlags) options(s *session) (exporter.Options, error) {
	opts, err := s.config.ExportOptions()
	if err != nil {
		return exporter.Options{}, err
	}

	opts.FromMeasure = f.From
	opts.ToMeasure = f.To

	if f.Variant != "" {
		variant, err := token.ParseVariant(f.Variant)
		if err != nil {
			return exporter.Options{}, err
		}
		opts.Variant = variant
	}
	if f.VoiceType != nil {
		opts.VoiceTypes = f.VoiceType
	}
	if f.VoiceID != nil {
		opts.VoiceIDs = f.VoiceID
	}
	if f.Include != nil {
		opts.Include = spinetree.Categories(f.Include)
	}
	if f.Exclude != nil {
		opts.Exclude = spinetree.Categories(f.Exclude)
	}
	if f.Where != "" {
		w, err := document.CompileWhere(f.Where, s.hierarchy)
		if err != nil {
			return exporter.Options{}, err
		}
		opts.Where = w
	}

	return opts, nil
}

// ExportCmd represents the export command
type ExportCmd struct {
	Input       string `arg:"" optional:"" help:"Input document (default: stdin)"`
	Output      string `short:"o" help:"Output file (default: stdout)"`
	ExportFlags `embed:""`
}

// Run executes the export command
func (cmd *ExportCmd) Run(ctx *Context) error {
	s, err := ctx.session()
	if err != nil {
		return err
	}

	opts, err := cmd.options(s)
	if err != nil {
		return err
	}

	doc, err := s.read(ctx, cmd.Input)
	if err != nil {
		return err
	}

	if doc.HasErrors() && !ctx.Quiet {
		color.New(color.FgYellow).Fprintf(ctx.Stderr, "%s: %d cell(s) could not be imported\n", doc.Source, len(doc.Errors()))
	}

	text, err := exporter.NewExporter(s.hierarchy, s.logger).Export(doc, opts)
	if err != nil {
		return err
	}

	if err := ctx.write(cmd.Output, []byte(text)); err != nil {
		return err
	}

	if ctx.Verbose && cmd.Output != "" {
		color.New(color.FgGreen).Fprintf(ctx.Stderr, "Exported %s to %s\n", doc.Source, cmd.Output)
	}

	return nil
}
