// Package batch parses and exports many documents in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shibukawa/spinetree/catalog"
	"github.com/shibukawa/spinetree/document"
	"github.com/shibukawa/spinetree/exporter"
	"github.com/shibukawa/spinetree/parser"
)

// Sentinel errors
var (
	ErrNoInput         = errors.New("no input documents")
	ErrDuplicateOutput = errors.New("two inputs map to the same output file")
	ErrItemsFailed     = errors.New("some documents failed")
)

// Options configures a batch run.
type Options struct {
	// Parallel is the number of concurrent workers. Zero uses the CPU count.
	Parallel int
	// OutputDir receives one exported file per input.
	OutputDir string
	// Extension replaces the input extension. Empty keeps ".krn".
	Extension string
	// DryRun parses and exports without writing files.
	DryRun bool

	Parser parser.Options
	Export exporter.Options
}

// Result is the outcome for one input.
type Result struct {
	Source     string
	Output     string
	DocumentID uuid.UUID
	Voices     int
	Measures   int
	CellErrors int
	Err        error
}

// Runner executes batch runs. Store may be nil.
type Runner struct {
	exporter *exporter.Exporter
	store    *catalog.Store
	logger   *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(exp *exporter.Exporter, store *catalog.Store, logger *slog.Logger) *Runner {
	if exp == nil {
		exp = exporter.NewExporter(nil, logger)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{exporter: exp, store: store, logger: logger}
}

// Run processes inputs. Per-document failures are reported in the results
// and summarized as ErrItemsFailed; a cancelled context or a catalog failure
// stops the run.
func (r *Runner) Run(ctx context.Context, inputs []string, opts Options) ([]Result, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}
	outputs, err := outputPaths(inputs, opts)
	if err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	results := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.process(input, outputs[i], opts)
			return r.record(gctx, results[i], opts)
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("batch finished", "documents", len(results), "failed", failed)
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d", ErrItemsFailed, failed, len(results))
	}
	return results, nil
}

func (r *Runner) process(input, output string, opts Options) Result {
	res := Result{Source: input, Output: output}

	f, err := os.Open(input)
	if err != nil {
		res.Err = fmt.Errorf("failed to open %s: %w", input, err)
		return res
	}
	defer f.Close()

	doc, err := document.Read(f, input, opts.Parser)
	if err != nil {
		res.Err = err
		return res
	}
	res.DocumentID = doc.ID
	res.Voices = doc.VoiceCount()
	res.Measures = doc.MeasuresCount()
	res.CellErrors = len(doc.Errors())

	text, err := r.exporter.Export(doc, opts.Export)
	if err != nil {
		res.Err = fmt.Errorf("failed to export %s: %w", input, err)
		return res
	}
	if opts.DryRun {
		res.Output = ""
		return res
	}
	if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
		res.Err = fmt.Errorf("failed to write %s: %w", output, err)
		return res
	}

	r.logger.Debug("document converted", "source", input, "output", output, "measures", res.Measures)
	return res
}

func (r *Runner) record(ctx context.Context, res Result, opts Options) error {
	if r.store == nil {
		return nil
	}
	entry := catalog.Entry{
		DocumentID: res.DocumentID,
		Source:     res.Source,
		Output:     res.Output,
		Variant:    string(opts.Export.Variant),
		Status:     catalog.StatusExported,
		Voices:     res.Voices,
		Measures:   res.Measures,
		CellErrors: res.CellErrors,
	}
	if entry.Variant == "" {
		entry.Variant = string(exporter.DefaultOptions.Variant)
	}
	if res.Err != nil {
		entry.Status = catalog.StatusFailed
		entry.Message = res.Err.Error()
	}
	_, err := r.store.Record(ctx, entry)
	return err
}

func outputPaths(inputs []string, opts Options) ([]string, error) {
	ext := opts.Extension
	if ext == "" {
		ext = ".krn"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	seen := make(map[string]string, len(inputs))
	result := make([]string, len(inputs))
	for i, input := range inputs {
		base := filepath.Base(input)
		base = strings.TrimSuffix(base, filepath.Ext(base)) + ext
		out := filepath.Join(opts.OutputDir, base)
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%w: %s and %s -> %s", ErrDuplicateOutput, prev, input, out)
		}
		seen[out] = input
		result[i] = out
	}
	return result, nil
}

// Collect expands directories into the files below them whose extension is
// one of exts. Plain file arguments are kept as given. The result is sorted
// and free of duplicates.
func Collect(paths []string, exts ...string) ([]string, error) {
	if len(exts) == 0 {
		exts = []string{".krn"}
	}
	var result []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			result = append(result, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && slices.Contains(exts, filepath.Ext(path)) {
				result = append(result, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	slices.Sort(result)
	return slices.Compact(result), nil
}
