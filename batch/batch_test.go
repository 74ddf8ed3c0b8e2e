package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/spinetree/catalog"
	"github.com/shibukawa/spinetree/exporter"
	"github.com/shibukawa/spinetree/parser"
	"github.com/shibukawa/spinetree/token"
)

func writeInputs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestRunExportsAndRecords(t *testing.T) {
	in := writeInputs(t, map[string]string{
		"one.krn":        "**kern\n4c\n=1\n4d\n*-\n",
		"nested/two.krn": "**kern\t**kern\n4c\t4e\n=1\t=1\n4d\t4f\n*-\t*-\n",
		"notes.txt":      "ignored",
	})
	out := filepath.Join(t.TempDir(), "exported")

	inputs, err := Collect([]string{in})
	require.NoError(t, err)
	assert.Equal(t, 2, len(inputs))

	ctx := context.Background()
	store, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer store.Close()

	r := NewRunner(nil, store, nil)
	results, err := r.Run(ctx, inputs, Options{
		Parallel:  2,
		OutputDir: out,
		Extension: "ekrn",
		Export:    exporter.Options{Variant: token.VariantEKern},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(results))

	for _, res := range results {
		assert.NoError(t, res.Err)
		assert.Equal(t, ".ekrn", filepath.Ext(res.Output))
		data, err := os.ReadFile(res.Output)
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "**kern"))
	}
	assert.Equal(t, 2, results[0].Voices, "nested/two.krn sorts first")
	assert.Equal(t, 1, results[0].Measures)

	entries, err := store.List(ctx, catalog.Filter{Status: catalog.StatusExported})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, "ekern", entries[0].Variant)
}

func TestRunReportsFailedDocuments(t *testing.T) {
	in := writeInputs(t, map[string]string{
		"good.krn": "**kern\n4c\n*-\n",
		"bad.krn":  "!! no voices here\n",
	})
	ctx := context.Background()
	store, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer store.Close()

	inputs, err := Collect([]string{in})
	require.NoError(t, err)

	results, err := NewRunner(nil, store, nil).Run(ctx, inputs, Options{OutputDir: t.TempDir()})
	assert.True(t, errors.Is(err, ErrItemsFailed))
	assert.Equal(t, 2, len(results))
	assert.True(t, errors.Is(results[0].Err, parser.ErrMissingHeader), "%v", results[0].Err)
	assert.NoError(t, results[1].Err)

	failed, err := store.List(ctx, catalog.Filter{Status: catalog.StatusFailed})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(failed))
	assert.Equal(t, results[0].Source, failed[0].Source)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.krn": "**kern\n4c\n*-\n"})
	out := filepath.Join(t.TempDir(), "never")

	results, err := NewRunner(nil, nil, nil).Run(context.Background(), []string{filepath.Join(in, "a.krn")}, Options{
		OutputDir: out,
		DryRun:    true,
	})
	assert.NoError(t, err)
	assert.Equal(t, "", results[0].Output)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRunValidation(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	_, err := r.Run(context.Background(), nil, Options{})
	assert.True(t, errors.Is(err, ErrNoInput))

	_, err = r.Run(context.Background(), []string{"x/a.krn", "y/a.krn"}, Options{OutputDir: t.TempDir()})
	assert.True(t, errors.Is(err, ErrDuplicateOutput))
}

func TestRunCancelled(t *testing.T) {
	in := writeInputs(t, map[string]string{"a.krn": "**kern\n4c\n*-\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(nil, nil, nil).Run(ctx, []string{filepath.Join(in, "a.krn")}, Options{OutputDir: t.TempDir()})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCollect(t *testing.T) {
	in := writeInputs(t, map[string]string{
		"a.krn":    "",
		"b/c.krn":  "",
		"b/d.ekrn": "",
		"b/e.txt":  "",
	})

	got, err := Collect([]string{in, filepath.Join(in, "a.krn")}, ".krn", ".ekrn")
	assert.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(in, "a.krn"),
		filepath.Join(in, "b", "c.krn"),
		filepath.Join(in, "b", "d.ekrn"),
	}, got)

	_, err = Collect([]string{filepath.Join(in, "missing")})
	assert.Error(t, err)
}
