package tokenizer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// RowIterator uses Go 1.24 iterator pattern
type RowIterator iter.Seq2[Row, error]

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	// MaxLineSize bounds a single input line in bytes
	MaxLineSize int
}

const defaultMaxLineSize = 1 << 20

// Tokenizer splits a tab-separated spine stream into rows
type Tokenizer struct {
	reader  io.Reader
	options TokenizerOptions
}

// NewTokenizer creates a new Tokenizer
func NewTokenizer(r io.Reader, options ...TokenizerOptions) *Tokenizer {
	opts := TokenizerOptions{MaxLineSize: defaultMaxLineSize}
	if len(options) > 0 {
		opts = options[0]
		if opts.MaxLineSize <= 0 {
			opts.MaxLineSize = defaultMaxLineSize
		}
	}

	return &Tokenizer{
		reader:  r,
		options: opts,
	}
}

// Rows returns an iterator of rows. Blank lines are skipped; a read error is
// yielded once and ends the iteration.
func (t *Tokenizer) Rows() RowIterator {
	return func(yield func(Row, error) bool) {
		scanner := bufio.NewScanner(t.reader)
		scanner.Buffer(make([]byte, 0, min(64*1024, t.options.MaxLineSize)), t.options.MaxLineSize)

		line := 0
		for scanner.Scan() {
			line++
			raw := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(raw) == "" {
				continue
			}

			if !yield(newRow(line, raw), nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				err = fmt.Errorf("%w: line %d", ErrLineTooLong, line+1)
			}
			yield(Row{}, err)
		}
	}
}

// AllRows gets all rows as a slice
func (t *Tokenizer) AllRows() ([]Row, error) {
	rows := make([]Row, 0, 256)
	for row, err := range t.Rows() {
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Tokenize splits an in-memory document into rows
func Tokenize(input string) ([]Row, error) {
	return NewTokenizer(strings.NewReader(input)).AllRows()
}

func newRow(line int, raw string) Row {
	var cells []string
	if strings.HasPrefix(raw, MetacommentPrefix) {
		cells = []string{raw}
	} else {
		cells = strings.Split(raw, CellSeparator)
	}

	return Row{
		Kind:  classify(raw, cells),
		Line:  line,
		Raw:   raw,
		Cells: cells,
	}
}
