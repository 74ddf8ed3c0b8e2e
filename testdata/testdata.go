// Package testdata embeds the export acceptance cases. Every case directory
// holds input.krn, options.yaml and expected.krn.
package testdata

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
)

//go:embed acceptancetests/*/*.krn acceptancetests/*/*.yaml
var AcceptanceTests embed.FS

// GetFS returns the embedded filesystem
func GetFS() embed.FS {
	return AcceptanceTests
}

// Case is one acceptance case. Options is the raw YAML of the export options.
type Case struct {
	Name     string
	Input    string
	Options  []byte
	Expected string
}

// Pattern for case directories: 3 digits followed by a name
var caseDir = regexp.MustCompile(`^[0-9]{3}.*$`)

// Cases loads every acceptance case in directory order.
func Cases() ([]Case, error) {
	entries, err := fs.ReadDir(AcceptanceTests, "acceptancetests")
	if err != nil {
		return nil, fmt.Errorf("failed to read acceptancetests directory: %w", err)
	}

	var cases []Case
	for _, entry := range entries {
		if !entry.IsDir() || !caseDir.MatchString(entry.Name()) {
			continue
		}
		dir := path.Join("acceptancetests", entry.Name())

		input, err := fs.ReadFile(AcceptanceTests, path.Join(dir, "input.krn"))
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", entry.Name(), err)
		}
		options, err := fs.ReadFile(AcceptanceTests, path.Join(dir, "options.yaml"))
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", entry.Name(), err)
		}
		expected, err := fs.ReadFile(AcceptanceTests, path.Join(dir, "expected.krn"))
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", entry.Name(), err)
		}

		cases = append(cases, Case{
			Name:     entry.Name(),
			Input:    string(input),
			Options:  options,
			Expected: string(expected),
		})
	}

	return cases, nil
}
