package fieldspec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// FieldSpec identifies one column targeted for obfuscation.
type FieldSpec struct {
	Table  string
	Column string
}

// TableFields is the per-table grouping of configured columns,
// in configuration order.
type TableFields struct {
	Table   string
	Columns []string
}

// Load parses the line-oriented field definition format:
//
//	table - column
//
// one pair per line. Blank lines and lines starting with '#' are
// skipped. Malformed lines are logged and skipped; duplicates are
// collapsed keeping first occurrence.
func Load(r io.Reader) ([]FieldSpec, error) {
	var specs []FieldSpec
	seen := make(map[FieldSpec]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, " - ", 2)
		if len(parts) != 2 {
			log.Warn().Int("line", lineNo).Str("content", line).Msg("Skipping malformed field definition")
			continue
		}

		spec := FieldSpec{
			Table:  strings.TrimSpace(parts[0]),
			Column: strings.TrimSpace(parts[1]),
		}
		if spec.Table == "" || spec.Column == "" {
			log.Warn().Int("line", lineNo).Str("content", line).Msg("Skipping malformed field definition")
			continue
		}
		if seen[spec] {
			continue
		}
		seen[spec] = true
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read field definitions: %w", err)
	}

	return specs, nil
}

// LoadFile reads the field definition file at path.
func LoadFile(path string) ([]FieldSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fields file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// GroupByTable groups specs by table, preserving the order of first
// appearance. This order defines pipeline processing order.
func GroupByTable(specs []FieldSpec) []TableFields {
	var groups []TableFields
	index := make(map[string]int)

	for _, s := range specs {
		i, ok := index[s.Table]
		if !ok {
			i = len(groups)
			index[s.Table] = i
			groups = append(groups, TableFields{Table: s.Table})
		}
		groups[i].Columns = append(groups[i].Columns, s.Column)
	}
	return groups
}
