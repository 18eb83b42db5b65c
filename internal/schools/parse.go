package schools

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported alias document format")

// Parse decodes an alias document; the format is chosen from the extension of
// name (.yaml, .yml or .csv).
func Parse(name string, data []byte) ([]Entry, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".csv":
		return parseCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// parseYAML accepts either {schools: [...]} or a bare list of entries.
func parseYAML(data []byte) ([]Entry, error) {
	var doc struct {
		Schools []Entry `yaml:"schools"`
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Schools) > 0 {
		return doc.Schools, nil
	}
	var list []Entry
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode yaml alias document: %w", err)
	}
	return list, nil
}

func parseCSV(data []byte) ([]Entry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode csv alias document: %w", err)
		}
		rows = append(rows, row)
	}
	return EntriesFromRows(rows), nil
}

// EntriesFromRows maps name,alias rows, skipping an optional header row.
func EntriesFromRows(rows [][]string) []Entry {
	if len(rows) > 0 && isHeader(rows[0]) {
		rows = rows[1:]
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowEntry(row))
	}
	return out
}

func isHeader(row []string) bool {
	return len(row) >= 2 &&
		strings.EqualFold(strings.TrimSpace(row[0]), "name") &&
		strings.EqualFold(strings.TrimSpace(row[1]), "alias")
}

// rowEntry maps a name,alias row; short rows produce blank fields which the
// directory then skips with a warning.
func rowEntry(row []string) Entry {
	var e Entry
	if len(row) > 0 {
		e.Name = row[0]
	}
	if len(row) > 1 {
		e.Alias = row[1]
	}
	return e
}
