// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// maxDescribedColumns bounds how many column names a description lists.
const maxDescribedColumns = 8

// parseDelimited reads a header row followed by data rows. Rows beyond
// maxRows are dropped and noted in the description.
func parseDelimited(data []byte, comma rune, maxRows int) (types.Dataset, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return types.Dataset{}, fmt.Errorf("data file is empty")
	}
	if err != nil {
		return types.Dataset{}, fmt.Errorf("reading header: %w", err)
	}

	var (
		rows      [][]string
		truncated bool
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.Dataset{}, fmt.Errorf("reading rows: %w", err)
		}
		if len(rows) == maxRows {
			truncated = true
			break
		}
		rows = append(rows, rec)
	}

	return types.Dataset{
		Format:      types.DatasetTabular,
		Columns:     header,
		Rows:        rows,
		Description: describeTable(header, len(rows), truncated),
	}, nil
}

func describeTable(columns []string, rows int, truncated bool) string {
	names := columns
	more := ""
	if len(names) > maxDescribedColumns {
		names = names[:maxDescribedColumns]
		more = ", ..."
	}
	desc := fmt.Sprintf("Tabular data with %d rows and %d columns: %s%s.", rows, len(columns), strings.Join(names, ", "), more)
	if truncated {
		desc += fmt.Sprintf(" Truncated to the first %d rows.", rows)
	}
	return desc
}

// parseJSON accepts a single object or an array of values.
func parseJSON(data []byte) (types.Dataset, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return types.Dataset{}, fmt.Errorf("decoding json: %w", err)
	}
	records, err := toRecords([]any{v})
	if err != nil {
		return types.Dataset{}, err
	}
	return recordDataset(records), nil
}

// parseYAML accepts one or more documents, each a mapping or a sequence.
func parseYAML(data []byte) (types.Dataset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []any
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.Dataset{}, fmt.Errorf("decoding yaml: %w", err)
		}
		if v != nil {
			docs = append(docs, v)
		}
	}
	records, err := toRecords(docs)
	if err != nil {
		return types.Dataset{}, err
	}
	return recordDataset(records), nil
}

// toRecords flattens decoded documents into records. Sequences contribute
// one record per element; scalars are wrapped as {"value": v}.
func toRecords(docs []any) ([]map[string]any, error) {
	var out []map[string]any
	for _, doc := range docs {
		switch d := doc.(type) {
		case map[string]any:
			out = append(out, d)
		case []any:
			for _, item := range d {
				if m, ok := item.(map[string]any); ok {
					out = append(out, m)
					continue
				}
				out = append(out, map[string]any{"value": item})
			}
		default:
			out = append(out, map[string]any{"value": d})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("data file contains no records")
	}
	return out, nil
}

func recordDataset(records []map[string]any) types.Dataset {
	return types.Dataset{
		Format:      types.DatasetRecord,
		Records:     records,
		Description: fmt.Sprintf("Record data with %d records.", len(records)),
	}
}
