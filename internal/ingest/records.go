// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// ErrRecordNotFound is returned when a stored source has no record file.
var ErrRecordNotFound = errors.New("stored record not found")

// storedRecord is the on-disk layout of a notebook, experiment, or dataset
// record at <data_dir>/<kind>/<source_id>.yaml.
type storedRecord struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Columns     []string         `yaml:"columns"`
	Rows        [][]string       `yaml:"rows"`
	Records     []map[string]any `yaml:"records"`
	Notes       string           `yaml:"notes"`
}

// RecordPath returns where a stored source is read from.
func RecordPath(dataDir string, kind types.DataSourceKind, sourceID string) string {
	return filepath.Join(dataDir, string(kind), sourceID+".yaml")
}

func (i *Ingestor) loadRecord(src types.DataSource) (types.Dataset, error) {
	if i.dataDir == "" {
		return types.Dataset{}, fmt.Errorf("no data directory configured for %s sources", src.Kind)
	}
	if err := checkSourceID(src.SourceID); err != nil {
		return types.Dataset{}, err
	}

	path := RecordPath(i.dataDir, src.Kind, src.SourceID)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return types.Dataset{}, fmt.Errorf("%w: %s %s", ErrRecordNotFound, src.Kind, src.SourceID)
	}
	if err != nil {
		return types.Dataset{}, fmt.Errorf("reading record %s: %w", path, err)
	}

	var rec storedRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return types.Dataset{}, fmt.Errorf("parsing record %s: %w", path, err)
	}
	return i.recordToDataset(rec), nil
}

func (i *Ingestor) recordToDataset(rec storedRecord) types.Dataset {
	var ds types.Dataset
	switch {
	case len(rec.Columns) > 0:
		rows := rec.Rows
		truncated := len(rows) > i.maxRows
		if truncated {
			rows = rows[:i.maxRows]
		}
		ds = types.Dataset{
			Format:      types.DatasetTabular,
			Columns:     rec.Columns,
			Rows:        rows,
			Description: describeTable(rec.Columns, len(rows), truncated),
		}
		ds.Text = strings.TrimSpace(rec.Notes)
	case len(rec.Records) > 0:
		ds = recordDataset(rec.Records)
		ds.Text = strings.TrimSpace(rec.Notes)
	default:
		ds = textDataset(rec.Notes)
	}

	switch {
	case rec.Description != "":
		ds.Description = rec.Description
	case rec.Title != "":
		ds.Description = rec.Title + ". " + ds.Description
	}
	return ds
}

// checkSourceID rejects identifiers that would escape the kind directory.
func checkSourceID(id string) error {
	if id == "" {
		return fmt.Errorf("source_id is required for stored sources")
	}
	if id != filepath.Base(id) || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid source_id %q", id)
	}
	return nil
}
