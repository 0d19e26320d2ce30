// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest implements the DataIngestion capability. File sources are
// read from a path or inline content and decoded by type (delimited text,
// JSON, YAML, plain text, PDF). Notebook, experiment, and dataset sources are
// YAML records stored under a data directory.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// DefaultMaxRows caps tabular data when the config leaves MaxRows unset.
const DefaultMaxRows = 10000

// PDFConverter turns a PDF file into text. *MarkitdownConverter satisfies it.
type PDFConverter interface {
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// Ingestor serves the DataIngestion capability from the local filesystem.
type Ingestor struct {
	dataDir string
	maxRows int
	pdf     PDFConverter
	logger  *zap.Logger
}

// NewIngestor returns an ingestor reading stored records from cfg.DataDir.
// pdf may be nil, in which case PDF sources fail with a clear message.
func NewIngestor(cfg types.IngestionConfig, pdf PDFConverter, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Ingestor{dataDir: cfg.DataDir, maxRows: maxRows, pdf: pdf, logger: logger}
}

// Name implements pipeline.Provider.
func (i *Ingestor) Name() string { return "local-ingest" }

// Execute loads and decodes the requested data source.
func (i *Ingestor) Execute(ctx context.Context, input any, call pipeline.CallContext) (pipeline.Result, error) {
	in, ok := input.(types.IngestionInput)
	if !ok {
		return pipeline.Fail("expected IngestionInput input, got %T", input), nil
	}
	src := in.Source

	var (
		ds  types.Dataset
		err error
	)
	if src.Kind == types.SourceFile {
		ds, err = i.ingestFile(ctx, src)
	} else {
		ds, err = i.loadRecord(src)
	}
	if err != nil {
		return pipeline.Result{}, err
	}
	ds.Kind = src.Kind
	ds.SourceID = src.SourceID

	i.logger.Debug("data ingested",
		zap.String("run_id", call.RunID),
		zap.String("kind", string(src.Kind)),
		zap.String("format", string(ds.Format)),
		zap.Int("rows", len(ds.Rows)),
		zap.Int("records", len(ds.Records)),
	)
	return pipeline.Succeed(ds), nil
}

func (i *Ingestor) ingestFile(ctx context.Context, src types.DataSource) (types.Dataset, error) {
	ft := src.FileType
	if ft == "" {
		ft = inferFileType(src.FilePath)
	}

	if ft == types.FilePDF {
		return i.ingestPDF(ctx, src)
	}
	if ft == types.FileExcel {
		return types.Dataset{}, fmt.Errorf("excel sources are not supported; export the sheet to csv")
	}

	data, err := readSource(src)
	if err != nil {
		return types.Dataset{}, err
	}

	switch ft {
	case types.FileCSV:
		return parseDelimited(data, ',', i.maxRows)
	case types.FileTSV:
		return parseDelimited(data, '\t', i.maxRows)
	case types.FileJSON:
		return parseJSON(data)
	case types.FileYAML:
		return parseYAML(data)
	default:
		return textDataset(string(data)), nil
	}
}

func (i *Ingestor) ingestPDF(ctx context.Context, src types.DataSource) (types.Dataset, error) {
	if i.pdf == nil {
		return types.Dataset{}, fmt.Errorf("pdf sources need a container runtime with the markitdown image")
	}

	path := src.FilePath
	if path == "" {
		tmp, err := os.CreateTemp("", "paper-engine-*.pdf")
		if err != nil {
			return types.Dataset{}, fmt.Errorf("staging inline pdf: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.WriteString(src.FileContent); err != nil {
			tmp.Close()
			return types.Dataset{}, fmt.Errorf("staging inline pdf: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return types.Dataset{}, fmt.Errorf("staging inline pdf: %w", err)
		}
		path = tmp.Name()
	}

	text, err := i.pdf.Convert(ctx, path)
	if err != nil {
		return types.Dataset{}, err
	}
	return textDataset(text), nil
}

// readSource returns inline content when present, else the file at FilePath.
func readSource(src types.DataSource) ([]byte, error) {
	if src.FileContent != "" {
		return []byte(src.FileContent), nil
	}
	data, err := os.ReadFile(src.FilePath)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	return data, nil
}

// inferFileType maps a file extension to a file type. Unknown extensions are
// read as plain text.
func inferFileType(path string) types.FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return types.FileCSV
	case ".tsv", ".tab":
		return types.FileTSV
	case ".json":
		return types.FileJSON
	case ".yaml", ".yml":
		return types.FileYAML
	case ".pdf":
		return types.FilePDF
	case ".xls", ".xlsx":
		return types.FileExcel
	default:
		return types.FileTXT
	}
}

func textDataset(text string) types.Dataset {
	text = strings.TrimSpace(text)
	return types.Dataset{
		Format:      types.DatasetText,
		Text:        text,
		Description: fmt.Sprintf("Text data with %d words.", len(strings.Fields(text))),
	}
}
