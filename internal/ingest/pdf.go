// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/pdiddy/paper-engine/internal/container"
)

// ImageMarkitdown is the container image used for PDF conversion.
const ImageMarkitdown = "markitdown:latest"

// MarkitdownConverter converts PDFs by piping them through the markitdown
// container image.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter verifies that the markitdown image exists locally in
// rt and returns a converter using it.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(ctx, ImageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

// Convert pipes the PDF at pdfPath through markitdown and returns the
// Markdown text.
func (m *MarkitdownConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, ImageMarkitdown, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output for %s", pdfPath)
	}
	return out.String(), nil
}

// AutoConverter detects a container runtime and the markitdown image on
// first use, so runs without PDF sources never touch docker or podman. A
// detection failure is remembered for the life of the converter.
type AutoConverter struct {
	detect func(context.Context) (container.Runtime, error)

	once sync.Once
	conv *MarkitdownConverter
	err  error
}

// NewAutoConverter returns a converter using container.DetectRuntime.
func NewAutoConverter() *AutoConverter {
	return &AutoConverter{detect: container.DetectRuntime}
}

// Convert implements PDFConverter.
func (a *AutoConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	a.once.Do(func() {
		rt, err := a.detect(ctx)
		if err != nil {
			a.err = fmt.Errorf("pdf conversion unavailable: %w", err)
			return
		}
		a.conv, a.err = NewMarkitdownConverter(ctx, rt)
	})
	if a.err != nil {
		return "", a.err
	}
	return a.conv.Convert(ctx, pdfPath)
}
