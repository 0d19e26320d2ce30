// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// loadRequest reads a request file. Files ending in .json are decoded as
// JSON; everything else as YAML.
func loadRequest(path string) (types.RawRequest, error) {
	var raw types.RawRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return raw, fmt.Errorf("reading request: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return raw, fmt.Errorf("decoding %s: %w", path, err)
		}
		return raw, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return raw, fmt.Errorf("decoding %s: %w", path, err)
	}
	return raw, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// maxSlugLen keeps generated file names readable.
const maxSlugLen = 60

// slugify turns a paper title into a file name stem. fallback is used when
// the title has no usable characters.
func slugify(title, fallback string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return fallback
	}
	return s
}
