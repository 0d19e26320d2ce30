// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose implements the generative capability providers: section
// drafting and figure synthesis. Both render a text/template prompt, ask the
// model for a JSON object, and map the reply onto pipeline types.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-engine/internal/pipeline"
)

// Completer is the model client the providers need. *claude.Client
// satisfies it.
type Completer interface {
	CompleteJSON(ctx context.Context, system, prompt string, v any) error
}

const systemPrompt = "You are a scientific writing assistant. You respond only with a single JSON object and no surrounding prose."

// maxSampleRows bounds how much tabular data is quoted in a prompt.
const maxSampleRows = 10

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	"sample": func(rows [][]string) [][]string {
		if len(rows) > maxSampleRows {
			return rows[:maxSampleRows]
		}
		return rows
	},
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// inputError reports a provider wired to the wrong capability.
func inputError(want string, got any) pipeline.Result {
	return pipeline.Fail("expected %s input, got %T", want, got)
}
