// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"context"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

var figurePromptTmpl = template.Must(template.New("figures").Funcs(promptFuncs).Parse(`Design up to {{.MaxFigures}} figures for the {{.PaperSection}} section of a research paper.

Research question: {{.ResearchQuestion}}
Purpose: {{.Purpose}}
Key finding: {{.KeyFinding}}
Data type: {{.DataType}}
Preferred figure type: {{.FigureType}} ({{.ChartType}})
{{with .Dataset}}{{if .Columns}}
Data columns: {{join .Columns ", "}}
Sample rows:
{{range sample .Rows}}{{join . ", "}}
{{end}}{{end}}{{end}}
For each figure give a kind, a one-paragraph description, a caption, and
plotting code in Python (matplotlib) and R (ggplot2).

Respond with a JSON object: {"figures": [{"kind": "...", "description": "...", "caption": "...", "code": {"python": "...", "r": "..."}}]}
`))

// FigureProvider serves the FigureSynthesis capability.
type FigureProvider struct {
	model  Completer
	logger *zap.Logger
}

// NewFigureProvider returns a figure provider backed by model.
func NewFigureProvider(model Completer, logger *zap.Logger) *FigureProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FigureProvider{model: model, logger: logger}
}

// Name implements pipeline.Provider.
func (p *FigureProvider) Name() string { return "claude-figures" }

type figureReply struct {
	Figures []struct {
		Kind        string `json:"kind"`
		Description string `json:"description"`
		Caption     string `json:"caption"`
		Code        *struct {
			Python     string `json:"python"`
			R          string `json:"r"`
			JavaScript string `json:"javascript"`
		} `json:"code"`
	} `json:"figures"`
}

// Execute asks the model for figure designs. Figures without a caption are
// dropped; the rest are numbered from 1 and capped at MaxFigures.
func (p *FigureProvider) Execute(ctx context.Context, input any, call pipeline.CallContext) (pipeline.Result, error) {
	in, ok := input.(types.FigureInput)
	if !ok {
		return inputError("FigureInput", input), nil
	}
	if in.MaxFigures <= 0 {
		return pipeline.Succeed(types.FigureOutput{Figures: []types.Figure{}}), nil
	}

	prompt, err := render(figurePromptTmpl, in)
	if err != nil {
		return pipeline.Result{}, err
	}

	var reply figureReply
	if err := p.model.CompleteJSON(ctx, systemPrompt, prompt, &reply); err != nil {
		return pipeline.Result{}, err
	}

	figures := make([]types.Figure, 0, len(reply.Figures))
	for _, f := range reply.Figures {
		if len(figures) == in.MaxFigures {
			break
		}
		caption := strings.TrimSpace(f.Caption)
		if caption == "" {
			continue
		}
		kind := f.Kind
		if kind == "" {
			kind = in.FigureType
		}
		fig := types.Figure{
			Index:       len(figures) + 1,
			Kind:        kind,
			Description: strings.TrimSpace(f.Description),
			Caption:     caption,
		}
		if f.Code != nil {
			fig.Code = &types.FigureCode{Python: f.Code.Python, R: f.Code.R, JavaScript: f.Code.JavaScript}
		}
		figures = append(figures, fig)
	}

	p.logger.Debug("figures synthesized", zap.String("run_id", call.RunID), zap.Int("count", len(figures)))
	return pipeline.Succeed(types.FigureOutput{Figures: figures}), nil
}
