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

var draftingPromptTmpl = template.Must(template.New("drafting").Funcs(promptFuncs).Parse(`Write a research paper draft that answers the research question below.

Research question: {{.ResearchQuestion}}
{{with .Context.Background}}
Background: {{.}}
{{end}}{{with .Context.Methodology}}
Methodology: {{.}}
{{end}}{{with .Context.Results}}
Data summary: {{.}}
{{end}}{{with .Context.RelatedWork}}
Related work: {{.}}
{{end}}{{with .Dataset}}{{if .Columns}}
Data columns: {{join .Columns ", "}}
Sample rows:
{{range sample .Rows}}{{join . ", "}}
{{end}}{{end}}{{with .Text}}
Data excerpt:
{{.}}
{{end}}{{end}}
Citation style: {{.Style.Format}}{{with .Style.Journal}} (target journal: {{.}}){{end}}

Write these sections: title{{range .Wanted}}, {{.}}{{end}}.
Do not invent citations; references are added later.

Respond with a JSON object with the string fields "title"{{range .Wanted}}, "{{.}}"{{end}}.
`))

// DraftingProvider serves the ContentDrafting capability.
type DraftingProvider struct {
	model  Completer
	logger *zap.Logger
}

// NewDraftingProvider returns a drafting provider backed by model.
func NewDraftingProvider(model Completer, logger *zap.Logger) *DraftingProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftingProvider{model: model, logger: logger}
}

// Name implements pipeline.Provider.
func (p *DraftingProvider) Name() string { return "claude-drafting" }

type draftReply struct {
	Title        string `json:"title"`
	Abstract     string `json:"abstract"`
	Introduction string `json:"introduction"`
	Methods      string `json:"methods"`
	Results      string `json:"results"`
	Discussion   string `json:"discussion"`
	Conclusion   string `json:"conclusion"`
}

// Execute drafts the requested sections. Sections that were not requested
// are dropped even if the model wrote them.
func (p *DraftingProvider) Execute(ctx context.Context, input any, call pipeline.CallContext) (pipeline.Result, error) {
	in, ok := input.(types.DraftingInput)
	if !ok {
		return inputError("DraftingInput", input), nil
	}

	prompt, err := render(draftingPromptTmpl, struct {
		types.DraftingInput
		Wanted []string
	}{in, wantedSections(in.Sections)})
	if err != nil {
		return pipeline.Result{}, err
	}

	var reply draftReply
	if err := p.model.CompleteJSON(ctx, systemPrompt, prompt, &reply); err != nil {
		return pipeline.Result{}, err
	}
	if strings.TrimSpace(reply.Title) == "" {
		return pipeline.Fail("drafted paper has no title"), nil
	}

	f := in.Sections
	sections := types.SectionSet{Title: strings.TrimSpace(reply.Title)}
	keep := func(on bool, s string) string {
		if !on {
			return ""
		}
		return strings.TrimSpace(s)
	}
	sections.Abstract = keep(f.Abstract, reply.Abstract)
	sections.Introduction = keep(f.Introduction, reply.Introduction)
	sections.Methods = keep(f.Methods, reply.Methods)
	sections.Results = keep(f.Results, reply.Results)
	sections.Discussion = keep(f.Discussion, reply.Discussion)
	sections.Conclusion = keep(f.Conclusion, reply.Conclusion)

	p.logger.Debug("sections drafted",
		zap.String("run_id", call.RunID),
		zap.Strings("sections", wantedSections(f)),
	)
	return pipeline.Succeed(types.DraftingOutput{Sections: sections}), nil
}

func wantedSections(f types.SectionFlags) []string {
	var out []string
	for _, s := range []struct {
		on   bool
		name string
	}{
		{f.Abstract, "abstract"},
		{f.Introduction, "introduction"},
		{f.Methods, "methods"},
		{f.Results, "results"},
		{f.Discussion, "discussion"},
		{f.Conclusion, "conclusion"},
	} {
		if s.on {
			out = append(out, s.name)
		}
	}
	return out
}
