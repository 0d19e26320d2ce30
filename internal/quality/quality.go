// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality implements the QualityValidation capability with
// deterministic rules over the compiled Markdown: required sections and their
// order, empty sections, in-text citations for the requested style, repeated
// words, sentence length, and numbers in the abstract that the body never
// mentions. Each finding deducts from a score that starts at 100.
package quality

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// PassThreshold is the minimum score of a passing report.
const PassThreshold = 70

// Deductions per finding, and caps per check where findings can repeat.
const (
	missingSectionPenalty = 10
	outOfOrderPenalty     = 5
	emptySectionPenalty   = 5
	noReferencesPenalty   = 10
	noCitationsPenalty    = 15
	danglingCitePenalty   = 5
	danglingCiteCap       = 15
	uncitedRefPenalty     = 2
	uncitedRefCap         = 10
	repeatedWordPenalty   = 2
	repeatedWordCap       = 10
	longSentencePenalty   = 3
	longSentenceCap       = 15
	unsupportedNumPenalty = 5
	unsupportedNumCap     = 10

	// longSentenceWords is the word count above which a sentence is long.
	longSentenceWords = 40
)

// Checker serves the QualityValidation capability.
type Checker struct {
	logger *zap.Logger
}

// New returns a rule-based checker.
func New(logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{logger: logger}
}

// Name implements pipeline.Provider.
func (c *Checker) Name() string { return "rule-quality" }

// Execute validates the compiled paper and returns a types.QualityReport.
func (c *Checker) Execute(_ context.Context, input any, call pipeline.CallContext) (pipeline.Result, error) {
	in, ok := input.(types.QualityInput)
	if !ok {
		return pipeline.Fail("expected QualityInput input, got %T", input), nil
	}
	if strings.TrimSpace(in.Content) == "" {
		return pipeline.Fail("no content to validate"), nil
	}

	report := Validate(in)
	c.logger.Debug("quality validated",
		zap.String("run_id", call.RunID),
		zap.Int("score", report.Score),
		zap.Bool("passed", report.Passed),
		zap.Int("issues", len(report.Issues)),
	)
	return pipeline.Succeed(report), nil
}

// tally accumulates issues and the total deduction.
type tally struct {
	issues    []string
	deduction int
}

func (t *tally) add(penalty int, format string, args ...any) {
	t.issues = append(t.issues, fmt.Sprintf(format, args...))
	t.deduction += penalty
}

// addCapped records one issue per finding but deducts at most limit in total.
func (t *tally) addCapped(findings []string, penalty, limit int) {
	d := 0
	for _, f := range findings {
		t.issues = append(t.issues, f)
		if d+penalty <= limit {
			d += penalty
		}
	}
	t.deduction += d
}

// Validate runs the checks selected by in.Criteria.
func Validate(in types.QualityInput) types.QualityReport {
	doc := parseOutline(in.Content)
	body, refs := splitReferences(in.Content)
	var t tally

	if in.Criteria.Completeness {
		for _, name := range in.RequiredSections {
			if !doc.has(name) {
				t.add(missingSectionPenalty, "missing section: %s", name)
			}
		}
	}

	if in.Criteria.Structure {
		checkOrder(&t, doc, in.RequiredSections)
	}

	if in.Criteria.Formatting {
		for _, key := range doc.order {
			s := doc.sections[key]
			if s.body == "" && !isReferencesHeading(s.heading) {
				t.add(emptySectionPenalty, "empty section: %s", s.heading)
			}
		}
	}

	if in.Criteria.Citations {
		checkCitations(&t, body, refs, in.CitationStyle)
	}

	prose := proseOf(body)
	if in.Criteria.Grammar {
		t.addCapped(repeatedWords(prose), repeatedWordPenalty, repeatedWordCap)
	}
	if in.Criteria.Clarity {
		t.addCapped(longSentences(prose), longSentencePenalty, longSentenceCap)
	}
	if in.Criteria.Accuracy {
		if abstract, ok := doc.sections["abstract"]; ok {
			rest := strings.Replace(body, abstract.body, "", 1)
			t.addCapped(unsupportedNumbers(abstract.body, rest), unsupportedNumPenalty, unsupportedNumCap)
		}
	}

	score := 100 - t.deduction
	if score < 0 {
		score = 0
	}
	issues := t.issues
	if issues == nil {
		issues = []string{}
	}
	return types.QualityReport{
		Score:  score,
		Passed: score >= PassThreshold,
		Issues: issues,
	}
}

// checkOrder reports the first pair of present required sections that
// appear in the wrong order.
func checkOrder(t *tally, doc outline, required []string) {
	last, lastName := -1, ""
	for _, name := range required {
		pos := doc.position(name)
		if pos < 0 {
			continue
		}
		if pos < last {
			t.add(outOfOrderPenalty, "section out of order: %s appears before %s", name, lastName)
			return
		}
		last, lastName = pos, name
	}
}

func checkCitations(t *tally, body, refs string, style types.CitationStyle) {
	if style == "" {
		style = types.StyleAPA
	}
	entries := countReferenceEntries(refs)
	if entries == 0 {
		t.add(noReferencesPenalty, "no references section")
		return
	}

	scan := scanCitations(body, style)
	if scan.markers == 0 {
		t.add(noCitationsPenalty, "no in-text citations in %s style", style)
		return
	}
	if !isNumeric(style) {
		return
	}

	var dangling, uncited []string
	cited := make(map[int]bool, len(scan.numbers))
	for _, n := range scan.numbers {
		cited[n] = true
		if n < 1 || n > entries {
			dangling = append(dangling, fmt.Sprintf("citation %d has no reference entry", n))
		}
	}
	for n := 1; n <= entries; n++ {
		if !cited[n] {
			uncited = append(uncited, fmt.Sprintf("reference %d is never cited", n))
		}
	}
	t.addCapped(dangling, danglingCitePenalty, danglingCiteCap)
	t.addCapped(uncited, uncitedRefPenalty, uncitedRefCap)
}

// proseOf drops headings, figure captions, and the keyword line.
func proseOf(body string) string {
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if _, ok := headingLevel(trimmed); ok {
			continue
		}
		if strings.HasPrefix(trimmed, "**Figure ") || strings.HasPrefix(trimmed, "**Keywords:**") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// repeatedWords finds accidental doubles like "the the". Words separated by
// punctuation are not doubles.
func repeatedWords(prose string) []string {
	var out []string
	prev := ""
	for _, tok := range strings.Fields(prose) {
		word := strings.ToLower(strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) }))
		if word != "" && word == prev {
			out = append(out, fmt.Sprintf("repeated word: %q", word))
		}
		prev = word
		if last := tok[len(tok)-1]; strings.ContainsRune(".,;:!?)", rune(last)) {
			prev = ""
		}
	}
	return out
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

func longSentences(prose string) []string {
	var out []string
	for _, paragraph := range strings.Split(prose, "\n\n") {
		for _, s := range sentenceEndRe.Split(paragraph, -1) {
			if n := len(strings.Fields(s)); n > longSentenceWords {
				out = append(out, fmt.Sprintf("long sentence (%d words): %s...", n, firstWords(s, 6)))
			}
		}
	}
	return out
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// numberRe matches quantities such as 42, 3.5, and 12%.
var numberRe = regexp.MustCompile(`\b\d+(?:\.\d+)?%?`)

// unsupportedNumbers reports quantities stated in the abstract that appear
// nowhere in the rest of the body. Four-digit years are ignored.
func unsupportedNumbers(abstract, rest string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, num := range numberRe.FindAllString(abstract, -1) {
		if seen[num] || isYear(num) {
			continue
		}
		seen[num] = true
		if !strings.Contains(rest, strings.TrimSuffix(num, "%")) {
			out = append(out, fmt.Sprintf("abstract figure %s does not appear in the body", num))
		}
	}
	return out
}

func isYear(s string) bool {
	return len(s) == 4 && (strings.HasPrefix(s, "19") || strings.HasPrefix(s, "20"))
}
