// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// In-text citation patterns per style.
var (
	// apaCiteRe matches (Smith, 2020), (Smith & Jones, 2019a), (Smith et al., n.d.).
	apaCiteRe = regexp.MustCompile(`\([A-Z][^()]*?, (?:\d{4}[a-z]?|n\.d\.)\)`)

	// chicagoCiteRe matches (Smith 2020) and (Smith and Jones 2019).
	chicagoCiteRe = regexp.MustCompile(`\([A-Z][^(),]*? (?:\d{4}[a-z]?|n\.d\.)\)`)

	// mlaCiteRe matches (Smith), (Smith and Jones 12), (Smith et al. 4-9).
	mlaCiteRe = regexp.MustCompile(`\((?:[A-Z][\w'-]+(?: (?:and|&) [A-Z][\w'-]+| et al\.)?|Anon\.)(?: \d+(?:-\d+)?)?\)`)

	// ieeeCiteRe matches [1], [2, 5], and [3-4].
	ieeeCiteRe = regexp.MustCompile(`\[(\d+(?:\s*[,-]\s*\d+)*)\]`)

	// natureCiteRe matches ^1 and ^2,3 superscript markers.
	natureCiteRe = regexp.MustCompile(`\^(\d+(?:[,-]\d+)*)`)

	// scienceCiteRe matches (1) and (2, 3).
	scienceCiteRe = regexp.MustCompile(`\((\d+(?:\s*[,-]\s*\d+)*)\)`)

	// refEntryRe matches numbered reference list entries, "1. ..." or "[1] ...".
	refEntryRe = regexp.MustCompile(`(?m)^\s*(?:\d+\.|\[\d+\])\s+\S`)
)

func citePattern(style types.CitationStyle) *regexp.Regexp {
	switch style {
	case types.StyleMLA:
		return mlaCiteRe
	case types.StyleChicago:
		return chicagoCiteRe
	case types.StyleIEEE:
		return ieeeCiteRe
	case types.StyleNature:
		return natureCiteRe
	case types.StyleScience:
		return scienceCiteRe
	default:
		return apaCiteRe
	}
}

func isNumeric(style types.CitationStyle) bool {
	return style == types.StyleIEEE || style == types.StyleNature || style == types.StyleScience
}

// citationScan is the result of scanning a body for in-text markers.
type citationScan struct {
	markers int

	// numbers holds every cited reference number for numeric styles, in
	// first-seen order without duplicates.
	numbers []int
}

func scanCitations(body string, style types.CitationStyle) citationScan {
	re := citePattern(style)
	matches := re.FindAllStringSubmatch(body, -1)
	scan := citationScan{markers: len(matches)}
	if !isNumeric(style) {
		return scan
	}

	seen := make(map[int]bool)
	for _, m := range matches {
		for _, n := range expandNumbers(m[1]) {
			if !seen[n] {
				seen[n] = true
				scan.numbers = append(scan.numbers, n)
			}
		}
	}
	return scan
}

// expandNumbers turns "1, 3-5" into [1 3 4 5]. Ranges longer than the
// bound are truncated.
func expandNumbers(s string) []int {
	const maxRange = 100
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			continue
		}
		if !isRange {
			out = append(out, a)
			continue
		}
		b, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil || b < a {
			out = append(out, a)
			continue
		}
		for n := a; n <= b && n-a < maxRange; n++ {
			out = append(out, n)
		}
	}
	return out
}

// countReferenceEntries counts numbered entries in a references section.
func countReferenceEntries(refs string) int {
	return len(refEntryRe.FindAllStringIndex(refs, -1))
}
