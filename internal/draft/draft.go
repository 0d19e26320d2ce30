// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft provides deterministic text helpers over drafted papers:
// topic and keyword extraction, reference list rendering, citation key
// scanning, and BibTeX export.
//
// Every function here is pure; repeated calls with the same input return the
// same output, which the pipeline relies on for reproducible runs.
package draft

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/paper-engine/pkg/types"
)

const (
	// maxTitleTopics is how many title words seed the reference search.
	maxTitleTopics = 3

	// minTopicRunes is the exclusive lower bound on title word length.
	minTopicRunes = 4

	// maxKeywords is the number of keywords returned by ExtractKeywords.
	maxKeywords = 5
)

// keywordPattern matches lowercase ASCII words of five letters or more
// standing on word boundaries.
var keywordPattern = regexp.MustCompile(`\b[a-z]{5,}\b`)

// CombineSections joins the title and every non-empty section body with a
// blank line, in paper order.
func CombineSections(s types.SectionSet) string {
	parts := make([]string, 0, 7)
	if s.Title != "" {
		parts = append(parts, s.Title)
	}
	for _, body := range s.Bodies() {
		if body != "" {
			parts = append(parts, body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ExtractTopics returns the research question followed by the first three
// title words longer than four characters.
func ExtractTopics(researchQuestion, title string) []string {
	var topics []string
	if researchQuestion != "" {
		topics = append(topics, researchQuestion)
	}

	n := 0
	for _, word := range strings.Fields(title) {
		if n == maxTitleTopics {
			break
		}
		if utf8.RuneCountInString(word) > minTopicRunes {
			topics = append(topics, word)
			n++
		}
	}
	return topics
}

// ExtractKeywords counts lowercase words of five or more letters across the
// combined sections and returns the five most frequent. Words with equal
// counts keep the order in which they were first seen.
func ExtractKeywords(s types.SectionSet) []string {
	text := strings.ToLower(CombineSections(s))

	counts := make(map[string]int)
	var order []string
	for _, word := range keywordPattern.FindAllString(text, -1) {
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// RenderReferenceList numbers each reference's full citation from 1 and
// joins the entries with a blank line. The input order is preserved.
func RenderReferenceList(refs []types.Reference) string {
	entries := make([]string, len(refs))
	for i, r := range refs {
		entries[i] = fmt.Sprintf("%d. %s", i+1, r.FullCitation)
	}
	return strings.Join(entries, "\n\n")
}
