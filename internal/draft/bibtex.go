// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// citationPattern matches bracketed citations: [Key] or [Key1; Key2].
var citationPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// CitationKeys finds all AuthorYear citation keys in text. It handles both
// single citations [Key] and multi-citations [Key1; Key2].
func CitationKeys(text string) []string {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	var keys []string
	for _, m := range matches {
		for _, p := range strings.Split(m[1], ";") {
			key := strings.TrimSpace(p)
			if key != "" && isCitationKey(key) {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// isCitationKey checks whether a string looks like a citation key (AuthorYear
// format). It rejects Markdown links, numeric markers, and other bracket content.
func isCitationKey(s string) bool {
	hasLetter := false
	hasDigit := false
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case c == '-', c == '_':
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}

// CitationKey derives an AuthorYear key for a reference: the first author's
// surname with non-letters removed, followed by the year. References without
// authors fall back to the first title word.
func CitationKey(r types.Reference) string {
	base := ""
	if len(r.Authors) > 0 {
		fields := strings.Fields(r.Authors[0])
		if len(fields) > 0 {
			base = fields[len(fields)-1]
		}
	}
	if base == "" {
		if fields := strings.Fields(r.Title); len(fields) > 0 {
			base = fields[0]
		}
	}
	base = strings.Map(func(c rune) rune {
		if c < unicode.MaxASCII && unicode.IsLetter(c) {
			return c
		}
		return -1
	}, base)
	if base == "" {
		base = "Ref"
	}
	if r.Year > 0 {
		return fmt.Sprintf("%s%d", base, r.Year)
	}
	return base
}

// GenerateBibTeX produces BibTeX content for resolved references. Duplicate
// keys receive a letter suffix (Smith2020a, Smith2020b) in input order.
func GenerateBibTeX(refs []types.Reference) string {
	keys := make([]string, len(refs))
	total := make(map[string]int)
	for i, r := range refs {
		keys[i] = CitationKey(r)
		total[keys[i]]++
	}
	seen := make(map[string]int)
	for i, k := range keys {
		if total[k] > 1 {
			keys[i] = fmt.Sprintf("%s%c", k, 'a'+seen[k])
			seen[k]++
		}
	}

	var b strings.Builder
	for i, r := range refs {
		fmt.Fprintf(&b, "@article{%s,\n", keys[i])
		fmt.Fprintf(&b, "  title = {%s},\n", r.Title)
		if len(r.Authors) > 0 {
			fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(r.Authors, " and "))
		}
		if r.Year > 0 {
			fmt.Fprintf(&b, "  year = {%d},\n", r.Year)
		}
		if r.Venue != "" {
			fmt.Fprintf(&b, "  journal = {%s},\n", r.Venue)
		}
		if strings.HasPrefix(r.ID, "10.") {
			fmt.Fprintf(&b, "  doi = {%s},\n", r.ID)
		}
		fmt.Fprintf(&b, "}\n\n")
	}
	return b.String()
}
