// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"regexp"
	"strings"
)

// section is a chunk of Markdown under one heading.
type section struct {
	heading string
	level   int
	body    string
}

// numberPrefixRe strips "3." or "3.1" numbering from headings.
var numberPrefixRe = regexp.MustCompile(`^\d+(?:\.\d+)*\.?\s+`)

// chunkByHeadings splits Markdown into sections at every ATX heading. Text
// before the first heading becomes a section with an empty heading.
func chunkByHeadings(content string) []section {
	var (
		sections  []section
		heading   string
		level     int
		bodyLines []string
	)

	flush := func() {
		body := strings.TrimSpace(strings.Join(bodyLines, "\n"))
		if heading != "" || body != "" {
			sections = append(sections, section{heading: heading, level: level, body: body})
		}
		bodyLines = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if lvl, ok := headingLevel(trimmed); ok {
			flush()
			heading = stripHeadingPrefix(trimmed)
			level = lvl
			continue
		}
		bodyLines = append(bodyLines, line)
	}
	flush()
	return sections
}

// headingLevel reports the number of leading #s of an ATX heading.
func headingLevel(line string) (int, bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || n == len(line) || line[n] != ' ' {
		return 0, false
	}
	return n, true
}

// stripHeadingPrefix removes the leading # characters and any numbering.
func stripHeadingPrefix(line string) string {
	h := strings.TrimSpace(strings.TrimLeft(line, "#"))
	return numberPrefixRe.ReplaceAllString(h, "")
}

// outline indexes a document's sections by lowercased heading. The level-1
// heading is recorded as the title.
type outline struct {
	title    string
	order    []string
	sections map[string]section
}

func parseOutline(content string) outline {
	o := outline{sections: make(map[string]section)}
	for _, s := range chunkByHeadings(content) {
		if s.heading == "" {
			continue
		}
		if s.level == 1 && o.title == "" {
			o.title = s.heading
			continue
		}
		key := strings.ToLower(s.heading)
		if _, dup := o.sections[key]; dup {
			continue
		}
		o.order = append(o.order, key)
		o.sections[key] = s
	}
	return o
}

// has reports whether the named section (or the title) is present.
func (o outline) has(name string) bool {
	if strings.EqualFold(name, "title") {
		return o.title != ""
	}
	_, ok := o.sections[strings.ToLower(name)]
	return ok
}

// position returns the index of the named section in document order, or -1.
func (o outline) position(name string) int {
	key := strings.ToLower(name)
	for i, k := range o.order {
		if k == key {
			return i
		}
	}
	return -1
}

// isReferencesHeading matches "References" and "Bibliography" headings.
func isReferencesHeading(heading string) bool {
	h := strings.ToLower(heading)
	return strings.Contains(h, "references") || strings.Contains(h, "bibliography")
}

// splitReferences returns the document body before the references heading
// and the text of the references section.
func splitReferences(content string) (body, refs string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if _, ok := headingLevel(trimmed); ok && isReferencesHeading(stripHeadingPrefix(trimmed)) {
			rest := lines[i+1:]
			end := len(rest)
			for j, l := range rest {
				if _, ok := headingLevel(strings.TrimSpace(l)); ok {
					end = j
					break
				}
			}
			return strings.Join(lines[:i], "\n"), strings.Join(rest[:end], "\n")
		}
	}
	return content, ""
}
