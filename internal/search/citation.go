// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// numericStyles cite by position in the reference list rather than by author.
var numericStyles = map[types.CitationStyle]bool{
	types.StyleIEEE:    true,
	types.StyleNature:  true,
	types.StyleScience: true,
}

// Cite renders a candidate as the n-th (1-based) reference in style.
func Cite(c Candidate, style types.CitationStyle, n int) types.Reference {
	names := make([]CSLName, 0, len(c.Authors))
	for _, a := range c.Authors {
		if name := parseAuthorName(a); name != (CSLName{}) {
			names = append(names, name)
		}
	}
	year := 0
	if !c.Date.IsZero() {
		year = c.Date.Year()
	}

	return types.Reference{
		ID:             c.Identifier,
		Title:          c.Title,
		Authors:        c.Authors,
		Year:           year,
		Venue:          c.Venue,
		InTextCitation: inText(names, year, style, n),
		FullCitation:   fullCitation(c, names, year, style),
	}
}

func inText(names []CSLName, year int, style types.CitationStyle, n int) string {
	switch style {
	case types.StyleIEEE:
		return fmt.Sprintf("[%d]", n)
	case types.StyleNature:
		return fmt.Sprintf("^%d", n)
	case types.StyleScience:
		return fmt.Sprintf("(%d)", n)
	case types.StyleMLA:
		return "(" + authorShort(names, "and") + ")"
	case types.StyleChicago:
		return fmt.Sprintf("(%s %s)", authorShort(names, "and"), yearText(year))
	default:
		return fmt.Sprintf("(%s, %s)", authorShort(names, "&"), yearText(year))
	}
}

func fullCitation(c Candidate, names []CSLName, year int, style types.CitationStyle) string {
	var b strings.Builder
	title := strings.TrimSuffix(strings.TrimSpace(c.Title), ".")

	switch style {
	case types.StyleMLA:
		fmt.Fprintf(&b, "%s. \"%s.\"", mlaAuthors(names), title)
		if c.Venue != "" {
			fmt.Fprintf(&b, " %s,", c.Venue)
		}
		fmt.Fprintf(&b, " %s.", yearText(year))
	case types.StyleChicago:
		fmt.Fprintf(&b, "%s. %s. \"%s.\"", mlaAuthors(names), yearText(year), title)
		if c.Venue != "" {
			fmt.Fprintf(&b, " %s.", c.Venue)
		}
	case types.StyleIEEE:
		last := ", and "
		if len(names) == 2 {
			last = " and "
		}
		fmt.Fprintf(&b, "%s, \"%s,\"", joinNames(initialsFirst(names), ", ", last), title)
		if c.Venue != "" {
			fmt.Fprintf(&b, " %s,", c.Venue)
		}
		fmt.Fprintf(&b, " %s.", yearText(year))
	case types.StyleNature, types.StyleScience:
		sep := " & "
		if style == types.StyleScience {
			sep = ", "
		}
		fmt.Fprintf(&b, "%s. %s.", strings.TrimSuffix(joinNames(familyFirst(names), ", ", sep), "."), title)
		if c.Venue != "" {
			fmt.Fprintf(&b, " %s", c.Venue)
		}
		fmt.Fprintf(&b, " (%s).", yearText(year))
	default:
		fmt.Fprintf(&b, "%s (%s). %s.", joinNames(familyFirst(names), ", ", ", & "), yearText(year), title)
		if c.Venue != "" {
			fmt.Fprintf(&b, " %s.", c.Venue)
		}
	}

	if isDOI(c.Identifier) {
		fmt.Fprintf(&b, " https://doi.org/%s", c.Identifier)
	}
	return b.String()
}

func yearText(year int) string {
	if year == 0 {
		return "n.d."
	}
	return fmt.Sprintf("%d", year)
}

func family(n CSLName) string {
	if n.Family != "" {
		return n.Family
	}
	return n.Literal
}

// authorShort is the author part of an in-text citation.
func authorShort(names []CSLName, conj string) string {
	switch len(names) {
	case 0:
		return "Anon."
	case 1:
		return family(names[0])
	case 2:
		return family(names[0]) + " " + conj + " " + family(names[1])
	default:
		return family(names[0]) + " et al."
	}
}

// initials turns "Ada Mary" into "A. M.".
func initials(given string) string {
	parts := strings.Fields(given)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		r := []rune(p)
		out = append(out, string(r[0])+".")
	}
	return strings.Join(out, " ")
}

// familyFirst renders "Lovelace, A." style names.
func familyFirst(names []CSLName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if n.Literal != "" {
			out[i] = n.Literal
			continue
		}
		out[i] = n.Family + ", " + initials(n.Given)
	}
	return out
}

// initialsFirst renders "A. Lovelace" style names.
func initialsFirst(names []CSLName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if n.Literal != "" {
			out[i] = n.Literal
			continue
		}
		out[i] = initials(n.Given) + " " + n.Family
	}
	return out
}

// mlaAuthors renders the first author inverted, then "and" or "et al.".
func mlaAuthors(names []CSLName) string {
	switch len(names) {
	case 0:
		return "Anon"
	case 1:
		return invert(names[0])
	case 2:
		return invert(names[0]) + ", and " + names[1].Given + " " + names[1].Family
	default:
		return invert(names[0]) + ", et al"
	}
}

func invert(n CSLName) string {
	if n.Literal != "" {
		return n.Literal
	}
	return n.Family + ", " + n.Given
}

// joinNames joins names with sep, using last before the final name.
func joinNames(names []string, sep, last string) string {
	switch len(names) {
	case 0:
		return "Anon."
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], sep) + last + names[len(names)-1]
	}
}
