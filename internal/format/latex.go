// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-engine/pkg/types"
)

var latexTmpl = template.Must(template.New("latex").Parse(`\documentclass[11pt]{article}
\usepackage[utf8]{inputenc}
\usepackage[margin=1in]{geometry}
{{- if .Title}}
\title{ {{- .Title -}} }
{{- end}}
\date{}
{{- if .Venue}}
% Prepared for {{.Venue}}
{{- end}}
{{- if .Style}}
% Citation style: {{.Style}}
{{- end}}

\begin{document}
{{- if .Title}}
\maketitle
{{- end}}

{{.Body}}
\end{document}
`))

type latexDoc struct {
	Title string
	Venue string
	Style string
	Body  string
}

var (
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	listEntryRe  = regexp.MustCompile(`^(?:\d+\.|\[\d+\])\s+(.*)$`)
	latexEscaper = strings.NewReplacer(
		`\`, `\textbackslash{}`,
		`&`, `\&`,
		`%`, `\%`,
		`$`, `\$`,
		`#`, `\#`,
		`_`, `\_`,
		`{`, `\{`,
		`}`, `\}`,
		`~`, `\textasciitilde{}`,
		`^`, `\textasciicircum{}`,
	)
)

// ToLaTeX converts compiled Markdown to a LaTeX article. It understands the
// subset the compiler emits: headings, paragraphs, bold runs, and numbered
// reference entries.
func ToLaTeX(markdown string, target types.Target) (string, error) {
	doc := latexDoc{
		Venue: venue(target),
		Style: string(target.Style),
	}

	var body strings.Builder
	inList := false
	closeList := func() {
		if inList {
			body.WriteString("\\end{enumerate}\n\n")
			inList = false
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			if !inList {
				body.WriteString("\n")
			}
		case strings.HasPrefix(trimmed, "# "):
			closeList()
			if doc.Title == "" {
				doc.Title = escape(strings.TrimPrefix(trimmed, "# "))
				continue
			}
			fmt.Fprintf(&body, "\\section*{%s}\n", escape(strings.TrimPrefix(trimmed, "# ")))
		case strings.HasPrefix(trimmed, "### "):
			closeList()
			fmt.Fprintf(&body, "\\subsection*{%s}\n", escape(strings.TrimPrefix(trimmed, "### ")))
		case strings.HasPrefix(trimmed, "## "):
			closeList()
			fmt.Fprintf(&body, "\\section*{%s}\n", escape(strings.TrimPrefix(trimmed, "## ")))
		case listEntryRe.MatchString(trimmed):
			if !inList {
				body.WriteString("\\begin{enumerate}\n")
				inList = true
			}
			fmt.Fprintf(&body, "  \\item %s\n", inline(listEntryRe.FindStringSubmatch(trimmed)[1]))
		default:
			closeList()
			body.WriteString(inline(trimmed))
			body.WriteString("\n")
		}
	}
	closeList()
	doc.Body = collapseBlankLines(strings.TrimSpace(body.String()))

	var buf bytes.Buffer
	if err := latexTmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("rendering latex: %w", err)
	}
	return buf.String(), nil
}

func escape(s string) string {
	return latexEscaper.Replace(s)
}

// inline escapes a line and turns **bold** runs into \textbf.
func inline(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range boldRe.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(escape(s[last:m[0]]))
		fmt.Fprintf(&b, "\\textbf{%s}", escape(s[m[2]:m[3]]))
		last = m[1]
	}
	b.WriteString(escape(s[last:]))
	return b.String()
}

func venue(t types.Target) string {
	switch {
	case t.Journal != "" && t.Conference != "":
		return t.Journal + " / " + t.Conference
	case t.Journal != "":
		return t.Journal
	default:
		return t.Conference
	}
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

func collapseBlankLines(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}
