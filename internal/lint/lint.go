// Package lint cross-checks the line-based heading scanner against a
// CommonMark parse of the same document.
package lint

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/docnav/internal/outline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Severity of a finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rule names.
const (
	RulePhantomHeading = "phantom-heading"
	RuleMissingHeading = "missing-heading"
	RuleDuplicateID    = "duplicate-id"
	RuleEmptyID        = "empty-id"
)

// Finding is one problem found in a document.
type Finding struct {
	Rule     string   `json:"rule" yaml:"rule"`
	Severity Severity `json:"severity" yaml:"severity"`
	Line     int      `json:"line" yaml:"line"`
	Message  string   `json:"message" yaml:"message"`
}

// Report collects the findings for a single document.
type Report struct {
	DocumentID string    `json:"document_id" yaml:"document_id"`
	Findings   []Finding `json:"findings" yaml:"findings"`
}

// HasErrors reports whether any finding has error severity.
func (r Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

var md = goldmark.New(goldmark.WithParserOptions(gmparser.WithAttribute()))

// Check lints the markdown source of one document.
func Check(src []byte, documentID string) Report {
	report := Report{DocumentID: documentID, Findings: []Finding{}}

	scanned := outline.Scan(string(src))
	scannedLines := make(map[int]outline.Heading, len(scanned))
	for _, h := range scanned {
		scannedLines[h.Line] = h
	}

	commonmark := commonMarkHeadings(src)

	for _, h := range scanned {
		// Empty ATX headings carry no text lines in the AST, so they can't be
		// matched by line; empty-id below reports them.
		if strings.TrimSpace(h.Title) == "" {
			continue
		}
		if _, ok := commonmark[h.Line]; !ok {
			report.Findings = append(report.Findings, Finding{
				Rule:     RulePhantomHeading,
				Severity: SeverityError,
				Line:     h.Line,
				Message:  fmt.Sprintf("%q is not a heading in rendered output (code block or HTML?)", h.Title),
			})
		}
	}

	for line, atx := range commonmark {
		if _, ok := scannedLines[line]; ok {
			continue
		}
		msg := "heading is not picked up for navigation; put a single space after '#' at the start of the line"
		if !atx {
			msg = "setext heading is not picked up for navigation; use '#' syntax"
		}
		report.Findings = append(report.Findings, Finding{
			Rule:     RuleMissingHeading,
			Severity: SeverityWarning,
			Line:     line,
			Message:  msg,
		})
	}

	firstByID := make(map[string]int)
	for _, h := range scanned {
		if h.ID == "" {
			report.Findings = append(report.Findings, Finding{
				Rule:     RuleEmptyID,
				Severity: SeverityError,
				Line:     h.Line,
				Message:  fmt.Sprintf("%q has no usable anchor; add an explicit {#id}", h.Title),
			})
			continue
		}
		if first, ok := firstByID[h.ID]; ok {
			report.Findings = append(report.Findings, Finding{
				Rule:     RuleDuplicateID,
				Severity: SeverityError,
				Line:     h.Line,
				Message:  fmt.Sprintf("anchor #%s already used on line %d", h.ID, first),
			})
			continue
		}
		firstByID[h.ID] = h.Line
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		return report.Findings[i].Line < report.Findings[j].Line
	})
	return report
}

// commonMarkHeadings maps the 1-based line of each CommonMark heading to
// whether it uses ATX ('#') syntax.
func commonMarkHeadings(src []byte) map[int]bool {
	doc := md.Parser().Parse(text.NewReader(src))

	headings := make(map[int]bool)
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		start := heading.Lines().At(0).Start
		lineStart := bytes.LastIndexByte(src[:start], '\n') + 1
		line := bytes.Count(src[:start], []byte("\n")) + 1
		headings[line] = bytes.HasPrefix(bytes.TrimLeft(src[lineStart:start], " "), []byte("#"))
		return ast.WalkSkipChildren, nil
	})
	return headings
}
