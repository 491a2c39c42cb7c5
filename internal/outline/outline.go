// Package outline turns the heading structure of a markdown document into a
// navigation tree.
//
// Headings are found line by line rather than through a full CommonMark
// parse, so a "# " line inside a fenced code block still counts as a heading.
// internal/lint reports those cases.
package outline

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docnav/internal/doctree"
)

// headingRe matches "#... Title" lines with an optional trailing
// "{#id}" or "{id=id}" annotation.
var headingRe = regexp.MustCompile(`(?m)^(#+) (.*?)(?: +\{(?:#|id=)(.*?)\})?\r?$`)

// Heading is a single heading line detected in a document.
type Heading struct {
	Level    int    // Number of leading '#' characters
	Title    string // Title text, annotation stripped
	ID       string // Fragment identifier
	Explicit bool   // ID came from an annotation
	Line     int    // 1-based line number, 0 if unknown
}

// Build scans text for headings and assembles them into a tree whose links
// are prefixed with documentID. It returns nil when text has no headings.
func Build(text, documentID string) *doctree.Node {
	return Assemble(Scan(text), documentID)
}

// Scan returns every heading line of text in document order.
func Scan(text string) []Heading {
	matches := headingRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	headings := make([]Heading, 0, len(matches))
	line, offset := 1, 0
	for _, m := range matches {
		line += strings.Count(text[offset:m[0]], "\n")
		offset = m[0]

		h := Heading{
			Level: m[3] - m[2],
			Title: text[m[4]:m[5]],
			Line:  line,
		}
		if m[6] >= 0 && m[7] > m[6] {
			h.ID = text[m[6]:m[7]]
			h.Explicit = true
		} else {
			h.ID = Slug(h.Title)
		}
		headings = append(headings, h)
	}
	return headings
}

// Assemble builds the navigation tree for headings.
//
// The tree is built with a stack of open nodes and the level of the last
// heading. A heading at the same level closes its previous sibling, a
// shallower heading closes exactly two entries no matter how many levels it
// jumps, and a deeper heading nests under the top of the stack. The first
// heading is always the returned root.
func Assemble(headings []Heading, documentID string) *doctree.Node {
	var (
		root         *doctree.Node
		stack        []*doctree.Node
		currentLevel int
	)

	for _, h := range headings {
		node := &doctree.Node{Text: h.Title, Link: documentID + "#" + h.ID}

		switch {
		case h.Level == currentLevel:
			stack = pop(stack, 1)
		case h.Level < currentLevel:
			stack = pop(stack, 2)
		}

		if len(stack) > 0 {
			stack[len(stack)-1].AddChild(node)
		}
		if root == nil {
			root = node
		}

		stack = append(stack, node)
		currentLevel = h.Level
	}
	return root
}

// pop removes up to n entries from the top of stack.
func pop(stack []*doctree.Node, n int) []*doctree.Node {
	if n > len(stack) {
		n = len(stack)
	}
	return stack[:len(stack)-n]
}
