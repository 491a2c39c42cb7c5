package parser

import (
	"io"

	"github.com/dgallion1/docnav/internal/doctree"
	"github.com/dgallion1/docnav/internal/outline"
)

// MarkdownParser handles Markdown files using the line-based heading scanner.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, documentID string) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return outline.Build(string(src), documentID), nil
}
