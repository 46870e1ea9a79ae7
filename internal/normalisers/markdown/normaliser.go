// Package markdown extracts readable text from Markdown documents.
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New()}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"md", "markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Higher than plaintext
}

// Normalise parses the markdown and keeps only text-bearing nodes.
// Markup, raw HTML and image references are dropped. Code block bodies are kept.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := []byte(strings.ToValidUTF8(string(raw.Content), ""))
	doc := n.md.Parser().Parse(text.NewReader(source))

	return &driven.NormaliseResult{
		Content: extractText(doc, source),
		Title:   extractTitle(doc, source),
	}, nil
}

// extractText walks the tree and writes text segments, one line per block.
func extractText(doc ast.Node, source []byte) string {
	var sb strings.Builder

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				sb.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Image, *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				sb.Write(line.Value(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			sb.Write(n.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			sb.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(n.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

// extractTitle returns the text of the first level-one heading, or "".
func extractTitle(doc ast.Node, source []byte) string {
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok && h.Level == 1 {
			return strings.TrimSpace(extractText(h, source))
		}
	}
	return ""
}
