package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var pathInHintRegex = regexp.MustCompile("`([^`\n]+)`")

// CodeBlock represents a parsed code block from markdown content.
type CodeBlock struct {
	// Hint is the content of the paragraph immediately preceding the code block.
	Hint string
	// Lang is the language identifier of the code block (e.g., "go", "diff").
	Lang string
	// Content is the raw text inside the code block.
	Content string
}

// ExtractCodeBlocks uses a markdown AST to find all fenced code blocks
// and their preceding paragraph, which is treated as a hint.
func ExtractCodeBlocks(source []byte) ([]CodeBlock, error) {
	var blocks []CodeBlock
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var block CodeBlock
		block.Lang = string(fenced.Language(source))

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		block.Content = content.String()

		if prev := fenced.PreviousSibling(); prev != nil {
			if p, ok := prev.(*ast.Paragraph); ok {
				block.Hint = strings.TrimSpace(string(paragraphText(p, source)))
			}
		}

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}
	return blocks, nil
}

func paragraphText(p *ast.Paragraph, source []byte) []byte {
	var b bytes.Buffer
	lines := p.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return b.Bytes()
}

// ParseCodeBlocks is the fallback for replies that ignore the directive format:
// a fenced block whose preceding paragraph names a path in backticks becomes an
// update for that path. Diff blocks are ignored. Later blocks win.
func ParseCodeBlocks(reply string) (map[string]string, error) {
	blocks, err := ExtractCodeBlocks([]byte(reply))
	if err != nil {
		return map[string]string{}, err
	}

	updates := make(map[string]string)
	for _, block := range blocks {
		if block.Lang == "diff" {
			continue
		}
		path := extractPathFromHint(block.Hint)
		if path == "" {
			continue
		}
		updates[path] = strings.TrimRight(block.Content, "\n")
	}
	return updates, nil
}

func extractPathFromHint(hint string) string {
	// Only the last line of the hint paragraph can name the file.
	if i := strings.LastIndex(hint, "\n"); i >= 0 {
		hint = hint[i+1:]
	}
	matches := pathInHintRegex.FindAllStringSubmatch(hint, -1)
	if len(matches) == 0 {
		return ""
	}
	path := strings.TrimSpace(matches[len(matches)-1][1])
	// Disallow spaces to avoid capturing commands like `go run main.go` as a path.
	if path == "" || strings.Contains(path, " ") {
		return ""
	}
	return path
}
