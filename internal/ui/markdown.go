package ui

import (
	"github.com/charmbracelet/glamour"
)

const defaultWrap = 100

// RenderMarkdown renders a reply for the terminal. If the renderer cannot be built
// or fails, the text is returned unchanged.
func RenderMarkdown(text string, width int) string {
	if width <= 0 {
		width = defaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}
