package tui

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

//nolint:gochecknoglobals // cached renderer for performance
var (
	glamourRenderer     *glamour.TermRenderer
	glamourRendererOnce sync.Once
)

// markdownWrap is the word-wrap column for rendered markdown.
const markdownWrap = 100

// getGlamourRenderer returns a cached glamour renderer.
// The renderer is initialized once and reused across all calls.
func getGlamourRenderer() *glamour.TermRenderer {
	glamourRendererOnce.Do(func() {
		style := glamour.WithAutoStyle()
		if !HasColorSupport() {
			style = glamour.WithStandardStyle("notty")
		}
		r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(markdownWrap))
		if err == nil {
			glamourRenderer = r
		}
	})
	return glamourRenderer
}

// RenderMarkdown renders markdown for the terminal. The source is returned
// unchanged when rendering is unavailable.
func RenderMarkdown(md string) string {
	r := getGlamourRenderer()
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
