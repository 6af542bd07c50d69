package narrative

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// RenderHTML converts a narrative summary (plain text or light Markdown, as
// Gemini occasionally emits bold/italic emphasis) to HTML for the UI,
// mirroring the teacher's pkg/core/utils.ValidateMarkdown use of goldmark.
func RenderHTML(summary string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(summary), &buf); err != nil {
		return "", fmt.Errorf("narrative: render markdown: %w", err)
	}
	return buf.String(), nil
}
