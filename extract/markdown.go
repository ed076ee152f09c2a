package extract

import (
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/graphrag"
)

// FromMarkdown converts markdown to plain text by rendering it to HTML
// and stripping every tag.
func FromMarkdown(data []byte) (string, error) {
	rendered := markdown.ToHTML(data, nil, nil)
	stripped := bluemonday.StrictPolicy().SanitizeBytes(rendered)
	text := html.UnescapeString(string(stripped))
	if strings.TrimSpace(text) == "" {
		return "", graphrag.ErrEmptyDocument
	}
	return text, nil
}
