package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/smallnest/graphrag"
)

// FromHTML extracts the visible text of an HTML document, dropping
// script and style contents.
func FromHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	if strings.TrimSpace(text) == "" {
		return "", graphrag.ErrEmptyDocument
	}
	return text, nil
}
