// Package extract turns uploaded document bytes into cleaned plain text.
//
// Extraction is tolerant at the page level: a single unreadable PDF page
// is logged and skipped, never failing the document. A document whose
// pages yield no text at all reports graphrag.ErrEmptyDocument so the
// ingestion pipeline can skip it instead of marking it failed.
package extract

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/smallnest/graphrag"
)

var (
	// word character, hyphen, line break, word character: a word split by
	// end-of-line hyphenation in the source layout.
	hyphenBreak   = regexp.MustCompile(`(\w)-\r?\n(\w)`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ByExtension extracts plain text from data, picking the parser from the
// filename extension. Unknown extensions are treated as plain text.
func ByExtension(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FromPDF(data)
	case ".md", ".markdown":
		return FromMarkdown(data)
	case ".html", ".htm":
		return FromHTML(data)
	default:
		return FromText(data)
	}
}

// FromText passes plain text through, only checking for emptiness.
func FromText(data []byte) (string, error) {
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", graphrag.ErrEmptyDocument
	}
	return text, nil
}

// Clean normalizes extracted text for chunking: rejoins words broken by
// end-of-line hyphenation, flattens newlines to spaces, collapses
// whitespace runs and trims the result.
func Clean(s string) string {
	s = hyphenBreak.ReplaceAllString(s, "$1$2")
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
