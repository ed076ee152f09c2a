package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
)

// FromPDF extracts page text from a PDF in physical page order. Pages
// that fail to decode are logged and skipped; only a document with no
// extractable text at all is reported as empty.
func FromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			log.Warn("pdf page %d: %v", i, err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", graphrag.ErrEmptyDocument
	}
	return sb.String(), nil
}

// pageText wraps GetPlainText, converting the panics the pdf library
// raises on malformed content streams into errors.
func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text extraction panicked: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}
