package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageFurnitureRe matches running page markers such as "Page 3 of 12" that FDA summary PDFs
// repeat on every page.
var pageFurnitureRe = regexp.MustCompile(`(?i)^(page\s+\d+(\s+of\s+\d+)?|\d+\s+of\s+\d+)$`)

func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		if text = stripPageFurniture(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// stripPageFurniture drops blank lines and page markers from one page of text.
func stripPageFurniture(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || pageFurnitureRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
