// Package extract pulls plain text out of 510(k) summary documents.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hyperjump/predicate/pkg/utils"
)

// SummaryExtensions are the document types a summary can be extracted from.
var SummaryExtensions = []string{".pdf", ".docx", ".odt", ".rtf", ".txt"}

// kNumberRe matches a 510(k) clearance number such as K252417 anywhere in a file name.
var kNumberRe = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(k\d{6})(?:[^0-9]|$)`)

// Extractor extracts plain text from summary documents.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supports reports whether ext (with leading dot, any case) is a summary document type.
func Supports(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range SummaryExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Extract reads the file at path and returns its normalized text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
// Whitespace in the result is collapsed so summaries feed straight into text similarity.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".odt", ".rtf":
		text, err = extractWithCat(content)
	case ".txt", "":
		text, err = extractPlain(content)
	default:
		return "", fmt.Errorf("unsupported summary format %q", ext)
	}
	if err != nil {
		return "", err
	}
	return utils.NormalizeText(text), nil
}

// KNumberFromPath returns the upper-cased clearance number embedded in the file name of path,
// e.g. "summaries/k252417_summary.pdf" yields "K252417".
func KNumberFromPath(path string) (string, bool) {
	m := kNumberRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
