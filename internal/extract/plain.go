package extract

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// extractPlain decodes a plain-text summary. A UTF-8 or UTF-16 byte order mark selects the
// encoding and is dropped; without one the content is read as UTF-8. Invalid sequences
// become U+FFFD.
func extractPlain(content []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), content)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return strings.ToValidUTF8(string(decoded), "\ufffd"), nil
}
