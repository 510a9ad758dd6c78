package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	docxDefaultDocumentPath = "word/document.xml"
	docxContentTypesPath    = "[Content_Types].xml"
	docxMainContentType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// extractDOCX returns the text runs of a .docx body. Paragraphs end with a newline and
// tabs become spaces.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docPath := docxMainPart(zr)
	if docPath == "" {
		docPath = docxDefaultDocumentPath
	}
	body, err := readZipFile(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	return docxText(body)
}

// docxMainPart resolves the main document part from [Content_Types].xml, without the leading slash.
func docxMainPart(zr *zip.Reader) string {
	data, err := readZipFile(zr, docxContentTypesPath)
	if err != nil {
		return ""
	}
	var types struct {
		Overrides []struct {
			PartName    string `xml:"PartName,attr"`
			ContentType string `xml:"ContentType,attr"`
		} `xml:"Override"`
	}
	if err := xml.Unmarshal(data, &types); err != nil {
		return ""
	}
	for _, o := range types.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return ""
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}

// docxText walks the WordprocessingML tokens collecting w:t character data.
func docxText(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract DOCX: parse body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
