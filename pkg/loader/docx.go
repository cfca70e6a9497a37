package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX pulls paragraph text out of word/document.xml. A DOCX file
// is a ZIP archive; anything that does not open as one is a corrupt file.
func extractDOCX(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("not a valid docx archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		return parseDocumentXML(data)
	}

	return "", fmt.Errorf("word/document.xml not found in archive")
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Texts []string `xml:"t"`
}

func parseDocumentXML(data []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("malformed document.xml: %w", err)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				line.WriteString(t)
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n"), nil
}
