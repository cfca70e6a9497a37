package loader

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTML strips markup and returns the visible text of an HTML file.
func extractHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()

	var text string
	if body := doc.Find("body"); body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}

	// Collapse runs of blank lines left behind by removed markup.
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}
