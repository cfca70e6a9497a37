package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/pkg/logx"
)

// LoaderConfig configures the document loader.
type LoaderConfig struct {
	// PDFToTextPath is the pdftotext binary used for PDF extraction.
	PDFToTextPath string
	// Runner executes external commands; swapped out in tests.
	Runner CommandRunner
	// Now stamps processed_date metadata; defaults to time.Now.
	Now func() time.Time
}

// Loader extracts plain-text Documents from files in a directory.
// Per-file extraction failures are logged and skipped; they never abort
// the rest of the batch.
type Loader struct {
	config LoaderConfig
}

func NewWithConfig(config LoaderConfig) *Loader {
	if config.PDFToTextPath == "" {
		config.PDFToTextPath = "pdftotext"
	}
	if config.Runner == nil {
		config.Runner = execRunner{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Loader{config: config}
}

func New() *Loader {
	return NewWithConfig(LoaderConfig{})
}

// Load reads every file with a recognized extension under dir and returns
// one Document per successfully extracted file, in filename order.
// An empty result is a valid outcome, not an error.
func (l *Loader) Load(ctx context.Context, dir string) ([]models.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var documents []models.Document
	for _, name := range names {
		path := filepath.Join(dir, name)

		var content, fileType string
		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf":
			fileType = "pdf"
			content, err = l.extractPDF(ctx, path)
		case ".docx":
			fileType = "docx"
			content, err = extractDOCX(path)
		case ".txt":
			fileType = "txt"
			content, err = extractTXT(path)
		case ".html", ".htm":
			fileType = "html"
			content, err = extractHTML(path)
		default:
			// Unsupported extensions are silently skipped.
			continue
		}

		if err != nil {
			logx.Error().Err(err).Str("file", path).Msg("failed to extract document")
			continue
		}
		if strings.TrimSpace(content) == "" {
			logx.Error().Str("file", path).Msg("extraction produced no text")
			continue
		}

		documents = append(documents, models.Document{
			Content: sanitizeUTF8(content),
			Metadata: map[string]string{
				models.MetaSource:        name,
				models.MetaFileType:      fileType,
				models.MetaProcessedDate: l.config.Now().Format(time.RFC3339),
			},
		})
	}

	return documents, nil
}

func extractTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sanitizeUTF8 drops invalid byte sequences so content can be stored as JSONB.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
