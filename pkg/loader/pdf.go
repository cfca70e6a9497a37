package loader

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// extractPDF converts a PDF to text with pdftotext. pdftotext separates
// pages with form feeds; those become explicit `--- Page N ---` markers so
// page numbers can be recovered from position after chunking.
func (l *Loader) extractPDF(ctx context.Context, path string) (string, error) {
	out, err := l.config.Runner.Run(ctx, l.config.PDFToTextPath, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}

	pages := strings.Split(string(out), "\f")
	// pdftotext emits a trailing form feed after the last page.
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}

	var text strings.Builder
	for i, page := range pages {
		fmt.Fprintf(&text, "\n--- Page %d ---\n", i+1)
		text.WriteString(page)
	}
	return text.String(), nil
}
