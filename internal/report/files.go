package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/discord-day-summarizer/internal/models"
)

// Write renders the report in both formats and writes them under dir.
// It returns the markdown and HTML paths.
func Write(dir string, result models.RunResult, now time.Time) (mdPath, htmlPath string, err error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", fmt.Errorf("create output dir: %w", err)
		}
	}

	base := FilenameBase(result.Window, now)
	mdPath = filepath.Join(dir, base+".md")
	htmlPath = filepath.Join(dir, base+".html")

	var md bytes.Buffer
	if err := NewMarkdown().Format(&md, result, now); err != nil {
		return "", "", fmt.Errorf("render markdown: %w", err)
	}
	if err := os.WriteFile(mdPath, md.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown: %w", err)
	}

	var html bytes.Buffer
	if err := NewHTML().Format(&html, result, now); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	if err := os.WriteFile(htmlPath, html.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("write html: %w", err)
	}

	return mdPath, htmlPath, nil
}
