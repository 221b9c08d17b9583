package builtin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"mercator-hq/toolproxy/pkg/tools"
)

func handleReadPDF(_ context.Context, p tools.Params) (any, error) {
	path, err := p.RequiredString("pdf_path")
	if err != nil {
		return nil, err
	}
	return readPDF(path)
}

// readPDF extracts plain text from every page, one newline after each.
func readPDF(path string) (text string, err error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("error reading PDF: file %s does not exist", path)
		}
		return "", fmt.Errorf("error reading PDF: %w", err)
	}

	// The parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error reading PDF: malformed document: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading PDF: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("error reading PDF page %d: %w", i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
