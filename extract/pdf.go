package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ParsePDF extracts plain text from PDF bytes without any network
// involvement.
func ParsePDF(data []byte, title string) (Result, error) {
	if err := ValidatePDF(data); err != nil {
		return Result{}, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("opening pdf: %w", err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("extracting pdf text: %w", err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, content); err != nil {
		return Result{}, err
	}

	text := normalizeSpace(b.String())
	if text == "" {
		return Result{}, ErrEmptyContent
	}
	return Result{Content: text, Title: title}, nil
}

// ReadPDF extracts plain text from a PDF on disk. The title falls back
// to the file name.
func ReadPDF(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParsePDF(data, title)
}
