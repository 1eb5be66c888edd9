// Package extract turns article URLs, PDF files, and markdown into
// plain text ready to be read aloud.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// MaxPDFBytes is the largest PDF accepted for extraction. Oversized
// files are rejected before any bytes leave the machine.
const MaxPDFBytes = 10 << 20

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrNotPDF       = errors.New("not a PDF file")
	ErrEmptyContent = errors.New("no readable content")
)

var pdfMagic = []byte("%PDF-")

// Result is the readable content pulled from a source.
type Result struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

// ValidatePDF checks size and file type locally, before upload or
// parsing.
func ValidatePDF(data []byte) error {
	if len(data) > MaxPDFBytes {
		return fmt.Errorf("%w: %s (max %s)",
			ErrFileTooLarge, humanize.IBytes(uint64(len(data))), humanize.IBytes(MaxPDFBytes))
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return ErrNotPDF
	}
	return nil
}

// normalizeSpace collapses all whitespace runs to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
