package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrNoPDFContent = errors.New("no text content found in pdf")
	ErrInvalidPDF   = errors.New("invalid pdf file")
)

// MaxPDFBytes bounds uploads read into memory.
const MaxPDFBytes = 32 << 20

// PDFResult is the text of a PDF, pages separated by a blank line.
type PDFResult struct {
	Text           string `json:"text"`
	TotalPages     int    `json:"total_pages"`
	ExtractedPages int    `json:"extracted_pages"`
}

// ExtractPDF reads an uploaded PDF and returns the plain text of every page
// that has any. Pages that fail to decode are skipped.
func ExtractPDF(r io.Reader) (result *PDFResult, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, fmt.Errorf("%w: %v", ErrInvalidPDF, rec)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(r, MaxPDFBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if len(data) > MaxPDFBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidPDF, MaxPDFBytes)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidPDF)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}

	result = &PDFResult{TotalPages: reader.NumPage()}
	pages := make([]string, 0, result.TotalPages)
	// pages are 1-indexed
	for i := 1; i <= result.TotalPages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	result.ExtractedPages = len(pages)
	result.Text = strings.Join(pages, "\n\n")
	if result.Text == "" {
		return result, ErrNoPDFContent
	}
	return result, nil
}
