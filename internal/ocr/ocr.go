// Package ocr turns uploaded receipt documents into plain text.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/kvittering/internal/common"
	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedDocument is returned for documents no extractor can read.
var ErrUnsupportedDocument = errors.New("unsupported document")

const defaultMaxTextBytes = 1 << 20

var pdfMagic = []byte("%PDF-")

// TextExtractor returns the plain text of a document.
type TextExtractor interface {
	ExtractText(ctx context.Context, blob []byte) (string, error)
}

// PlainTextExtractor passes UTF-8 text through.
type PlainTextExtractor struct{}

// ExtractText implements TextExtractor.
func (PlainTextExtractor) ExtractText(_ context.Context, blob []byte) (string, error) {
	blob = bytes.TrimPrefix(blob, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(blob) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupportedDocument)
	}

	text := strings.TrimSpace(string(blob))
	if text == "" {
		return "", common.ErrEmptyText
	}
	return text, nil
}

// PDFExtractor reads the text layer of a PDF receipt. Scanned PDFs without a
// text layer are reported as unsupported.
type PDFExtractor struct {
	MaxTextBytes int
}

// ExtractText implements TextExtractor.
func (e PDFExtractor) ExtractText(ctx context.Context, blob []byte) (text string, err error) {
	if len(blob) == 0 {
		return "", common.ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	limit := e.MaxTextBytes
	if limit <= 0 {
		limit = defaultMaxTextBytes
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: panic while reading PDF: %v", ErrUnsupportedDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return "", fmt.Errorf("%w: open PDF: %w", ErrUnsupportedDocument, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract PDF text: %w", ErrUnsupportedDocument, err)
	}

	data, err := io.ReadAll(io.LimitReader(plain, int64(limit)))
	if err != nil {
		return "", fmt.Errorf("read PDF text: %w", err)
	}

	text = strings.Join(strings.Fields(string(data)), " ")
	if text == "" {
		return "", fmt.Errorf("%w: PDF has no text layer (%d pages)", ErrUnsupportedDocument, reader.NumPage())
	}
	return text, nil
}

// Sniffer picks an extractor from the document content.
type Sniffer struct{}

// ExtractText implements TextExtractor.
func (Sniffer) ExtractText(ctx context.Context, blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", common.ErrEmptyText
	}
	if bytes.HasPrefix(blob, pdfMagic) {
		return PDFExtractor{}.ExtractText(ctx, blob)
	}
	return PlainTextExtractor{}.ExtractText(ctx, blob)
}

// ForFile returns the extractor for a file name based on its extension.
func ForFile(name string) (TextExtractor, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".txt", ".text", "":
		return PlainTextExtractor{}, nil
	case ".pdf":
		return PDFExtractor{}, nil
	case ".png", ".jpg", ".jpeg", ".gif", ".heic", ".tif", ".tiff", ".webp":
		return nil, fmt.Errorf("%w: image %s needs an OCR service", ErrUnsupportedDocument, filepath.Base(name))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, ext)
	}
}
