package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"docqa/internal/rag"
)

// PDFExtractor extracts text locally from PDF bytes.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Extract(_ context.Context, file io.Reader) (*Result, error) {
	b, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", rag.ErrExtraction, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty file", rag.ErrExtraction)
	}

	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", rag.ErrExtraction, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pdf text: %v", rag.ErrExtraction, err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf text: %v", rag.ErrExtraction, err)
	}

	paragraphs := splitParagraphs(string(out))
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%w: no extractable text", rag.ErrExtraction)
	}
	return &Result{Paragraphs: paragraphs, Language: detectLanguage(paragraphs)}, nil
}
