// Package extract is the text-extraction boundary. Implementations turn an
// uploaded file into plain-text paragraphs; any failure here is terminal
// for the ingestion attempt.
package extract

import (
	"context"
	"io"
	"strings"
	"unicode"
)

// Result is the validated output of an extraction collaborator.
type Result struct {
	Paragraphs []string `json:"paragraphs"`
	Language   string   `json:"language"`
}

// Text joins the paragraphs back into one body for chunking.
func (r *Result) Text() string {
	return strings.Join(r.Paragraphs, "\n\n")
}

type Extractor interface {
	Extract(ctx context.Context, file io.Reader) (*Result, error)
}

// splitParagraphs breaks extracted plain text on blank lines, dropping
// empty entries.
func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// detectLanguage is a coarse script-based guess: documents dominated by
// Arabic-script runes are tagged "fa", everything else "en".
func detectLanguage(paragraphs []string) string {
	var arabic, other int
	for _, p := range paragraphs {
		for _, r := range p {
			switch {
			case unicode.Is(unicode.Arabic, r):
				arabic++
			case unicode.IsLetter(r):
				other++
			}
		}
	}
	if arabic > other {
		return "fa"
	}
	return "en"
}
