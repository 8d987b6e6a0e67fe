package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docqa/internal/rag"
)

// RemoteExtractor calls an external OCR/extraction service. The service's
// JSON response is not trusted: it must carry paragraphs as a list of
// strings and language as a string, anything else is rejected as an
// extraction failure instead of being propagated downstream.
type RemoteExtractor struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteExtractor(baseURL string, timeout time.Duration) *RemoteExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteExtractor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (e *RemoteExtractor) Extract(ctx context.Context, file io.Reader) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", file)
	if err != nil {
		return nil, fmt.Errorf("%w: build extract request: %v", rag.ErrExtraction, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: extract request: %v", rag.ErrExtraction, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read extract response: %v", rag.ErrExtraction, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: extract response status %d: %s", rag.ErrExtraction, resp.StatusCode, string(raw))
	}

	var parsed struct {
		Paragraphs []string `json:"paragraphs"`
		Language   *string  `json:"language"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed extract response: %v", rag.ErrExtraction, err)
	}
	if parsed.Paragraphs == nil || parsed.Language == nil {
		return nil, fmt.Errorf("%w: extract response missing paragraphs or language", rag.ErrExtraction)
	}

	var paragraphs []string
	for _, p := range parsed.Paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%w: no extractable text", rag.ErrExtraction)
	}
	return &Result{Paragraphs: paragraphs, Language: *parsed.Language}, nil
}
