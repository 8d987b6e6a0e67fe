package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/rag"
)

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("first paragraph\n\n  \n\nsecond paragraph\n\n")
	assert.Equal(t, []string{"first paragraph", "second paragraph"}, got)
}

func TestSplitParagraphs_NoBlankLines(t *testing.T) {
	got := splitParagraphs("one body of text\nwith a single line break")
	require.Len(t, got, 1)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "en", detectLanguage([]string{"terms and conditions"}))
	assert.Equal(t, "fa", detectLanguage([]string{"شرایط و ضوابط قرارداد"}))
	// Mixed content follows the majority script.
	assert.Equal(t, "en", detectLanguage([]string{"the word قرارداد appears once in this sentence"}))
}

func remoteServer(t *testing.T, status int, body string) *RemoteExtractor {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/extract", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewRemoteExtractor(srv.URL, 5*time.Second)
}

func TestRemoteExtractor_ValidResponse(t *testing.T) {
	e := remoteServer(t, http.StatusOK, `{"paragraphs":["clause one","clause two"],"language":"en"}`)

	result, err := e.Extract(context.Background(), strings.NewReader("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, []string{"clause one", "clause two"}, result.Paragraphs)
	assert.Equal(t, "en", result.Language)
	assert.Equal(t, "clause one\n\nclause two", result.Text())
}

func TestRemoteExtractor_MissingLanguageRejected(t *testing.T) {
	e := remoteServer(t, http.StatusOK, `{"paragraphs":["clause one"]}`)

	_, err := e.Extract(context.Background(), strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, rag.ErrExtraction)
}

func TestRemoteExtractor_WrongParagraphTypeRejected(t *testing.T) {
	e := remoteServer(t, http.StatusOK, `{"paragraphs":"not a list","language":"en"}`)

	_, err := e.Extract(context.Background(), strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, rag.ErrExtraction)
}

func TestRemoteExtractor_BlankParagraphsRejected(t *testing.T) {
	e := remoteServer(t, http.StatusOK, `{"paragraphs":["  ",""],"language":"en"}`)

	_, err := e.Extract(context.Background(), strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, rag.ErrExtraction)
}

func TestRemoteExtractor_ErrorStatus(t *testing.T) {
	e := remoteServer(t, http.StatusBadGateway, `upstream down`)

	_, err := e.Extract(context.Background(), strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, rag.ErrExtraction)
}

func TestPDFExtractor_EmptyFile(t *testing.T) {
	e := NewPDFExtractor()

	_, err := e.Extract(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, rag.ErrExtraction)
}
