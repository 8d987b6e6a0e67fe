package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"docqa/internal/cache"
	"docqa/internal/model"
	"docqa/internal/rag"
	"docqa/internal/repository"
)

const referenceSnippetRunes = 80

var (
	ErrDocumentNotReady = errors.New("document is not ready for questions")
)

// QAService answers questions against a single ready document: it
// rewrites follow-ups into standalone questions, retrieves supporting
// chunks and generates an answer grounded only in those chunks.
type QAService struct {
	docRepo        *repository.DocumentRepository
	exchangeRepo   *repository.ExchangeRepository
	historyCache   *cache.HistoryCache
	contextualizer *rag.Contextualizer
	retriever      *rag.Retriever
	generator      rag.Generator
	historyLimit   int
}

func NewQAService(
	docRepo *repository.DocumentRepository,
	exchangeRepo *repository.ExchangeRepository,
	historyCache *cache.HistoryCache,
	contextualizer *rag.Contextualizer,
	retriever *rag.Retriever,
	generator rag.Generator,
	historyLimit int,
) *QAService {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &QAService{
		docRepo:        docRepo,
		exchangeRepo:   exchangeRepo,
		historyCache:   historyCache,
		contextualizer: contextualizer,
		retriever:      retriever,
		generator:      generator,
		historyLimit:   historyLimit,
	}
}

type AskInput struct {
	UserID     uint
	DocumentID uint
	Question   string
}

type AskResult struct {
	Answer     string   `json:"answer"`
	References []string `json:"references"`
}

func (s *QAService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if input.UserID == 0 || input.DocumentID == 0 {
		return nil, ErrInvalidInput
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	doc, err := s.docRepo.GetByIDAndUserID(ctx, input.DocumentID, input.UserID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.Status != model.DocumentStatusReady {
		return nil, ErrDocumentNotReady
	}

	history := s.loadHistory(ctx, doc.ID)
	searchQuestion := s.contextualizer.Contextualize(ctx, question, historyTurns(history))

	chunks, err := s.retriever.Retrieve(ctx, doc.ID, searchQuestion)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, rag.ErrNoChunks
	}

	answer, err := s.generator.Generate(ctx, answerPrompt(question, chunks))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrGeneration, err)
	}

	references := referenceSnippets(chunks)
	exchange := &model.Exchange{
		DocumentID: doc.ID,
		UserID:     input.UserID,
		Question:   question,
		Answer:     answer,
	}
	exchange.SetReferences(references)
	if err := s.exchangeRepo.Create(ctx, exchange); err != nil {
		// The answer is already generated; losing one history entry is
		// better than failing the request.
		log.Printf("persist exchange for document %d failed: %v", doc.ID, err)
	} else if err := s.historyCache.DeleteHistory(ctx, doc.ID); err != nil {
		log.Printf("invalidate history cache for document %d failed: %v", doc.ID, err)
	}

	return &AskResult{Answer: answer, References: references}, nil
}

// GetHistory returns the recent exchanges for a document the user owns,
// oldest first.
func (s *QAService) GetHistory(ctx context.Context, userID, documentID uint) ([]model.Exchange, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return s.loadHistory(ctx, doc.ID), nil
}

// loadHistory is cache-aside over Redis: a cache miss falls back to
// MySQL and repopulates the cache. Cache failures degrade to the
// database instead of failing the request.
func (s *QAService) loadHistory(ctx context.Context, documentID uint) []model.Exchange {
	cached, hit, err := s.historyCache.GetHistory(ctx, documentID)
	if err != nil {
		log.Printf("read history cache for document %d failed: %v", documentID, err)
	}
	if hit {
		return cached
	}

	exchanges, err := s.exchangeRepo.ListByDocumentID(ctx, documentID, s.historyLimit)
	if err != nil {
		log.Printf("load history for document %d failed: %v", documentID, err)
		return nil
	}
	if err := s.historyCache.SetHistory(ctx, documentID, exchanges); err != nil {
		log.Printf("write history cache for document %d failed: %v", documentID, err)
	}
	return exchanges
}

func historyTurns(exchanges []model.Exchange) []rag.Turn {
	turns := make([]rag.Turn, 0, len(exchanges)*2)
	for _, e := range exchanges {
		turns = append(turns,
			rag.Turn{Role: "user", Content: e.Question},
			rag.Turn{Role: "assistant", Content: e.Answer},
		)
	}
	return turns
}

func answerPrompt(question string, chunks []rag.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant. Answer the user's question based only on the following context from their document. If the context does not contain enough information to answer, say so. Do not make up facts.\n\nContext:\n")
	for _, c := range chunks {
		sb.WriteString("---\n")
		sb.WriteString(c.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("---\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

// referenceSnippets returns a short prefix of each supporting chunk so
// clients can show where the answer came from without shipping whole
// chunks back.
func referenceSnippets(chunks []rag.ScoredChunk) []string {
	refs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		runes := []rune(strings.TrimSpace(c.Content))
		if len(runes) > referenceSnippetRunes {
			refs = append(refs, string(runes[:referenceSnippetRunes])+"...")
			continue
		}
		refs = append(refs, string(runes))
	}
	return refs
}
