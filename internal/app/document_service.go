package app

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"docqa/internal/extract"
	"docqa/internal/model"
	"docqa/internal/platform/rabbitmq"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
)

// Collaborator ports for the document lifecycle, satisfied by the
// repository, cache and rabbitmq types.
type documentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Document, error)
	ListByUserID(ctx context.Context, userID uint) ([]model.Document, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdateLanguage(ctx context.Context, id uint, language string) error
	DeleteByIDAndUserID(ctx context.Context, id, userID uint) error
}

type chunkDeleter interface {
	DeleteByDocumentID(ctx context.Context, documentID uint) error
}

type exchangeDeleter interface {
	DeleteByDocumentID(ctx context.Context, documentID uint) error
}

type historyInvalidator interface {
	DeleteHistory(ctx context.Context, documentID uint) error
}

type ingestQueue interface {
	Publish(ctx context.Context, job rabbitmq.IngestJob) error
}

// DocumentService owns the document lifecycle: upload and extraction on
// the request path, then a queued ingest job picked up by the worker.
type DocumentService struct {
	docs      documentStore
	chunks    chunkDeleter
	exchanges exchangeDeleter
	history   historyInvalidator
	extractor extract.Extractor
	queue     ingestQueue
}

func NewDocumentService(
	docs documentStore,
	chunks chunkDeleter,
	exchanges exchangeDeleter,
	history historyInvalidator,
	extractor extract.Extractor,
	queue ingestQueue,
) *DocumentService {
	return &DocumentService{
		docs:      docs,
		chunks:    chunks,
		exchanges: exchanges,
		history:   history,
		extractor: extractor,
		queue:     queue,
	}
}

type UploadInput struct {
	UserID uint
	Name   string
	File   io.Reader
}

// Upload records the document first, then extracts text and queues an
// ingest job. The row exists before extraction so a failed extraction
// leaves a document in status failed rather than no trace at all.
// Chunking and embedding happen in the worker, so a successful upload
// returns before the document is ready.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	if input.UserID == 0 || input.File == nil {
		return nil, ErrInvalidInput
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	doc := &model.Document{
		UserID: input.UserID,
		Name:   name,
		Status: model.DocumentStatusUploaded,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(ctx, input.File)
	if err != nil {
		s.markFailed(ctx, doc)
		return nil, err
	}
	doc.Language = result.Language
	if err := s.docs.UpdateLanguage(ctx, doc.ID, result.Language); err != nil {
		log.Printf("record language for document %d failed: %v", doc.ID, err)
	}

	job := rabbitmq.IngestJob{DocumentID: doc.ID, Text: result.Text()}
	if err := s.queue.Publish(ctx, job); err != nil {
		// The document exists but will never be ingested. Mark it failed
		// so the client is not left polling an uploaded status forever.
		s.markFailed(ctx, doc)
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) markFailed(ctx context.Context, doc *model.Document) {
	doc.Status = model.DocumentStatusFailed
	if err := s.docs.UpdateStatus(ctx, doc.ID, model.DocumentStatusFailed); err != nil {
		log.Printf("mark document %d failed: %v", doc.ID, err)
	}
}

func (s *DocumentService) List(ctx context.Context, userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByUserID(ctx, userID)
}

func (s *DocumentService) Get(ctx context.Context, userID, documentID uint) (*model.Document, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndUserID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Delete removes the document together with its chunks, exchanges and
// cached history.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID uint) error {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.chunks.DeleteByDocumentID(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.exchanges.DeleteByDocumentID(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.history.DeleteHistory(ctx, doc.ID); err != nil {
		log.Printf("delete cached history for document %d failed: %v", doc.ID, err)
	}
	return s.docs.DeleteByIDAndUserID(ctx, doc.ID, userID)
}
