package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/extract"
	"docqa/internal/model"
	"docqa/internal/platform/rabbitmq"
	"docqa/internal/rag"
)

type fakeDocStore struct {
	nextID   uint
	created  []*model.Document
	statuses map[uint]string
	language map[uint]string
	deleted  []uint
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{
		statuses: make(map[uint]string),
		language: make(map[uint]string),
	}
}

func (s *fakeDocStore) Create(_ context.Context, doc *model.Document) error {
	s.nextID++
	doc.ID = s.nextID
	s.created = append(s.created, doc)
	s.statuses[doc.ID] = doc.Status
	return nil
}

func (s *fakeDocStore) GetByIDAndUserID(_ context.Context, id, userID uint) (*model.Document, error) {
	for _, doc := range s.created {
		if doc.ID == id && doc.UserID == userID {
			return doc, nil
		}
	}
	return nil, nil
}

func (s *fakeDocStore) ListByUserID(_ context.Context, userID uint) ([]model.Document, error) {
	var out []model.Document
	for _, doc := range s.created {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (s *fakeDocStore) UpdateStatus(_ context.Context, id uint, status string) error {
	s.statuses[id] = status
	return nil
}

func (s *fakeDocStore) UpdateLanguage(_ context.Context, id uint, language string) error {
	s.language[id] = language
	return nil
}

func (s *fakeDocStore) DeleteByIDAndUserID(_ context.Context, id, _ uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type fakeDeleter struct {
	deleted []uint
}

func (d *fakeDeleter) DeleteByDocumentID(_ context.Context, documentID uint) error {
	d.deleted = append(d.deleted, documentID)
	return nil
}

func (d *fakeDeleter) DeleteHistory(_ context.Context, documentID uint) error {
	d.deleted = append(d.deleted, documentID)
	return nil
}

type fakeExtractor struct {
	result *extract.Result
	err    error
}

func (e *fakeExtractor) Extract(_ context.Context, _ io.Reader) (*extract.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

type fakeQueue struct {
	jobs []rabbitmq.IngestJob
	err  error
}

func (q *fakeQueue) Publish(_ context.Context, job rabbitmq.IngestJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newDocumentServiceForTest(store *fakeDocStore, extractor *fakeExtractor, queue *fakeQueue) *DocumentService {
	return NewDocumentService(store, &fakeDeleter{}, &fakeDeleter{}, &fakeDeleter{}, extractor, queue)
}

func TestUpload_QueuesIngestJob(t *testing.T) {
	store := newFakeDocStore()
	queue := &fakeQueue{}
	extractor := &fakeExtractor{result: &extract.Result{
		Paragraphs: []string{"first clause", "second clause"},
		Language:   "en",
	}}
	svc := newDocumentServiceForTest(store, extractor, queue)

	doc, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Name:   "contract",
		File:   strings.NewReader("%PDF"),
	})

	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusUploaded, store.statuses[doc.ID])
	assert.Equal(t, "en", store.language[doc.ID])
	assert.Equal(t, "en", doc.Language)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, doc.ID, queue.jobs[0].DocumentID)
	assert.Equal(t, "first clause\n\nsecond clause", queue.jobs[0].Text)
}

func TestUpload_ExtractionFailureMarksDocumentFailed(t *testing.T) {
	store := newFakeDocStore()
	queue := &fakeQueue{}
	extractor := &fakeExtractor{err: fmt.Errorf("%w: no extractable text", rag.ErrExtraction)}
	svc := newDocumentServiceForTest(store, extractor, queue)

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Name:   "scan",
		File:   strings.NewReader("%PDF"),
	})

	require.ErrorIs(t, err, rag.ErrExtraction)
	// The row is created before extraction, so the failure is visible as
	// a failed document instead of vanishing without trace.
	require.Len(t, store.created, 1)
	assert.Equal(t, model.DocumentStatusFailed, store.statuses[store.created[0].ID])
	assert.Empty(t, queue.jobs)
}

func TestUpload_PublishFailureMarksDocumentFailed(t *testing.T) {
	store := newFakeDocStore()
	queue := &fakeQueue{err: errors.New("broker unreachable")}
	extractor := &fakeExtractor{result: &extract.Result{
		Paragraphs: []string{"some text"},
		Language:   "en",
	}}
	svc := newDocumentServiceForTest(store, extractor, queue)

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Name:   "contract",
		File:   strings.NewReader("%PDF"),
	})

	require.Error(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, model.DocumentStatusFailed, store.statuses[store.created[0].ID])
}

func TestDelete_CascadesChunksExchangesAndCache(t *testing.T) {
	store := newFakeDocStore()
	chunks := &fakeDeleter{}
	exchanges := &fakeDeleter{}
	history := &fakeDeleter{}
	svc := NewDocumentService(store, chunks, exchanges, history, &fakeExtractor{}, &fakeQueue{})

	doc := &model.Document{UserID: 7, Name: "contract", Status: model.DocumentStatusReady}
	require.NoError(t, store.Create(context.Background(), doc))

	require.NoError(t, svc.Delete(context.Background(), 7, doc.ID))

	assert.Equal(t, []uint{doc.ID}, chunks.deleted)
	assert.Equal(t, []uint{doc.ID}, exchanges.deleted)
	assert.Equal(t, []uint{doc.ID}, history.deleted)
	assert.Equal(t, []uint{doc.ID}, store.deleted)
}

func TestGet_NotFoundForOtherUser(t *testing.T) {
	store := newFakeDocStore()
	svc := newDocumentServiceForTest(store, &fakeExtractor{}, &fakeQueue{})

	doc := &model.Document{UserID: 7, Name: "contract"}
	require.NoError(t, store.Create(context.Background(), doc))

	_, err := svc.Get(context.Background(), 8, doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
