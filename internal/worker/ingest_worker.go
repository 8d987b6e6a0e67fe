package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docqa/internal/model"
	"docqa/internal/platform/rabbitmq"
	"docqa/internal/rag"
	"docqa/internal/repository"
)

// IngestWorker consumes ingest jobs and runs the chunk/embed/store
// pipeline. It owns the document status transitions: a document enters
// ingesting when its job is picked up and leaves as ready or failed.
type IngestWorker struct {
	conn      *amqp.Connection
	docRepo   *repository.DocumentRepository
	pipeline  *rag.Pipeline
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestWorker(conn *amqp.Connection, docRepo *repository.DocumentRepository, pipeline *rag.Pipeline, queueName string) *IngestWorker {
	return &IngestWorker{
		conn:      conn,
		docRepo:   docRepo,
		pipeline:  pipeline,
		queueName: queueName,
	}
}

func (w *IngestWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job rabbitmq.IngestJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("worker decode ingest job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				w.process(workerCtx, job)
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *IngestWorker) process(ctx context.Context, job rabbitmq.IngestJob) {
	if err := w.docRepo.UpdateStatus(ctx, job.DocumentID, model.DocumentStatusIngesting); err != nil {
		log.Printf("worker mark document %d ingesting failed: %v", job.DocumentID, err)
	}

	stored, err := w.pipeline.Ingest(ctx, job.DocumentID, job.Text)
	if err != nil {
		log.Printf("worker ingest document %d failed: %v", job.DocumentID, err)
	}

	status := model.DocumentStatusReady
	if stored == 0 {
		status = model.DocumentStatusFailed
	}
	if err := w.docRepo.FinishIngest(ctx, job.DocumentID, status, stored); err != nil {
		log.Printf("worker finish document %d failed: %v", job.DocumentID, err)
	}
}

func (w *IngestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
