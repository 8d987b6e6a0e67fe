package model

import "time"

// Document ingestion lifecycle. A document is created as uploaded,
// moves to ingesting when the worker picks it up, and ends ready or failed.
const (
	DocumentStatusUploaded  = "uploaded"
	DocumentStatusIngesting = "ingesting"
	DocumentStatusReady     = "ready"
	DocumentStatusFailed    = "failed"
)

type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Name       string    `gorm:"size:256;not null" json:"name"`
	Status     string    `gorm:"size:16;not null;default:uploaded" json:"status"`
	Language   string    `gorm:"size:8" json:"language"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
