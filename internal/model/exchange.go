package model

import (
	"encoding/json"
	"time"
)

// Exchange is one completed question/answer turn against a document.
// Records are never mutated; history replay orders them by creation time.
type Exchange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	References string    `gorm:"type:text" json:"-"` // JSON array of snippet strings
	CreatedAt  time.Time `json:"created_at"`
}

// ReferenceList returns the parsed reference snippets in stored order.
func (e *Exchange) ReferenceList() []string {
	if e.References == "" {
		return nil
	}
	var refs []string
	_ = json.Unmarshal([]byte(e.References), &refs)
	return refs
}

// SetReferences stores the reference snippets as JSON.
func (e *Exchange) SetReferences(refs []string) {
	if len(refs) == 0 {
		e.References = "[]"
		return
	}
	b, _ := json.Marshal(refs)
	e.References = string(b)
}
