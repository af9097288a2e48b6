package domain

import "time"

// Stream names
const (
	StreamTheftsIngested = "stream:thefts:ingested"
)

// IngestionCompletedEvent - публикуется после успешной замены набора данных
type IngestionCompletedEvent struct {
	RunID       string    `json:"run_id"`
	Accepted    int       `json:"accepted"`
	Stored      int       `json:"stored"`
	CompletedAt time.Time `json:"completed_at"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
