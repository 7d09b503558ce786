package domain

import "time"

// Event types
const (
	EventTypeEntriesCreated       = "entries.created"
	EventTypeEntryUpdated         = "entry.updated"
	EventTypeEntryDeleted         = "entry.deleted"
	EventTypeSeriesUpdated        = "series.updated"
	EventTypeSeriesTruncated      = "series.truncated"
	EventTypeInvoiceStatusChanged = "invoice.status_changed"
	EventTypeStatementImported    = "statement.imported"
)

// Aggregate types
const (
	AggregateTypeEntry   = "entry"
	AggregateTypeSeries  = "series"
	AggregateTypeInvoice = "invoice"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	UserID        string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
