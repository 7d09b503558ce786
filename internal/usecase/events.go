package usecase

import (
	"time"

	"github.com/iho/cardledger/internal/domain"
)

func newEvent(idGen IDGenerator, userID, aggregateType, aggregateID, eventType string, payload map[string]any, now time.Time) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		UserID:        userID,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
}

func entryIDs(entries []domain.Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func stamp(entries []domain.Entry, now time.Time) {
	for i := range entries {
		entries[i].UpdatedAt = now
	}
}
