// Package history implements the chat-history collaborators: call record
// sinks and the prior-turn context source.
package history

import (
	"context"
	"sync"

	"talkline/internal/domain"
)

// Memory keeps call records and conversation turns in process. It backs the
// terminal front end and tests, and feeds prior turns into incoming-call
// greetings.
type Memory struct {
	mu      sync.Mutex
	records []domain.CallRecord
	turns   map[string][]domain.CallMessage
}

func NewMemory() *Memory {
	return &Memory{turns: make(map[string][]domain.CallMessage)}
}

// AppendRecord stores the record and folds its transcript into the
// contact's turn history.
func (m *Memory) AppendRecord(ctx context.Context, record domain.CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	m.turns[record.ContactID] = append(m.turns[record.ContactID], record.Transcript...)
	return nil
}

// RecentTurns returns up to limit of the newest turns with a contact.
func (m *Memory) RecentTurns(ctx context.Context, contactID string, limit int) ([]domain.CallMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.turns[contactID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]domain.CallMessage, len(turns))
	copy(out, turns)
	return out, nil
}

// Records returns a snapshot of all stored call records.
func (m *Memory) Records() []domain.CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CallRecord, len(m.records))
	copy(out, m.records)
	return out
}
