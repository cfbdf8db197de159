// Package voicestore implements the persistence handoff for synthesized
// utterances: durable stores keyed by contact and call timestamp, plus the
// cache-offer collaborator that feeds them at call termination.
package voicestore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"talkline/internal/domain"
)

// Memory is the in-process store used by tests and the default wiring.
type Memory struct {
	mu      sync.Mutex
	entries []domain.PersistedUtterance
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(ctx context.Context, utterance domain.PersistedUtterance) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if utterance.ID == "" {
		utterance.ID = uuid.NewString()
	}
	m.entries = append(m.entries, utterance)
	return utterance.ID, nil
}

func (m *Memory) ListByCall(ctx context.Context, contactID string, callAt time.Time) ([]domain.PersistedUtterance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PersistedUtterance
	for _, entry := range m.entries {
		if entry.ContactID == contactID && entry.CallAt.Equal(callAt) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *Memory) DeleteByContact(ctx context.Context, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.ContactID != contactID {
			kept = append(kept, entry)
		}
	}
	m.entries = kept
	return nil
}
