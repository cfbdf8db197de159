package voicestore

import (
	"context"
	"fmt"
	"time"

	"talkline/internal/domain"
	"talkline/internal/ports"
)

// Keeper implements the cache-offer collaborator by persisting every entry
// the filter admits. The default filter keeps everything; a UI can supply
// one backed by a user prompt.
type Keeper struct {
	store  ports.VoiceStore
	filter func(domain.VoiceCacheEntry) bool
}

func NewKeeper(store ports.VoiceStore, filter func(domain.VoiceCacheEntry) bool) *Keeper {
	if filter == nil {
		filter = func(domain.VoiceCacheEntry) bool { return true }
	}
	return &Keeper{store: store, filter: filter}
}

// OfferCache persists the admitted entries keyed by contact and call start.
func (k *Keeper) OfferCache(ctx context.Context, contactID string, callAt time.Time, entries []domain.VoiceCacheEntry) error {
	for _, entry := range entries {
		if !k.filter(entry) {
			continue
		}
		_, err := k.store.Save(ctx, domain.PersistedUtterance{
			ContactID:       contactID,
			CallAt:          callAt,
			Text:            entry.Text,
			Audio:           entry.Audio,
			DurationSeconds: entry.DurationSeconds,
		})
		if err != nil {
			return fmt.Errorf("voicestore: save failed: %w", err)
		}
	}
	return nil
}
