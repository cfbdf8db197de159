package ports

import (
	"context"
	"errors"
	"time"

	"talkline/internal/domain"
)

// Device access errors surfaced by VoiceDevice implementations.
var (
	ErrPermissionDenied = errors.New("microphone access denied")
	ErrNoActiveCapture  = errors.New("no active capture")
	ErrPlayback         = errors.New("audio playback failed")
)

// VoiceDevice is the speech capture/playback device boundary.
type VoiceDevice interface {
	// Supported reports whether capture and playback are available at all.
	Supported() bool

	// BeginCapture acquires the microphone. Fails with ErrPermissionDenied.
	BeginCapture(ctx context.Context) error

	// EndCapture releases the microphone and returns the captured sample.
	// Fails with ErrNoActiveCapture when no capture is in progress.
	EndCapture(ctx context.Context) ([]byte, error)

	// CancelCapture releases the microphone, discarding any partial sample.
	CancelCapture() error

	// Play renders an audio sample to completion. Fails with ErrPlayback.
	Play(ctx context.Context, audio []byte) error

	// SetMuted toggles microphone routing. Mute is purely a device concern
	// and never affects turn admission.
	SetMuted(muted bool)
}

// Transcriber converts an audio sample to text. An empty transcript is a
// normal outcome, not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ContactContext carries the counterpart persona handed to reply generation.
type ContactContext struct {
	ContactID string
	Name      string
	Persona   string
}

// ReplyGenerator produces counterpart replies and call-start decisions.
type ReplyGenerator interface {
	// Reply generates the counterpart's next utterance given the prior
	// transcript and the new input. An empty input requests a greeting.
	Reply(ctx context.Context, contact ContactContext, history []domain.CallMessage, input string) (string, error)

	// DecideAccept decides whether the counterpart picks up a self-initiated
	// call. Implementations fail open: errors report accept=true.
	DecideAccept(ctx context.Context, contact ContactContext) bool

	// Farewell generates a short closing line for call termination.
	Farewell(ctx context.Context, contact ContactContext, history []domain.CallMessage) (string, error)
}

// Synthesizer converts text to an audio sample. Callers validate the size.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// HistorySink receives one CallRecord per terminated session.
type HistorySink interface {
	AppendRecord(ctx context.Context, record domain.CallRecord) error
}

// HistoryContext exposes prior conversation turns with a contact, used to
// seed the greeting when the counterpart initiates the call.
type HistoryContext interface {
	RecentTurns(ctx context.Context, contactID string, limit int) ([]domain.CallMessage, error)
}

// VoiceStore durably persists selected synthesized utterances. Keyed lookup
// and deletion by contact or call timestamp belong to the store, not the core.
type VoiceStore interface {
	Save(ctx context.Context, utterance domain.PersistedUtterance) (string, error)
	ListByCall(ctx context.Context, contactID string, callAt time.Time) ([]domain.PersistedUtterance, error)
	DeleteByContact(ctx context.Context, contactID string) error
}

// CacheOffer receives the session's voice cache at termination and decides,
// together with the user, which utterances reach durable storage.
type CacheOffer interface {
	OfferCache(ctx context.Context, contactID string, callAt time.Time, entries []domain.VoiceCacheEntry) error
}

// Notifier receives user-visible status feedback. Failures here are
// non-fatal to the session, so methods do not return errors.
type Notifier interface {
	StatusChanged(status domain.CallStatus, contactID string)
	StageChanged(stage domain.TurnStage)
	CallError(code domain.ErrorCode, detail string)
}
