package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"talkline/internal/domain"
	"talkline/internal/observability/metrics"
	"talkline/internal/ports"
)

var (
	ErrCallActive   = errors.New("a call session is already active")
	ErrNoCall       = errors.New("no active call session")
	ErrNotConnected = errors.New("call is not connected")
	ErrTurnInFlight = errors.New("a turn is already in progress")
	ErrNotRinging   = errors.New("no incoming call awaiting an answer")
)

// Config controls call machine timing.
type Config struct {
	// ReplyTimeout bounds reply generation during a turn.
	ReplyTimeout time.Duration
	// FarewellTimeout bounds the whole farewell attempt during hang-up.
	FarewellTimeout time.Duration
	// AcceptWindow bounds how long an incoming call rings unanswered.
	AcceptWindow time.Duration
	// HangupGrace delays scheduled termination past the reply's playback.
	HangupGrace time.Duration
	// GreetingTurns is how much prior history seeds an incoming greeting.
	GreetingTurns int
	// EstimateSeconds maps an audio payload to a playback duration when the
	// device cannot measure one.
	EstimateSeconds func(audio []byte) float64
}

func (c Config) withDefaults() Config {
	out := c
	if out.ReplyTimeout <= 0 {
		out.ReplyTimeout = 30 * time.Second
	}
	if out.FarewellTimeout <= 0 {
		out.FarewellTimeout = 5 * time.Second
	}
	if out.AcceptWindow <= 0 {
		out.AcceptWindow = 15 * time.Second
	}
	if out.HangupGrace <= 0 {
		out.HangupGrace = 1500 * time.Millisecond
	}
	if out.GreetingTurns <= 0 {
		out.GreetingTurns = 20
	}
	if out.EstimateSeconds == nil {
		// linear16 mono at 16 kHz
		out.EstimateSeconds = func(audio []byte) float64 {
			return float64(len(audio)) / 32000
		}
	}
	return out
}

// Deps are the machine's collaborators. Device, STT, Replies, TTS and
// History are required; the rest may be nil.
type Deps struct {
	Device   ports.VoiceDevice
	STT      ports.Transcriber
	Replies  ports.ReplyGenerator
	TTS      ports.Synthesizer
	History  ports.HistorySink
	Context  ports.HistoryContext
	Offer    ports.CacheOffer
	Notifier ports.Notifier
	Metrics  *metrics.Metrics
}

// Machine owns the call lifecycle: connection negotiation, serial turn
// admission, termination and handoff of the session's voice cache.
type Machine struct {
	device   ports.VoiceDevice
	stt      ports.Transcriber
	replies  ports.ReplyGenerator
	tts      ports.Synthesizer
	history  ports.HistorySink
	context  ports.HistoryContext
	offer    ports.CacheOffer
	notifier ports.Notifier
	metrics  *metrics.Metrics
	cfg      Config

	mu      sync.Mutex
	current *callSession
	lastID  uint64
}

// NewMachine validates collaborators and builds an idle call machine.
// Missing required collaborators are a setup error: no call can ever start.
func NewMachine(deps Deps, cfg Config) (*Machine, error) {
	switch {
	case deps.Device == nil:
		return nil, errors.New("voice device is required")
	case deps.STT == nil:
		return nil, errors.New("transcriber is required")
	case deps.Replies == nil:
		return nil, errors.New("reply generator is required")
	case deps.TTS == nil:
		return nil, errors.New("synthesizer is required")
	case deps.History == nil:
		return nil, errors.New("history sink is required")
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}

	return &Machine{
		device:   deps.Device,
		stt:      deps.STT,
		replies:  deps.Replies,
		tts:      deps.TTS,
		history:  deps.History,
		context:  deps.Context,
		offer:    deps.Offer,
		notifier: notifier,
		metrics:  deps.Metrics,
		cfg:      cfg.withDefaults(),
	}, nil
}

// StartOutgoing places a call to a contact. The counterpart decides whether
// to pick up; a decision error counts as accept.
func (m *Machine) StartOutgoing(ctx context.Context, contact ports.ContactContext) error {
	sess, err := m.beginSession(contact, domain.InitiatorSelf)
	if err != nil {
		return err
	}

	if m.replies.DecideAccept(ctx, contact) {
		m.mu.Lock()
		if m.current == sess && !sess.terminating {
			sess.connect(time.Now())
			m.mu.Unlock()
			m.metrics.CallConnected(string(sess.initiator))
			m.notifier.StatusChanged(domain.CallStatusConnected, contact.ContactID)
			return nil
		}
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	sess.rejectedByCounterpart = true
	m.mu.Unlock()
	m.finalize(ctx, sess)
	return nil
}

// StartIncoming registers a ringing call from a contact and opens the
// acceptance window. Silence for the full window terminates as unanswered.
func (m *Machine) StartIncoming(ctx context.Context, contact ports.ContactContext) error {
	sess, err := m.beginSession(contact, domain.InitiatorCounterpart)
	if err != nil {
		return err
	}

	id := sess.id
	time.AfterFunc(m.cfg.AcceptWindow, func() {
		m.expireAcceptance(id)
	})
	return nil
}

// Accept answers a ringing incoming call and speaks the counterpart's
// greeting. Greeting failures are non-fatal; the call stays connected.
func (m *Machine) Accept(ctx context.Context) error {
	m.mu.Lock()
	sess := m.current
	if sess == nil {
		m.mu.Unlock()
		return ErrNoCall
	}
	if sess.status != domain.CallStatusConnecting || sess.initiator != domain.InitiatorCounterpart || sess.terminating {
		m.mu.Unlock()
		return ErrNotRinging
	}
	sess.connect(time.Now())
	sess.status = domain.CallStatusProcessing
	contact := sess.contact
	m.mu.Unlock()

	m.metrics.CallConnected(string(sess.initiator))
	m.notifier.StatusChanged(domain.CallStatusConnected, contact.ContactID)
	m.runGreeting(ctx, sess)
	return nil
}

// Reject declines a ringing incoming call.
func (m *Machine) Reject(ctx context.Context) error {
	m.mu.Lock()
	sess := m.current
	if sess == nil {
		m.mu.Unlock()
		return ErrNoCall
	}
	if sess.status != domain.CallStatusConnecting || sess.initiator != domain.InitiatorCounterpart || sess.terminating {
		m.mu.Unlock()
		return ErrNotRinging
	}
	sess.rejectedBySelf = true
	m.mu.Unlock()

	m.finalize(ctx, sess)
	return nil
}

// HangUp ends the call from any state. It is idempotent: a second hang-up
// while one is in progress is ignored. A connected call gets a best-effort
// farewell bounded by the farewell ceiling before finalization.
func (m *Machine) HangUp(ctx context.Context) error {
	m.mu.Lock()
	sess := m.current
	if sess == nil {
		m.mu.Unlock()
		return ErrNoCall
	}
	if sess.terminating {
		m.mu.Unlock()
		return nil
	}
	sess.terminating = true
	wasConnected := sess.startedAt != nil
	midCapture := sess.status == domain.CallStatusRecording
	contact := sess.contact
	history := snapshotTranscript(sess.transcript)
	m.mu.Unlock()

	if midCapture {
		_ = m.device.CancelCapture()
	}

	if wasConnected {
		m.speakFarewell(ctx, contact, history)
	}

	m.finalize(ctx, sess)
	return nil
}

// SetMuted toggles microphone routing on the device. Mute never affects
// turn admission.
func (m *Machine) SetMuted(muted bool) {
	m.device.SetMuted(muted)
}

// Snapshot returns a copy of the observable session state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Snapshot{Status: domain.CallStatusIdle}
	}
	s := m.current
	return Snapshot{
		Active:     true,
		ContactID:  s.contact.ContactID,
		Initiator:  s.initiator,
		Status:     s.status,
		StartedAt:  s.startedAt,
		Transcript: snapshotTranscript(s.transcript),
		VoiceCache: len(s.voiceCache),
	}
}

// beginSession performs the setup checks and installs a new connecting
// session, refusing while another session exists.
func (m *Machine) beginSession(contact ports.ContactContext, initiator domain.Initiator) (*callSession, error) {
	if !m.device.Supported() {
		return nil, fmt.Errorf("voice device unsupported on this host")
	}

	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		return nil, ErrCallActive
	}

	m.lastID++
	sess := &callSession{
		id:        m.lastID,
		contact:   contact,
		initiator: initiator,
		status:    domain.CallStatusConnecting,
	}
	m.current = sess
	m.mu.Unlock()

	m.metrics.CallStarted(string(initiator))
	m.notifier.StatusChanged(domain.CallStatusConnecting, contact.ContactID)
	return sess, nil
}

// expireAcceptance ends an incoming call that rang out. The session is
// claimed under the lock; an accept that lost the race finds it terminating.
func (m *Machine) expireAcceptance(id uint64) {
	m.mu.Lock()
	sess := m.current
	if sess == nil || sess.id != id || sess.status != domain.CallStatusConnecting || sess.terminating {
		m.mu.Unlock()
		return
	}
	sess.terminating = true
	m.mu.Unlock()

	m.finalize(context.Background(), sess)
}

// scheduleHangup ends the call shortly after a reply that announced the
// intent to hang up, unless the session changed in the meantime.
func (m *Machine) scheduleHangup(id uint64) {
	time.AfterFunc(m.cfg.HangupGrace, func() {
		m.mu.Lock()
		stale := m.current == nil || m.current.id != id
		m.mu.Unlock()
		if stale {
			return
		}
		_ = m.HangUp(context.Background())
	})
}

func (m *Machine) speakFarewell(ctx context.Context, contact ports.ContactContext, history []domain.CallMessage) {
	_, err := awaitWithin(ctx, m.cfg.FarewellTimeout, func(ctx context.Context) (struct{}, error) {
		text, err := m.replies.Farewell(ctx, contact, history)
		if err != nil {
			return struct{}{}, err
		}
		text = SanitizeReply(text)
		if text == "" {
			return struct{}{}, nil
		}
		audio, err := m.tts.Synthesize(ctx, text)
		if err != nil || len(audio) == 0 {
			return struct{}{}, err
		}
		return struct{}{}, m.device.Play(ctx, audio)
	})
	if err != nil {
		// Best effort only. Termination proceeds regardless.
		m.notifier.CallError(errorCode(err), fmt.Sprintf("farewell skipped: %v", err))
	}
}

// finalize emits the call record, offers the voice cache and resets to idle.
// Calling it twice for the same session is harmless: the second call finds
// the session already detached.
func (m *Machine) finalize(ctx context.Context, sess *callSession) {
	m.mu.Lock()
	if m.current != sess {
		m.mu.Unlock()
		return
	}
	sess.terminating = true
	sess.status = domain.CallStatusTerminated

	now := time.Now()
	record := domain.CallRecord{
		ContactID:  sess.contact.ContactID,
		Initiator:  sess.initiator,
		Reason:     sess.terminationReason(),
		StartedAt:  sess.startedAt,
		EndedAt:    now,
		Transcript: snapshotTranscript(sess.transcript),
	}
	if sess.startedAt != nil {
		record.Duration = domain.FormatDuration(now.Sub(*sess.startedAt))
	}

	cache := sess.voiceCache
	sess.voiceCache = nil
	m.current = nil
	m.mu.Unlock()

	if err := m.history.AppendRecord(ctx, record); err != nil {
		m.notifier.CallError(domain.ErrorCodePersistence, fmt.Sprintf("call record not stored: %v", err))
	}

	if m.offer != nil && record.StartedAt != nil && len(cache) > 0 {
		if err := m.offer.OfferCache(ctx, record.ContactID, *record.StartedAt, cache); err != nil {
			m.notifier.CallError(domain.ErrorCodePersistence, fmt.Sprintf("voice cache not offered: %v", err))
		}
	}

	m.metrics.CallTerminated(string(record.Reason))
	m.notifier.StatusChanged(domain.CallStatusTerminated, record.ContactID)
}

func snapshotTranscript(messages []domain.CallMessage) []domain.CallMessage {
	out := make([]domain.CallMessage, len(messages))
	copy(out, messages)
	return out
}

func errorCode(err error) domain.ErrorCode {
	switch {
	case errors.Is(err, ErrDeadline):
		return domain.ErrorCodeTimeout
	case errors.Is(err, ports.ErrPermissionDenied):
		return domain.ErrorCodePermission
	case errors.Is(err, ports.ErrPlayback):
		return domain.ErrorCodePlayback
	default:
		return domain.ErrorCodeService
	}
}

type noopNotifier struct{}

func (noopNotifier) StatusChanged(domain.CallStatus, string) {}
func (noopNotifier) StageChanged(domain.TurnStage)           {}
func (noopNotifier) CallError(domain.ErrorCode, string)      {}
