package usecase

import (
	"context"
	"fmt"
	"strings"

	"talkline/internal/domain"
	"talkline/internal/ports"
)

// BeginCapture acquires the microphone for a new turn. Admission is refused
// while another turn is in flight or the session is terminating.
func (m *Machine) BeginCapture(ctx context.Context) error {
	sess, err := m.admitTurn(domain.CallStatusRecording)
	if err != nil {
		return err
	}

	m.notifier.StatusChanged(domain.CallStatusRecording, sess.contact.ContactID)
	m.notifier.StageChanged(domain.TurnStageRecording)

	if err := m.device.BeginCapture(ctx); err != nil {
		m.failTurn(sess, err, "capture")
		return err
	}
	return nil
}

// CancelCapture discards an in-progress capture and returns the session to
// Connected with no transcript mutation.
func (m *Machine) CancelCapture() error {
	m.mu.Lock()
	sess := m.current
	if sess == nil {
		m.mu.Unlock()
		return ErrNoCall
	}
	if sess.status != domain.CallStatusRecording {
		m.mu.Unlock()
		return ports.ErrNoActiveCapture
	}
	m.mu.Unlock()

	err := m.device.CancelCapture()
	m.restoreConnected(sess)
	return err
}

// CompleteCapture stops recording and drives the turn pipeline on the
// captured sample. A blank transcript silently ends the turn.
func (m *Machine) CompleteCapture(ctx context.Context) error {
	m.mu.Lock()
	sess := m.current
	if sess == nil {
		m.mu.Unlock()
		return ErrNoCall
	}
	if sess.status != domain.CallStatusRecording {
		m.mu.Unlock()
		return ports.ErrNoActiveCapture
	}
	sess.status = domain.CallStatusProcessing
	m.mu.Unlock()

	m.notifier.StatusChanged(domain.CallStatusProcessing, sess.contact.ContactID)

	audio, err := m.device.EndCapture(ctx)
	if err != nil {
		m.failTurn(sess, err, "capture")
		return err
	}

	m.notifier.StageChanged(domain.TurnStageRecognizing)
	text, err := m.stt.Transcribe(ctx, audio)
	if err != nil {
		m.failTurn(sess, err, "recognize")
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		// Nothing was said. A normal outcome, not an error.
		m.restoreConnected(sess)
		return nil
	}

	return m.runExchange(ctx, sess, text)
}

// SendText runs a turn from typed input, skipping capture and recognition.
func (m *Machine) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sess, err := m.admitTurn(domain.CallStatusProcessing)
	if err != nil {
		return err
	}
	m.notifier.StatusChanged(domain.CallStatusProcessing, sess.contact.ContactID)
	return m.runExchange(ctx, sess, text)
}

// admitTurn enforces serial turn execution: exactly one pipeline may own a
// connected, non-terminating session.
func (m *Machine) admitTurn(next domain.CallStatus) (*callSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.current
	if sess == nil {
		return nil, ErrNoCall
	}
	if sess.status.InTurn() {
		return nil, ErrTurnInFlight
	}
	if sess.status != domain.CallStatusConnected || sess.terminating {
		return nil, ErrNotConnected
	}
	sess.status = next
	return sess, nil
}

// runExchange drives one user-input → counterpart-reply cycle from the point
// where the user's text is known.
func (m *Machine) runExchange(ctx context.Context, sess *callSession, text string) error {
	history, ok := m.appendMessage(sess, domain.SpeakerSelf, text)
	if !ok {
		return nil
	}

	m.notifier.StageChanged(domain.TurnStageThinking)
	reply, err := awaitWithin(ctx, m.cfg.ReplyTimeout, func(ctx context.Context) (string, error) {
		return m.replies.Reply(ctx, sess.contact, history, text)
	})
	if err != nil {
		m.failTurn(sess, err, "reply")
		return err
	}

	clean := SanitizeReply(reply)
	if clean == "" {
		// The user's utterance stands; no counterpart reply is recorded.
		m.restoreConnected(sess)
		return nil
	}

	if _, ok := m.appendMessage(sess, domain.SpeakerCounterpart, clean); !ok {
		return nil
	}
	return m.completeReply(ctx, sess, clean)
}

// runGreeting is the implicit zero-input turn on answering an incoming
// call: generation straight to synthesis and playback, no capture.
func (m *Machine) runGreeting(ctx context.Context, sess *callSession) {
	var prior []domain.CallMessage
	if m.context != nil {
		if turns, err := m.context.RecentTurns(ctx, sess.contact.ContactID, m.cfg.GreetingTurns); err == nil {
			prior = turns
		}
	}

	m.notifier.StageChanged(domain.TurnStageThinking)
	reply, err := awaitWithin(ctx, m.cfg.ReplyTimeout, func(ctx context.Context) (string, error) {
		return m.replies.Reply(ctx, sess.contact, prior, "")
	})
	if err != nil {
		m.failTurn(sess, err, "greeting")
		return
	}

	clean := SanitizeReply(reply)
	if clean == "" {
		m.restoreConnected(sess)
		return
	}
	if _, ok := m.appendMessage(sess, domain.SpeakerCounterpart, clean); !ok {
		return
	}
	_ = m.completeReply(ctx, sess, clean)
}

// completeReply synthesizes and plays a recorded counterpart reply, caches
// the utterance on successful playback, and arms the hang-up intent hook.
// A synthesis or playback failure leaves the text-only message recorded.
func (m *Machine) completeReply(ctx context.Context, sess *callSession, clean string) error {
	audio, err := m.tts.Synthesize(ctx, clean)
	if err != nil {
		m.failTurn(sess, err, "synthesize")
		return err
	}
	if len(audio) == 0 {
		err = fmt.Errorf("synthesizer returned an empty sample")
		m.failTurn(sess, err, "synthesize")
		return err
	}

	m.mu.Lock()
	if m.current != sess || sess.terminating {
		m.mu.Unlock()
		return nil
	}
	sess.status = domain.CallStatusPlaying
	m.mu.Unlock()

	m.notifier.StatusChanged(domain.CallStatusPlaying, sess.contact.ContactID)
	m.notifier.StageChanged(domain.TurnStageSpeaking)

	if err := m.device.Play(ctx, audio); err != nil {
		m.failTurn(sess, err, "playback")
		return err
	}

	entry := domain.VoiceCacheEntry{
		Text:            clean,
		Audio:           audio,
		DurationSeconds: m.cfg.EstimateSeconds(audio),
	}
	m.mu.Lock()
	if m.current == sess {
		sess.voiceCache = append(sess.voiceCache, entry)
	}
	m.mu.Unlock()

	m.restoreConnected(sess)
	m.metrics.TurnCompleted()

	if IntentToEndCall(clean) {
		m.scheduleHangup(sess.id)
	}
	return nil
}

// appendMessage appends to the session transcript and returns the prior
// transcript snapshot. It refuses once the session is detached or
// terminating, so a dying call is never mutated by a stale turn.
func (m *Machine) appendMessage(sess *callSession, speaker domain.Speaker, text string) ([]domain.CallMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != sess || sess.terminating {
		return nil, false
	}
	history := snapshotTranscript(sess.transcript)
	sess.transcript = append(sess.transcript, domain.CallMessage{Speaker: speaker, Text: text})
	return history, true
}

// failTurn reports a pipeline failure and returns the session to Connected.
// Capability failures never leave the session stuck mid-stage.
func (m *Machine) failTurn(sess *callSession, err error, stage string) {
	m.metrics.TurnFailed(stage)
	m.notifier.CallError(errorCode(err), fmt.Sprintf("%s failed: %v", stage, err))
	m.restoreConnected(sess)
}

func (m *Machine) restoreConnected(sess *callSession) {
	m.mu.Lock()
	if m.current != sess || sess.terminating || sess.startedAt == nil {
		m.mu.Unlock()
		return
	}
	sess.status = domain.CallStatusConnected
	contactID := sess.contact.ContactID
	m.mu.Unlock()

	m.notifier.StatusChanged(domain.CallStatusConnected, contactID)
}
