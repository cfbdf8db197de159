package domain

import (
	"fmt"
	"time"
)

// CallStatus models the call lifecycle. Recording, Processing and Playing are
// sub-states of a connected call used for turn admission.
type CallStatus string

const (
	CallStatusIdle       CallStatus = "idle"
	CallStatusConnecting CallStatus = "connecting"
	CallStatusConnected  CallStatus = "connected"
	CallStatusRecording  CallStatus = "recording"
	CallStatusProcessing CallStatus = "processing"
	CallStatusPlaying    CallStatus = "playing"
	CallStatusTerminated CallStatus = "terminated"
)

// InTurn reports whether a turn pipeline currently owns the session.
func (s CallStatus) InTurn() bool {
	return s == CallStatusRecording || s == CallStatusProcessing || s == CallStatusPlaying
}

// Initiator identifies which side placed the call.
type Initiator string

const (
	InitiatorSelf        Initiator = "self"
	InitiatorCounterpart Initiator = "counterpart"
)

// Speaker identifies which side produced a transcript message.
type Speaker string

const (
	SpeakerSelf        Speaker = "self"
	SpeakerCounterpart Speaker = "counterpart"
)

// TerminationReason explains why a session ended. Exactly one applies per call.
type TerminationReason string

const (
	TerminationConnectedEnded        TerminationReason = "connected_ended"
	TerminationSelfCancelled         TerminationReason = "self_cancelled"
	TerminationRejectedByCounterpart TerminationReason = "rejected_by_counterpart"
	TerminationRejectedBySelf        TerminationReason = "rejected_by_self"
	TerminationCounterpartCancelled  TerminationReason = "counterpart_cancelled"
)

// TurnStage identifies a pipeline stage for user-visible status feedback.
type TurnStage string

const (
	TurnStageRecording   TurnStage = "recording"
	TurnStageRecognizing TurnStage = "recognizing"
	TurnStageThinking    TurnStage = "thinking"
	TurnStageSpeaking    TurnStage = "speaking"
)

// ErrorCode identifies non-fatal and fatal call errors.
type ErrorCode string

const (
	ErrorCodeSetup       ErrorCode = "setup"
	ErrorCodePermission  ErrorCode = "permission"
	ErrorCodeService     ErrorCode = "service"
	ErrorCodeTimeout     ErrorCode = "timeout"
	ErrorCodePlayback    ErrorCode = "playback"
	ErrorCodePersistence ErrorCode = "persistence"
)

// CallMessage is one spoken or typed exchange unit. Append-only.
type CallMessage struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// VoiceCacheEntry is one synthesized counterpart utterance kept for the
// duration of the session and offered for persistence at termination.
type VoiceCacheEntry struct {
	Text            string
	Audio           []byte
	DurationSeconds float64
}

// CallRecord summarizes one terminated session for the chat history.
type CallRecord struct {
	ContactID  string            `json:"contactId"`
	Initiator  Initiator         `json:"initiator"`
	Reason     TerminationReason `json:"reason"`
	StartedAt  *time.Time        `json:"startedAt,omitempty"`
	EndedAt    time.Time         `json:"endedAt"`
	Duration   string            `json:"duration,omitempty"`
	Transcript []CallMessage     `json:"transcript"`
}

// Summary renders the short chat-bubble text for this record.
func (r CallRecord) Summary() string {
	switch r.Reason {
	case TerminationConnectedEnded:
		return fmt.Sprintf("[call: %s]", r.Duration)
	case TerminationRejectedByCounterpart, TerminationRejectedBySelf:
		return "[call: rejected]"
	case TerminationCounterpartCancelled:
		return "[call: no answer]"
	default:
		return "[call: cancelled]"
	}
}

// FormatDuration renders a call duration as mm:ss, or hh:mm:ss past an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// PersistedUtterance is one voice cache entry handed to durable storage,
// keyed by contact and call start time.
type PersistedUtterance struct {
	ID              string
	ContactID       string
	CallAt          time.Time
	Text            string
	Audio           []byte
	DurationSeconds float64
}
