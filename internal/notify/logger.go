// Package notify implements the status notifier on structured logging.
package notify

import (
	"github.com/rs/zerolog"

	"talkline/internal/domain"
)

// Logger renders stage and status feedback as log lines. Notifications are
// fire-and-forget; nothing here can fail the session.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "call").Logger()}
}

func (l *Logger) StatusChanged(status domain.CallStatus, contactID string) {
	l.log.Info().
		Str("status", string(status)).
		Str("contactId", contactID).
		Msg("call status")
}

func (l *Logger) StageChanged(stage domain.TurnStage) {
	l.log.Info().Str("stage", string(stage)).Msg("turn stage")
}

func (l *Logger) CallError(code domain.ErrorCode, detail string) {
	l.log.Warn().Str("code", string(code)).Msg(detail)
}
