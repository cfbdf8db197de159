package usecase

import (
	"time"

	"talkline/internal/domain"
	"talkline/internal/ports"
)

// callSession is the single active call. All fields are guarded by the
// machine mutex; the session never outlives its finalization.
type callSession struct {
	id        uint64
	contact   ports.ContactContext
	initiator domain.Initiator
	status    domain.CallStatus

	// startedAt is set exactly once, on transition to Connected.
	startedAt *time.Time

	transcript []domain.CallMessage
	voiceCache []domain.VoiceCacheEntry

	rejectedBySelf        bool
	rejectedByCounterpart bool

	// terminating blocks new turns and collapses concurrent hang-ups.
	terminating bool
}

func (s *callSession) connect(now time.Time) {
	t := now
	s.startedAt = &t
	s.status = domain.CallStatusConnected
}

func (s *callSession) terminationReason() domain.TerminationReason {
	switch {
	case s.startedAt != nil:
		return domain.TerminationConnectedEnded
	case s.rejectedByCounterpart:
		return domain.TerminationRejectedByCounterpart
	case s.rejectedBySelf:
		return domain.TerminationRejectedBySelf
	case s.initiator == domain.InitiatorSelf:
		return domain.TerminationSelfCancelled
	default:
		return domain.TerminationCounterpartCancelled
	}
}

// Snapshot is a copy of observable session state for UIs and tests.
type Snapshot struct {
	Active     bool
	ContactID  string
	Initiator  domain.Initiator
	Status     domain.CallStatus
	StartedAt  *time.Time
	Transcript []domain.CallMessage
	VoiceCache int
}
