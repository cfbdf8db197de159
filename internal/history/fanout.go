package history

import (
	"context"
	"errors"

	"talkline/internal/domain"
	"talkline/internal/ports"
)

// Fanout delivers each call record to every sink. All sinks are attempted;
// errors are joined.
type Fanout []ports.HistorySink

func (f Fanout) AppendRecord(ctx context.Context, record domain.CallRecord) error {
	var errs []error
	for _, sink := range f {
		if err := sink.AppendRecord(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
