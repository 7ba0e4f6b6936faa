package eventlog

import (
	"context"
	"time"
)

// Record is one error-level entry read from the system event log.
type Record struct {
	Time     time.Time
	Provider string
	Message  string
}

// Source reads error records from the host's system event log. It is an
// optional capability: on platforms (or setups) without one, the
// unavailable variant is selected at startup and process-based crash
// detection carries on without it.
type Source interface {
	Available() bool
	QueryErrorsSince(ctx context.Context, since time.Time) ([]Record, error)
}

type unavailableSource struct{}

func (unavailableSource) Available() bool {
	return false
}

func (unavailableSource) QueryErrorsSince(context.Context, time.Time) ([]Record, error) {
	return nil, nil
}
