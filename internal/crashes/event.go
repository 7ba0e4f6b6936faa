package crashes

import (
	"time"

	"github.com/crashmon/agent/internal/types"
)

// Event is an immutable record of one observed termination. It is
// created once when a tracked PID goes missing from a snapshot and is
// never mutated afterwards; the store only evicts whole events.
//
// Timestamp is detection time, accurate to within one poll interval of
// the true termination time.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	ProcessName    string    `json:"process_name"`
	Pid            types.Pid `json:"pid"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	RuntimeSeconds float64   `json:"runtime_seconds"`
	MemoryBytes    uint64    `json:"memory_at_last_seen_bytes"`
	SuspectedCrash bool      `json:"suspected_crash"`
}

func (e *Event) Runtime() time.Duration {
	return time.Duration(e.RuntimeSeconds * float64(time.Second))
}
