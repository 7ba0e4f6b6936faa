package detection

import (
	"sync"
	"time"

	"github.com/crashmon/agent/internal/crashes"
	"github.com/crashmon/agent/internal/processes"
	"github.com/crashmon/agent/internal/types"
	"go.uber.org/zap"
)

// TrackedProcess is one currently-live monitored process. A PID is
// never a durable identity: once the process dies and the entry is
// converted into a crash event, a later process with the same PID is a
// brand-new entry.
type TrackedProcess struct {
	Pid         types.Pid
	Name        string
	StartTime   time.Time // OS-reported, zero when the OS could not say
	FirstSeenAt time.Time
	LastSeenAt  time.Time
	MemoryBytes uint64
}

// Tracker owns the live process registry. The poll cycle is the single
// writer (Reconcile); foreground status queries read an immutable
// snapshot taken under the lock.
type Tracker struct {
	logger    *zap.Logger
	store     *crashes.Store
	threshold time.Duration

	lock     sync.RWMutex
	registry map[types.Pid]*TrackedProcess
}

func NewTracker(rootLogger *zap.Logger, store *crashes.Store, crashThreshold time.Duration) *Tracker {
	return &Tracker{
		logger:    rootLogger.Named("process-tracker"),
		store:     store,
		threshold: crashThreshold,
		registry:  make(map[types.Pid]*TrackedProcess),
	}
}

// Reconcile diffs one snapshot against the registry: new PIDs are
// registered, surviving PIDs are refreshed, and missing PIDs become
// crash events (classified, appended to the store, removed from the
// registry). Returns the events produced this cycle, in detection
// order.
//
// A tracked PID whose reported start time changed is the old process
// terminating and an unrelated one reusing its PID within a single
// interval; it is handled as a termination plus a fresh appearance in
// the same cycle.
func (t *Tracker) Reconcile(observed []processes.ObservedProcess, now time.Time) []*crashes.Event {
	t.lock.Lock()
	defer t.lock.Unlock()

	present := make(map[types.Pid]processes.ObservedProcess, len(observed))
	for _, process := range observed {
		present[process.Pid] = process
	}

	var events []*crashes.Event

	for pid, tracked := range t.registry {
		current, alive := present[pid]
		if alive && current.StartTime.Equal(tracked.StartTime) {
			tracked.LastSeenAt = now
			tracked.MemoryBytes = current.MemoryBytes
			continue
		}

		events = append(events, t.convertToEvent(tracked, now))
		delete(t.registry, pid)

		if alive {
			t.logger.Info("PID reused by a new process within one cycle",
				zap.Int32("Pid", pid.Int32()), zap.Time("NewStartTime", current.StartTime))
		}
	}

	for pid, process := range present {
		if _, tracked := t.registry[pid]; tracked {
			continue
		}

		firstSeen := process.StartTime
		if firstSeen.IsZero() {
			firstSeen = now
		}

		t.registry[pid] = &TrackedProcess{
			Pid:         pid,
			Name:        process.Name,
			StartTime:   process.StartTime,
			FirstSeenAt: firstSeen,
			LastSeenAt:  now,
			MemoryBytes: process.MemoryBytes,
		}

		t.logger.Info("New monitored process detected",
			zap.Int32("Pid", pid.Int32()), zap.String("Name", process.Name))
	}

	return events
}

func (t *Tracker) convertToEvent(tracked *TrackedProcess, now time.Time) *crashes.Event {
	runtime := now.Sub(tracked.FirstSeenAt)

	event := &crashes.Event{
		Timestamp:      now,
		ProcessName:    tracked.Name,
		Pid:            tracked.Pid,
		StartedAt:      tracked.FirstSeenAt,
		EndedAt:        now,
		RuntimeSeconds: runtime.Seconds(),
		MemoryBytes:    tracked.MemoryBytes,
		SuspectedCrash: crashes.Classify(runtime, t.threshold),
	}

	t.store.Append(event)

	if event.SuspectedCrash {
		t.logger.Warn("Potential crash detected",
			zap.Int32("Pid", tracked.Pid.Int32()), zap.String("Name", tracked.Name),
			zap.Float64("RuntimeSeconds", event.RuntimeSeconds))
	} else {
		t.logger.Info("Monitored process terminated normally",
			zap.Int32("Pid", tracked.Pid.Int32()), zap.String("Name", tracked.Name),
			zap.Float64("RuntimeSeconds", event.RuntimeSeconds))
	}

	return event
}

// Tracked returns an immutable copy of the registry for foreground
// status queries.
func (t *Tracker) Tracked() []TrackedProcess {
	t.lock.RLock()
	defer t.lock.RUnlock()

	tracked := make([]TrackedProcess, 0, len(t.registry))
	for _, process := range t.registry {
		tracked = append(tracked, *process)
	}
	return tracked
}
