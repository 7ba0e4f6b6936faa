package detection

import (
	"sync"
	"testing"
	"time"

	"github.com/crashmon/agent/internal/processes"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type fakeSource struct {
	lock      sync.Mutex
	snapshots [][]processes.ObservedProcess
	calls     int
	err       error
	slow      time.Duration
}

func (f *fakeSource) ListProcesses([]string) ([]processes.ObservedProcess, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.slow > 0 {
		time.Sleep(f.slow)
	}

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.snapshots) == 0 {
		return nil, nil
	}

	snapshot := f.snapshots[0]
	if len(f.snapshots) > 1 {
		f.snapshots = f.snapshots[1:]
	}
	return snapshot, nil
}

func (f *fakeSource) callCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

func newTestPoller(t *testing.T, source processes.Source, interval time.Duration) *Poller {
	t.Helper()
	tracker := NewTracker(zap.NewNop(), newTestStore(t), 30*time.Second)
	return NewPoller(zap.NewNop(), source, tracker, []string{"ExeFile.exe"}, interval)
}

func TestPoller_StartStop(t *testing.T) {
	source := &fakeSource{}
	poller := newTestPoller(t, source, 10*time.Millisecond)

	poller.Start()
	if !poller.Running() {
		t.Fatal("poller must be running after Start")
	}

	time.Sleep(50 * time.Millisecond)

	poller.Stop()
	if poller.Running() {
		t.Fatal("poller must be idle after Stop")
	}

	if source.callCount() < 2 {
		t.Errorf("only %d cycles ran, want several", source.callCount())
	}
}

func TestPoller_StartIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	poller := newTestPoller(t, source, 10*time.Millisecond)

	poller.Start()
	poller.Start() // no-op, must not double-schedule
	defer poller.Stop()

	time.Sleep(35 * time.Millisecond)

	// Roughly one immediate cycle plus one per elapsed interval; a
	// doubled loop would show twice that.
	if calls := source.callCount(); calls > 6 {
		t.Errorf("%d cycles after 35ms at 10ms interval, loop was double-scheduled", calls)
	}
}

func TestPoller_StopWhileIdleIsNoop(t *testing.T) {
	poller := newTestPoller(t, &fakeSource{}, 10*time.Millisecond)
	poller.Stop() // must not panic or block
}

func TestPoller_Restartable(t *testing.T) {
	source := &fakeSource{}
	poller := newTestPoller(t, source, 10*time.Millisecond)

	poller.Start()
	poller.Stop()

	before := source.callCount()

	poller.Start()
	time.Sleep(30 * time.Millisecond)
	poller.Stop()

	if source.callCount() <= before {
		t.Error("restarted poller ran no cycles")
	}
}

func TestPoller_StopWaitsForInflightCycle(t *testing.T) {
	source := &fakeSource{slow: 50 * time.Millisecond}
	poller := newTestPoller(t, source, 5*time.Millisecond)

	poller.Start()
	time.Sleep(10 * time.Millisecond) // land inside a slow cycle

	poller.Stop()

	// No cycle may begin after Stop returns.
	after := source.callCount()
	time.Sleep(60 * time.Millisecond)
	if source.callCount() != after {
		t.Errorf("cycles kept running after Stop: %d -> %d", after, source.callCount())
	}
}

func TestPoller_SourceErrorSkipsCycle(t *testing.T) {
	source := &fakeSource{err: errors.New("permission denied")}
	poller := newTestPoller(t, source, 10*time.Millisecond)

	poller.Start()
	time.Sleep(30 * time.Millisecond)
	poller.Stop()

	if source.callCount() < 2 {
		t.Errorf("loop stopped after a source error, %d calls", source.callCount())
	}
}
