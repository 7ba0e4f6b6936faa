package detection

import (
	"context"
	"sync"
	"time"

	"github.com/crashmon/agent/internal/processes"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Poller drives the reconcile cycle on a fixed cadence. Its lifecycle
// is Idle -> Running -> Idle: Start while running is a logged no-op,
// Stop waits for the in-flight cycle and a stopped poller can be
// started again. Failures inside a cycle never terminate the loop;
// only Stop does.
type Poller struct {
	logger       *zap.Logger
	source       processes.Source
	tracker      *Tracker
	processNames []string
	interval     time.Duration

	lock      sync.Mutex
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	running   *atomic.Bool
}

func NewPoller(rootLogger *zap.Logger, source processes.Source, tracker *Tracker,
	processNames []string, interval time.Duration) *Poller {
	return &Poller{
		logger:       rootLogger.Named("poller"),
		source:       source,
		tracker:      tracker,
		processNames: processNames,
		interval:     interval,
		running:      atomic.NewBool(false),
	}
}

func (p *Poller) Start() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.running.Load() {
		p.logger.Warn("Poller is already running, ignoring start")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running.Store(true)

	p.waitGroup.Add(1)
	go p.pollLoop(ctx)

	p.logger.Info("Started polling", zap.Duration("Interval", p.interval),
		zap.Strings("ProcessNames", p.processNames))
}

// Stop cancels the loop and blocks until the in-flight cycle (if any)
// completes. Safe to call from any goroutine; calling it while idle is
// a logged no-op.
func (p *Poller) Stop() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if !p.running.Load() {
		p.logger.Warn("Poller is not running, ignoring stop")
		return
	}

	p.cancel()
	p.waitGroup.Wait()
	p.running.Store(false)

	p.logger.Info("Stopped polling")
}

func (p *Poller) Running() bool {
	return p.running.Load()
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer p.waitGroup.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Reconcile immediately so already-running processes are registered
	// without waiting out the first interval.
	p.pollOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Re-check cancellation: a tick may already be buffered when
			// Stop is called, and no cycle may start after it.
			select {
			case <-ctx.Done():
				return
			default:
			}
			p.pollOnce()
		}
	}
}

// pollOnce runs a single snapshot-diff cycle. Any failure, including a
// panic out of the reconcile path, is logged and treated as "no
// reconciliation happened this cycle".
func (p *Poller) pollOnce() {
	defer func() {
		if recovered := recover(); recovered != nil {
			p.logger.Error("Poll cycle panicked, skipping cycle", zap.Any("Panic", recovered))
		}
	}()

	observed, err := p.source.ListProcesses(p.processNames)
	if err != nil {
		p.logger.Warn("Failed to list processes, skipping cycle", zap.Error(err))
		return
	}

	p.tracker.Reconcile(observed, time.Now().UTC())
}
