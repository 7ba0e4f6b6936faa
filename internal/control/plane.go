package control

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/crashmon/agent/internal/config"
	"github.com/crashmon/agent/internal/crashes"
	"github.com/crashmon/agent/internal/detection"
	"github.com/crashmon/agent/internal/eventlog"
	"github.com/crashmon/agent/internal/host"
	"github.com/crashmon/agent/internal/processes"
	"github.com/crashmon/agent/internal/reports"
	"github.com/crashmon/agent/internal/types"
	"go.uber.org/zap"
)

// Plane wires the monitoring components together and is the surface the
// CLI talks to: start/stop the poller, query live status, build
// reports. Start and Stop may be called from a different goroutine than
// the poll loop.
type Plane struct {
	logger    *zap.Logger
	config    *config.Config
	store     *crashes.Store
	tracker   *detection.Tracker
	poller    *detection.Poller
	eventLog  eventlog.Source
	machineId string

	lock      sync.Mutex
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
}

// Status is the foreground view of the monitoring state, built from an
// immutable registry snapshot.
type Status struct {
	Monitoring       bool        `json:"monitoring"`
	LiveProcessCount int         `json:"live_process_count"`
	TrackedPids      []types.Pid `json:"tracked_pids"`
}

func NewPlane(rootLogger *zap.Logger, cfg *config.Config) (*Plane, error) {
	logger := rootLogger.Named("control-plane")

	machineId, err := host.MachineId()
	if err != nil {
		logger.Warn("Failed to resolve machine id, reports will be untagged", zap.Error(err))
	}

	store := crashes.NewStore(rootLogger, cfg.EventStorePath, cfg.MaxStoredEvents)
	tracker := detection.NewTracker(rootLogger, store, cfg.CrashThreshold())
	source := processes.NewPsUtilSource(rootLogger)
	poller := detection.NewPoller(rootLogger, source, tracker, cfg.ProcessNames, cfg.PollInterval())

	return &Plane{
		logger:    logger,
		config:    cfg,
		store:     store,
		tracker:   tracker,
		poller:    poller,
		eventLog:  eventlog.NewSource(rootLogger),
		machineId: machineId,
	}, nil
}

// Start begins polling and, when the capability is present and enabled,
// the event-log scan loop. Idempotent: starting a started plane only
// logs a warning (via the poller).
func (p *Plane) Start() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.poller.Start()

	if p.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	if p.config.EventLogMonitoring && p.eventLog.Available() {
		p.waitGroup.Add(1)
		go p.scanEventLog(ctx)
	} else if p.config.EventLogMonitoring {
		p.logger.Info("System event log unavailable, relying on process monitoring only")
	}

	return nil
}

// Stop halts the poll loop (waiting out the in-flight cycle) and the
// event-log scan loop.
func (p *Plane) Stop() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.poller.Stop()

	if p.cancel != nil {
		p.cancel()
		p.waitGroup.Wait()
		p.cancel = nil
	}

	return nil
}

func (p *Plane) Status() *Status {
	tracked := p.tracker.Tracked()

	pids := make([]types.Pid, 0, len(tracked))
	for _, process := range tracked {
		pids = append(pids, process.Pid)
	}

	return &Status{
		Monitoring:       p.poller.Running(),
		LiveProcessCount: len(tracked),
		TrackedPids:      pids,
	}
}

// CrashReport aggregates the stored history as of now. Independent of
// the polling lifecycle: works while stopped and while appending.
func (p *Plane) CrashReport() *reports.CrashReport {
	return reports.NewCrashReport(p.machineId, p.store.Snapshot(), time.Now().UTC(), reports.DefaultRecentWindowDays)
}

func (p *Plane) HostStatusReport() (*reports.HostStatusReport, error) {
	return reports.NewHostStatusReport(p.machineId)
}

// scanEventLog periodically reads error records from the system event
// log and surfaces the ones mentioning a monitored process. This is a
// corroboration signal for the operator's log, not part of the stored
// crash history.
func (p *Plane) scanEventLog(ctx context.Context) {
	defer p.waitGroup.Done()

	lastCheck := time.Now().Add(-time.Minute * 5)
	ticker := time.NewTicker(p.config.EventLogScanInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()

			records, err := p.eventLog.QueryErrorsSince(ctx, lastCheck)
			if err != nil {
				p.logger.Warn("Failed to query system event log", zap.Error(err))
				continue
			}
			lastCheck = now

			for _, record := range records {
				if !p.mentionsMonitoredProcess(record) {
					continue
				}
				p.logger.Warn("System event log reported an application error for a monitored process",
					zap.String("Provider", record.Provider), zap.Time("Time", record.Time),
					zap.String("Message", record.Message))
			}
		}
	}
}

func (p *Plane) mentionsMonitoredProcess(record eventlog.Record) bool {
	haystack := strings.ToLower(record.Provider + " " + record.Message)
	for _, name := range p.config.ProcessNames {
		if strings.Contains(haystack, strings.ToLower(name)) {
			return true
		}
	}
	return false
}
