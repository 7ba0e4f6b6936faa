package processes

import (
	"strings"
	"time"

	"github.com/crashmon/agent/internal/types"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	psUtil "github.com/shirou/gopsutil/process"
	"go.uber.org/zap"
)

// ObservedProcess is one matching process as seen in a single snapshot.
type ObservedProcess struct {
	Pid         types.Pid
	Name        string
	StartTime   time.Time
	MemoryBytes uint64
}

// Source produces one-shot snapshots of the processes matching the given
// names. An empty result is not an error; only a platform-level failure
// to enumerate the process table is.
type Source interface {
	ListProcesses(names []string) ([]ObservedProcess, error)
}

type psUtilSource struct {
	logger *zap.Logger
}

func NewPsUtilSource(rootLogger *zap.Logger) Source {
	return &psUtilSource{logger: rootLogger.Named("process-source")}
}

func (s *psUtilSource) ListProcesses(names []string) ([]ObservedProcess, error) {
	liveProcesses, err := psUtil.Processes()
	if err != nil {
		return nil, errors.WithMessage(err, "get live process list")
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = true
	}

	observed := make([]ObservedProcess, 0, len(names))

	var errs error

	for _, liveProcess := range liveProcesses {
		name, err := liveProcess.Name()
		if err != nil {
			// Processes routinely vanish between enumeration and inspection.
			continue
		}

		if !wanted[strings.ToLower(name)] {
			continue
		}

		createTimeMilliseconds, err := liveProcess.CreateTime()
		if err != nil {
			errs = multierror.Append(errs, errors.WithMessagef(err, "get create time for pid '%d'", liveProcess.Pid))
			continue
		}

		memoryInfo, err := liveProcess.MemoryInfo()
		if err != nil {
			errs = multierror.Append(errs, errors.WithMessagef(err, "get memory info for pid '%d'", liveProcess.Pid))
			continue
		}

		observed = append(observed, ObservedProcess{
			Pid:         types.Pid(liveProcess.Pid),
			Name:        name,
			StartTime:   types.TimeFromMillisecondTimestamp(createTimeMilliseconds),
			MemoryBytes: memoryInfo.RSS,
		})
	}

	if errs != nil {
		s.logger.Debug("Some matching processes could not be inspected", zap.Error(errs))
	}

	return observed, nil
}
