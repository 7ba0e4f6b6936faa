package eventlog

import (
	"context"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	wevtutilBinary  = "wevtutil"
	applicationLog  = "Application"
	maxQueriedItems = "200"
	queryTimeout    = time.Second * 10
)

// NewSource returns a Windows Application event log reader backed by
// wevtutil, or the unavailable variant when the binary is missing.
func NewSource(rootLogger *zap.Logger) Source {
	if _, err := exec.LookPath(wevtutilBinary); err != nil {
		return unavailableSource{}
	}
	return &wevtutilSource{logger: rootLogger.Named("eventlog-source")}
}

type wevtutilSource struct {
	logger *zap.Logger
}

func (s *wevtutilSource) Available() bool {
	return true
}

func (s *wevtutilSource) QueryErrorsSince(ctx context.Context, since time.Time) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// Level=2 is the error level in the Windows event schema.
	cmd := exec.CommandContext(ctx, wevtutilBinary, "qe", applicationLog,
		"/q:*[System[Level=2]]", "/rd:true", "/f:text", "/c:"+maxQueriedItems)

	output, err := cmd.Output()
	if err != nil {
		return nil, errors.WithMessage(err, "query application event log")
	}

	return parseTextEvents(string(output), since), nil
}
