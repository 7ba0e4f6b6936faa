// +build !windows

package eventlog

import "go.uber.org/zap"

// NewSource returns the unavailable variant: only Windows exposes a
// system event log this agent knows how to read.
func NewSource(*zap.Logger) Source {
	return unavailableSource{}
}
