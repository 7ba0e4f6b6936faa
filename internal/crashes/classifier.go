package crashes

import "time"

// Classify flags a termination as a suspected crash when the process
// ran for less than the configured threshold. A process that dies
// within seconds of starting was unlikely to have been closed
// deliberately; a long-lived one is assumed to have exited normally.
// This is a heuristic with no false-positive or false-negative
// guarantee. A runtime exactly at the threshold is not suspected.
func Classify(runtime, threshold time.Duration) bool {
	return runtime < threshold
}
