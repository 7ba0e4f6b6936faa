package reports

import (
	"encoding/json"
	"time"

	"github.com/crashmon/agent/internal/crashes"
	"gopkg.in/guregu/null.v3"
)

const DefaultRecentWindowDays = 7

// CrashReport aggregates the stored crash history. It reads a snapshot
// of the store, never live state, so it is safe to build while the
// poller is appending.
type CrashReport struct {
	MachineId                string         `json:"machine_id,omitempty"`
	GeneratedAt              null.Time      `json:"generated_at"`
	TotalEvents              int            `json:"total_events"`
	SuspectedCrashes         int            `json:"suspected_crashes"`
	RecentEvents             int            `json:"recent_events"`
	RecentWindowDays         int            `json:"recent_window_days"`
	CrashRatePerDay          float64        `json:"crash_rate_per_day"`
	SuspectedCrashPercentage float64        `json:"suspected_crash_percentage"`
	MostRecentEvent          *crashes.Event `json:"most_recent_event,omitempty"`
}

// NewCrashReport computes the aggregate view over the given events
// (oldest first) as of now. Empty history yields zeroes, not errors.
func NewCrashReport(machineId string, events []*crashes.Event, now time.Time, recentWindowDays int) *CrashReport {
	if recentWindowDays <= 0 {
		recentWindowDays = DefaultRecentWindowDays
	}

	report := &CrashReport{
		MachineId:        machineId,
		GeneratedAt:      null.TimeFrom(now),
		TotalEvents:      len(events),
		RecentWindowDays: recentWindowDays,
	}

	windowStart := now.AddDate(0, 0, -recentWindowDays)

	for _, event := range events {
		if event.SuspectedCrash {
			report.SuspectedCrashes++
		}
		if !event.Timestamp.Before(windowStart) {
			report.RecentEvents++
		}
	}

	report.CrashRatePerDay = float64(report.RecentEvents) / float64(recentWindowDays)

	if report.TotalEvents > 0 {
		report.SuspectedCrashPercentage = 100 * float64(report.SuspectedCrashes) / float64(report.TotalEvents)
		report.MostRecentEvent = events[len(events)-1]
	}

	return report
}

func (r *CrashReport) ReportName() string {
	return "crash-report"
}

func (r *CrashReport) DumpReport() ([]byte, error) {
	return json.Marshal(r)
}
