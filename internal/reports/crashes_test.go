package reports

import (
	"testing"
	"time"

	"github.com/crashmon/agent/internal/crashes"
	"github.com/crashmon/agent/internal/types"
)

func eventAt(pid types.Pid, timestamp time.Time, suspected bool) *crashes.Event {
	return &crashes.Event{
		Timestamp:      timestamp,
		ProcessName:    "eve.exe",
		Pid:            pid,
		StartedAt:      timestamp.Add(-time.Minute),
		EndedAt:        timestamp,
		RuntimeSeconds: 60,
		SuspectedCrash: suspected,
	}
}

func TestNewCrashReport_EmptyHistory(t *testing.T) {
	now := time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)

	report := NewCrashReport("machine-1", nil, now, 7)

	if report.TotalEvents != 0 {
		t.Errorf("TotalEvents = %d, want 0", report.TotalEvents)
	}
	if report.SuspectedCrashPercentage != 0 {
		t.Errorf("SuspectedCrashPercentage = %v, want 0 (no division error)", report.SuspectedCrashPercentage)
	}
	if report.CrashRatePerDay != 0 {
		t.Errorf("CrashRatePerDay = %v, want 0", report.CrashRatePerDay)
	}
	if report.MostRecentEvent != nil {
		t.Error("MostRecentEvent must be absent for empty history")
	}
}

func TestNewCrashReport_Aggregates(t *testing.T) {
	now := time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)

	events := []*crashes.Event{
		eventAt(1, now.AddDate(0, 0, -30), true), // outside the window
		eventAt(2, now.AddDate(0, 0, -3), true),
		eventAt(3, now.AddDate(0, 0, -2), false),
		eventAt(4, now.AddDate(0, 0, -1), true),
	}

	report := NewCrashReport("machine-1", events, now, 7)

	if report.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", report.TotalEvents)
	}
	if report.SuspectedCrashes != 3 {
		t.Errorf("SuspectedCrashes = %d, want 3", report.SuspectedCrashes)
	}
	if report.RecentEvents != 3 {
		t.Errorf("RecentEvents = %d, want 3 within 7 days", report.RecentEvents)
	}
	if want := 3.0 / 7.0; report.CrashRatePerDay != want {
		t.Errorf("CrashRatePerDay = %v, want %v", report.CrashRatePerDay, want)
	}
	if report.SuspectedCrashPercentage != 75 {
		t.Errorf("SuspectedCrashPercentage = %v, want 75", report.SuspectedCrashPercentage)
	}
	if report.MostRecentEvent == nil || report.MostRecentEvent.Pid != 4 {
		t.Errorf("MostRecentEvent = %+v, want the last event", report.MostRecentEvent)
	}
}

func TestNewCrashReport_InvalidWindowFallsBack(t *testing.T) {
	now := time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)

	report := NewCrashReport("machine-1", nil, now, 0)

	if report.RecentWindowDays != DefaultRecentWindowDays {
		t.Errorf("RecentWindowDays = %d, want default %d", report.RecentWindowDays, DefaultRecentWindowDays)
	}
}

func TestMergeReports(t *testing.T) {
	now := time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC)
	report := NewCrashReport("machine-1", []*crashes.Event{eventAt(1, now, true)}, now, 7)

	merged, err := MergeReports(report)
	if err != nil {
		t.Fatalf("MergeReports: %v", err)
	}

	if merged["total_events"] != float64(1) {
		t.Errorf("total_events = %v, want 1", merged["total_events"])
	}
	if merged["machine_id"] != "machine-1" {
		t.Errorf("machine_id = %v", merged["machine_id"])
	}
}
