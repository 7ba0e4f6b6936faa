package eventlog

import (
	"testing"
	"time"
)

const sampleOutput = `Event[0]:
  Log Name: Application
  Source: Application Error
  Date: 2023-06-10T14:22:31.000
  Event ID: 1000
  Level: Error
  Description:
  Faulting application name: ExeFile.exe, version: 1.0.0.0
  Faulting module name: ntdll.dll

Event[1]:
  Log Name: Application
  Source: .NET Runtime
  Date: 2023-06-09T08:00:00.000
  Event ID: 1026
  Level: Error
  Description:
  Application: other.exe
`

func TestParseTextEvents(t *testing.T) {
	since := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	records := parseTextEvents(sampleOutput, since)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Provider != "Application Error" {
		t.Errorf("Provider = %q", first.Provider)
	}
	if first.Time.Day() != 10 {
		t.Errorf("Time = %v, want June 10th", first.Time)
	}
	wantMessage := "Faulting application name: ExeFile.exe, version: 1.0.0.0 Faulting module name: ntdll.dll"
	if first.Message != wantMessage {
		t.Errorf("Message = %q, want %q", first.Message, wantMessage)
	}
}

func TestParseTextEvents_SinceCutoff(t *testing.T) {
	since := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)

	records := parseTextEvents(sampleOutput, since)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 after cutoff", len(records))
	}
	if records[0].Provider != "Application Error" {
		t.Errorf("Provider = %q", records[0].Provider)
	}
}

func TestParseTextEvents_Empty(t *testing.T) {
	if records := parseTextEvents("", time.Time{}); len(records) != 0 {
		t.Fatalf("got %d records from empty output", len(records))
	}
}
