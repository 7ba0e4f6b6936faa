package eventlog

import (
	"strings"
	"time"
)

const eventDateLayout = "2006-01-02T15:04:05.000"

// parseTextEvents walks wevtutil's /f:text output. Each event block
// starts with an "Event[n]:" line followed by indented key/value lines;
// the description spans every line after the "Description:" key.
// Records at or before the cutoff are dropped.
func parseTextEvents(output string, since time.Time) []Record {
	var (
		records       []Record
		current       *Record
		inDescription bool
	)

	flush := func() {
		if current != nil && current.Time.After(since) {
			current.Message = strings.TrimSpace(current.Message)
			records = append(records, *current)
		}
		current = nil
		inDescription = false
	}

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "Event[") {
			flush()
			current = &Record{}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "Source:"):
			current.Provider = strings.TrimSpace(strings.TrimPrefix(trimmed, "Source:"))
			inDescription = false
		case strings.HasPrefix(trimmed, "Date:"):
			raw := strings.TrimSpace(strings.TrimPrefix(trimmed, "Date:"))
			if parsed, err := time.Parse(eventDateLayout, raw); err == nil {
				current.Time = parsed
			}
			inDescription = false
		case strings.HasPrefix(trimmed, "Description:"):
			current.Message = strings.TrimSpace(strings.TrimPrefix(trimmed, "Description:"))
			inDescription = true
		case inDescription && trimmed != "":
			if current.Message != "" {
				current.Message += " "
			}
			current.Message += trimmed
		}
	}
	flush()

	return records
}
