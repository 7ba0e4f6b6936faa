package types

import "time"

// TimeFromMillisecondTimestamp converts a Unix timestamp in milliseconds
// (gopsutil reports process create times this way) to a UTC time.
func TimeFromMillisecondTimestamp(timestamp int64) time.Time {
	return time.Unix(timestamp/1000, (timestamp%1000)*int64(time.Millisecond)).UTC()
}

func TimeFromTimestamp(timestamp int64) time.Time {
	return time.Unix(timestamp, 0).UTC()
}
