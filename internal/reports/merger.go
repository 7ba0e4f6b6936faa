package reports

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MergeReports flattens several reports into a single JSON-compatible
// map. Later reports win on key collisions.
func MergeReports(reportsToMerge ...Report) (map[string]interface{}, error) {
	merged := make(map[string]interface{})

	for _, report := range reportsToMerge {
		reportName := report.ReportName()

		dump, err := report.DumpReport()
		if err != nil {
			return nil, errors.WithMessagef(err, "dump report '%s'", reportName)
		}

		if err := json.Unmarshal(dump, &merged); err != nil {
			return nil, errors.WithMessagef(err, "merge with report '%s'", reportName)
		}
	}

	return merged, nil
}
