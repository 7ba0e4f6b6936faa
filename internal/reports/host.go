package reports

import (
	"encoding/json"

	"github.com/crashmon/agent/internal/types"
	"github.com/pkg/errors"
	psHost "github.com/shirou/gopsutil/host"
	"gopkg.in/guregu/null.v3"
)

// HostStatusReport identifies the machine the crash history belongs to.
type HostStatusReport struct {
	HostMachineId   string    `json:"host_machine_id,omitempty"`
	Hostname        string    `json:"hostname"`
	OS              string    `json:"os"`
	Platform        string    `json:"platform"`
	PlatformVersion string    `json:"platform_version"`
	LastBootTime    null.Time `json:"last_boot_time"`
}

func NewHostStatusReport(machineId string) (*HostStatusReport, error) {
	hostInfo, err := psHost.Info()
	if err != nil {
		return nil, errors.WithMessage(err, "get host info")
	}

	return &HostStatusReport{
		HostMachineId:   machineId,
		Hostname:        hostInfo.Hostname,
		OS:              hostInfo.OS,
		Platform:        hostInfo.Platform,
		PlatformVersion: hostInfo.PlatformVersion,
		LastBootTime:    null.TimeFrom(types.TimeFromTimestamp(int64(hostInfo.BootTime))),
	}, nil
}

func (h *HostStatusReport) ReportName() string {
	return "host-status-report"
}

func (h *HostStatusReport) DumpReport() ([]byte, error) {
	return json.Marshal(h)
}
