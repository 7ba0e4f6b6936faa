package host

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/pkg/errors"
)

// MachineId returns a stable identifier for this machine, falling back
// to the hostname when the platform exposes no machine id.
func MachineId() (string, error) {
	id, err := machineid.ID()
	if err == nil {
		return id, nil
	}

	hostname, hostErr := os.Hostname()
	if hostErr != nil {
		return "", errors.WithMessage(err, "get machine id")
	}
	return hostname, nil
}
