package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "afitlms-enroll"

// MachineID returns an ID identifying the machine, derived from the OS
// machine ID so the raw value isn't exposed. It falls back to the hostname.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "enroll"
}
