package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves an ID identifying the machine, scoped to this
// application so the raw machine ID isn't exposed.
func MachineID() string {
	id, err := machineid.ProtectedID("lidar")
	if err != nil {
		glog.Warningf("machine ID unavailable: %v", err)
		return ""
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
