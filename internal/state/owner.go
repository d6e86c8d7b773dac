package state

import (
	"os"

	"github.com/teamcutter/unarc/internal/domain"
)

// processAlive is swapped in tests.
var processAlive = alive

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}

// reclaimable reports whether a pending record's owner is known to have
// exited. Records of another host are left alone since their process cannot
// be checked from here.
func reclaimable(rec domain.Record) bool {
	if rec.OwnerPID == 0 {
		return true
	}
	if rec.OwnerHost != hostname() {
		return false
	}
	return !processAlive(rec.OwnerPID)
}
