package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/config"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/extractor"
)

// Open returns the journal for driver stored at path.
func Open(driver, path string) (domain.Journal, error) {
	switch driver {
	case config.DriverSQLite, "":
		return NewSQLite(path)
	case config.DriverJSON:
		return NewJSON(path)
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
}

func prepare(rec *domain.Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	rec.Status = domain.StatusPending
	rec.FinishedAt = nil
	rec.OwnerPID = os.Getpid()
	rec.OwnerHost = hostname()
}

// cleanup removes the workspaces an interrupted extraction left next to
// its destination. Callers check reclaimable first.
func cleanup(rec domain.Record) {
	log := logrus.WithFields(logrus.Fields{
		"id":          rec.ID,
		"destination": rec.Destination,
	})
	log.Warn("recovering from interrupted extraction")

	matches, err := filepath.Glob(extractor.WorkspaceGlob(rec.Destination))
	if err != nil {
		log.WithError(err).Warn("failed to look for workspaces")
		return
	}
	for _, dir := range matches {
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).WithField("workspace", dir).Warn("failed to remove workspace")
		}
	}
}

const interrupted = "interrupted before commit"
