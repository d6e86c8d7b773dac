package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/extractor"
	"github.com/teamcutter/unarc/internal/format"
	"github.com/teamcutter/unarc/internal/progress"
)

// Request is one extraction. URL, when set, supplies the format instead of
// the archive's own name.
type Request struct {
	Archive     string
	Destination string
	URL         string
	Format      domain.Format
	StripRoot   bool
	Progress    domain.ProgressSink
}

type Manager struct {
	journal    domain.Journal
	log        logrus.FieldLogger
	bufferSize int
}

func New(journal domain.Journal, log logrus.FieldLogger, bufferSize int) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Manager{
		journal:    journal,
		log:        log,
		bufferSize: bufferSize,
	}
}

// Extract journals and runs req. When ctx ends first the extraction keeps
// going and its outcome is still journaled.
func (m *Manager) Extract(ctx context.Context, req Request) (*domain.Record, error) {
	archive, err := filepath.Abs(req.Archive)
	if err != nil {
		return nil, err
	}
	dest, err := filepath.Abs(req.Destination)
	if err != nil {
		return nil, err
	}

	counter := &progress.Counter{}
	ex, err := extractor.NewBuilder().
		StripRootDir(req.StripRoot).
		Format(req.Format).
		ProgressSink(progress.Tee(counter, req.Progress)).
		Logger(m.log).
		BufferSize(m.bufferSize).
		BuildAsync()
	if err != nil {
		return nil, err
	}

	rec := &domain.Record{
		Archive:     archive,
		Destination: dest,
		Format:      m.formatOf(req),
		StripRoot:   req.StripRoot,
	}
	if err := m.journal.Begin(rec); err != nil {
		return nil, fmt.Errorf("failed to journal extraction: %w", err)
	}

	var pending *extractor.Pending
	if req.URL != "" {
		pending = ex.ExtractFromURL(archive, dest, req.URL)
	} else {
		pending = ex.Extract(archive, dest)
	}

	if err := pending.Wait(ctx); err != nil && errors.Is(err, ctx.Err()) {
		go m.settle(rec, pending, counter)
		return rec, err
	}

	if err := m.settle(rec, pending, counter); err != nil {
		return rec, err
	}
	if done, err := m.journal.Get(rec.ID); err == nil {
		return done, nil
	}
	return rec, nil
}

func (m *Manager) settle(rec *domain.Record, pending *extractor.Pending, counter *progress.Counter) error {
	err := pending.Wait(context.Background())
	log := m.log.WithFields(logrus.Fields{
		"id":      rec.ID,
		"archive": rec.Archive,
		"done":    counter.Done(),
		"total":   counter.Total(),
	})

	if err != nil {
		if jerr := m.journal.Fail(rec.ID, err); jerr != nil {
			log.WithError(jerr).Warn("failed to journal failure")
		}
		log.WithError(err).Info("extraction failed")
		return err
	}

	stats := pending.Stats()
	if err := m.journal.Complete(rec.ID, stats.Bytes, stats.Entries); err != nil {
		return fmt.Errorf("failed to journal extraction: %w", err)
	}
	log.WithFields(logrus.Fields{
		"entries": stats.Entries,
		"bytes":   stats.Bytes,
	}).Info("extraction committed")
	return nil
}

func (m *Manager) formatOf(req Request) string {
	if req.Format.Valid() {
		return req.Format.String()
	}

	var f domain.Format
	var err error
	if req.URL != "" {
		f, err = format.FromURL(req.URL)
	} else {
		f, err = format.FromPath(req.Archive)
	}
	if err != nil {
		return ""
	}
	return f.String()
}

// List reads archive headers. f overrides detection when valid.
func (m *Manager) List(archive string, f domain.Format) ([]domain.Entry, error) {
	ex, err := extractor.NewBuilder().Format(f).Logger(m.log).Build()
	if err != nil {
		return nil, err
	}
	return ex.List(archive)
}

func (m *Manager) History(limit int) ([]domain.Record, error) {
	return m.journal.List(limit)
}
