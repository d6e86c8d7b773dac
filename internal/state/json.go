package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/teamcutter/unarc/internal/domain"
)

type journalFile struct {
	Records []domain.Record `json:"records"`
}

// JSONJournal keeps the journal in a single JSON file that is rewritten on
// every change.
type JSONJournal struct {
	mu      sync.RWMutex
	path    string
	records []domain.Record
}

func NewJSON(path string) (*JSONJournal, error) {
	j := &JSONJournal{path: path}
	if err := j.load(); err != nil {
		return nil, err
	}
	if err := j.recover(); err != nil {
		return nil, fmt.Errorf("failed to recover: %w", err)
	}
	return j, nil
}

func (j *JSONJournal) load() error {
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file journalFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", j.path, err)
	}
	j.records = file.Records
	return nil
}

func (j *JSONJournal) recover() error {
	changed := false
	now := time.Now().UTC()
	for i := range j.records {
		rec := &j.records[i]
		if rec.Status != domain.StatusPending || !reclaimable(*rec) {
			continue
		}
		cleanup(*rec)
		rec.Status = domain.StatusAbandoned
		rec.Error = interrupted
		rec.FinishedAt = &now
		changed = true
	}
	if !changed {
		return nil
	}
	return j.flush()
}

func (j *JSONJournal) flush() error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(journalFile{Records: j.records}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0644)
}

func (j *JSONJournal) find(id string) (*domain.Record, error) {
	for i := range j.records {
		if j.records[i].ID == id {
			return &j.records[i], nil
		}
	}
	return nil, fmt.Errorf("extraction %s not found", id)
}

func (j *JSONJournal) Begin(rec *domain.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	prepare(rec)
	j.records = append(j.records, *rec)
	return j.flush()
}

func (j *JSONJournal) Complete(id string, bytes, entries int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, err := j.find(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.Status = domain.StatusCommitted
	rec.Bytes = bytes
	rec.Entries = entries
	rec.FinishedAt = &now
	return j.flush()
}

func (j *JSONJournal) Fail(id string, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, err := j.find(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.Status = domain.StatusFailed
	if cause != nil {
		rec.Error = cause.Error()
	}
	rec.FinishedAt = &now
	return j.flush()
}

func (j *JSONJournal) Get(id string) (*domain.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rec, err := j.find(id)
	if err != nil {
		return nil, err
	}
	out := *rec
	return &out, nil
}

// List returns the newest records first. limit <= 0 returns all of them.
func (j *JSONJournal) List(limit int) ([]domain.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	records := append([]domain.Record(nil), j.records...)
	sort.SliceStable(records, func(a, b int) bool {
		return records[a].StartedAt.After(records[b].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (j *JSONJournal) Close() error {
	return nil
}
