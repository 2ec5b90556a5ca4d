// Package journal records each repair run on disk so a failed or interrupted
// run can be inspected afterwards, and serializes runs that share an output
// directory.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the progress of one stage of a run.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Stage names in the order a repair runs them.
const (
	StageInject  = "inject"
	StageRepair  = "repair"
	StageRestore = "restore"
)

const (
	recordVersion = 1
	filePrefix    = "repair-"
	fileSuffix    = ".json"
)

// Stage is the persisted state of one step.
type Stage struct {
	Name      string `json:"name"`
	State     State  `json:"state"`
	LastError string `json:"last_error,omitempty"`
}

// Record describes one repair run.
type Record struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	Wheel     string    `json:"wheel"`
	OutputDir string    `json:"output_dir"`
	Timestamp time.Time `json:"timestamp"`
	Stages    []Stage   `json:"stages"`
	Injected  []string  `json:"injected"`
	Removed   []string  `json:"removed"`
	Output    string    `json:"output,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// New creates a record with every stage pending.
func New(wheelPath, outputDir string) *Record {
	stages := make([]Stage, 0, 3)
	for _, name := range []string{StageInject, StageRepair, StageRestore} {
		stages = append(stages, Stage{Name: name, State: StatePending})
	}

	return &Record{
		Version:   recordVersion,
		ID:        uuid.New().String(),
		Wheel:     wheelPath,
		OutputDir: outputDir,
		Timestamp: time.Now().UTC(),
		Stages:    stages,
		Injected:  []string{},
		Removed:   []string{},
	}
}

// Mark sets the state of the named stage. A non-nil err is also recorded as
// the run's last error.
func (r *Record) Mark(name string, state State, err error) {
	for i := range r.Stages {
		if r.Stages[i].Name != name {
			continue
		}
		r.Stages[i].State = state
		if err != nil {
			r.Stages[i].LastError = err.Error()
			r.LastError = err.Error()
		} else {
			r.Stages[i].LastError = ""
		}
		return
	}
}

// StageState returns the state of the named stage, or "" if unknown.
func (r *Record) StageState(name string) State {
	for _, s := range r.Stages {
		if s.Name == name {
			return s.State
		}
	}
	return ""
}

// Completed reports whether every stage completed.
func (r *Record) Completed() bool {
	for _, s := range r.Stages {
		if s.State != StateCompleted {
			return false
		}
	}
	return len(r.Stages) > 0
}

// FileName is the name Save writes the record under.
func (r *Record) FileName() string {
	return filePrefix + r.ID + fileSuffix
}

// Save writes the record to dir atomically.
func (r *Record) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	finalPath := filepath.Join(dir, r.FileName())
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temporary journal file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename journal file: %w", err)
	}

	df, err := os.Open(dir)
	if err == nil {
		defer df.Close()
		if err := df.Sync(); err != nil {
			return fmt.Errorf("sync directory: %w", err)
		}
	}

	return nil
}

// Load reads a record from disk.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal file: %w", err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal journal record: %w", err)
	}
	if r.Version > recordVersion {
		return nil, fmt.Errorf("journal %s: unsupported version %d", filepath.Base(path), r.Version)
	}

	return &r, nil
}

// List loads every record in dir, oldest first. A missing dir yields an
// empty list.
func List(dir string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal directory: %w", err)
	}

	var records []*Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		r, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	return records, nil
}
