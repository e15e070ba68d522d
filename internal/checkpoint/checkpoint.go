// Package checkpoint persists run state so an interrupted build can resume
// exactly where it stopped.
package checkpoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/slovnyk/internal"
)

// ErrNoCheckpoint is returned by the loaders when no usable checkpoint exists.
var ErrNoCheckpoint = errors.New("no usable checkpoint")

// ArchiveTimeFormat stamps archived checkpoints and final artifacts.
const ArchiveTimeFormat = "20060102_150405"

const backupSuffix = ".bak"

// RunState is the resumable state of one dictionary build.
type RunState struct {
	Timestamp         time.Time                  `json:"timestamp"`
	ModelUsed         string                     `json:"model_used"`
	TargetLanguage    string                     `json:"target_language"`
	Mode              string                     `json:"mode"`
	Batch             int                        `json:"batch"`
	CompletedPrefixes []string                   `json:"completed_prefixes"`
	FailedPrefixes    []string                   `json:"failed_prefixes"`
	Words             []internal.DictionaryEntry `json:"words"`
	Metrics           internal.Metrics           `json:"metrics"`
	RuntimeSec        int64                      `json:"runtime_sec"`
	UseVectors        bool                       `json:"use_vectors"`
	RunID             string                     `json:"run_id,omitempty"`
}

// Store owns the checkpoint file at Path and its ".bak" sibling.
type Store struct {
	path   string
	logger *zap.Logger

	// writeFile writes the primary file; replaced in tests to simulate
	// failures mid-save.
	writeFile func(name string, data []byte) error
}

func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger, writeFile: writeSynced}
}

func (s *Store) Path() string       { return s.path }
func (s *Store) BackupPath() string { return s.path + backupSuffix }

// Save writes state with a backup protocol: the current file is renamed to
// BackupPath, the new state is written to Path, and the backup is removed
// only after the write succeeded. A failed write restores the backup, so a
// readable checkpoint exists on disk at every instant.
func (s *Store) Save(state *RunState) error {
	data, err := encode(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create checkpoint dir: %w", err)
		}
	}

	backup := s.BackupPath()
	hadPrimary := false
	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, backup); err != nil {
			return fmt.Errorf("failed to back up checkpoint: %w", err)
		}
		hadPrimary = true
	}

	if err := s.writeFile(s.path, data); err != nil {
		if hadPrimary {
			if rerr := os.Rename(backup, s.path); rerr != nil {
				s.logger.Error("failed to restore checkpoint backup",
					zap.String("backup", backup),
					zap.Error(rerr))
			}
		}
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove checkpoint backup", zap.String("backup", backup), zap.Error(err))
	}
	return nil
}

// Load returns the primary checkpoint, or the backup when the primary is
// missing or unreadable. When neither is usable it returns an empty state
// and ErrNoCheckpoint; malformed files are logged, never fatal.
func (s *Store) Load() (*RunState, error) {
	for _, p := range []string{s.path, s.BackupPath()} {
		state, err := s.readFile(p)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("ignoring unreadable checkpoint", zap.String("path", p), zap.Error(err))
		}
	}
	return &RunState{}, ErrNoCheckpoint
}

// LoadLatestArchive returns the newest checkpoint archived by Archive.
func (s *Store) LoadLatestArchive() (*RunState, string, error) {
	archives, err := s.Archives()
	if err != nil {
		return &RunState{}, "", err
	}
	for i := len(archives) - 1; i >= 0; i-- {
		state, err := s.readFile(archives[i])
		if err == nil {
			return state, archives[i], nil
		}
		s.logger.Warn("ignoring unreadable archive", zap.String("path", archives[i]), zap.Error(err))
	}
	return &RunState{}, "", ErrNoCheckpoint
}

// Archives lists archived checkpoints oldest first.
func (s *Store) Archives() ([]string, error) {
	dir, base := filepath.Split(s.path)
	matches, err := filepath.Glob(filepath.Join(dir, "completed_*_"+base))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ArchivePath is where Archive moves the checkpoint for a given time.
func (s *Store) ArchivePath(at time.Time) string {
	dir, base := filepath.Split(s.path)
	return filepath.Join(dir, fmt.Sprintf("completed_%s_%s", at.Format(ArchiveTimeFormat), base))
}

// Archive renames the checkpoint to ArchivePath(at). A missing checkpoint is
// not an error; the returned path is empty then.
func (s *Store) Archive(at time.Time) (string, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	dst := s.ArchivePath(at)
	if err := os.Rename(s.path, dst); err != nil {
		return "", fmt.Errorf("failed to archive checkpoint: %w", err)
	}
	return dst, nil
}

// Remove deletes the checkpoint and its backup.
func (s *Store) Remove() error {
	var errs []error
	for _, p := range []string{s.path, s.BackupPath()} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) readFile(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &state, nil
}

func encode(state *RunState) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSynced(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
