package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/compozy/semtag/internal/domain"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// JournalSchemaVersion is written into every run file.
	JournalSchemaVersion = 1
	// DefaultMaxRuns is the number of runs kept when no limit is configured.
	DefaultMaxRuns = 20

	journalFilePermissions = 0o600
	journalDirPermissions  = 0o700
	journalLockName        = ".journal.lock"
	journalLockTimeout     = 10 * time.Second
	journalLockRetry       = 50 * time.Millisecond
	runFileExt             = ".json"
	runFileTimeLayout      = "20060102T150405.000000000"
)

// ErrRunNotFound is returned when the journal has no run for the request.
var ErrRunNotFound = errors.New("run not found")

// RunJournal records apply runs. Each apply invocation rewrites its own run
// file after every step; status reads runs back.
type RunJournal interface {
	Save(ctx context.Context, run *domain.RunState) error
	Load(ctx context.Context, sessionID string) (*domain.RunState, error)
	LoadLatest(ctx context.Context) (*domain.RunState, error)
}

// runEntry is the on-disk form of a run.
type runEntry struct {
	Schema   int              `json:"schema"`
	Checksum string           `json:"checksum"`
	Run      *domain.RunState `json:"run"`
}

// fileRunJournal keeps one JSON file per run in dir, named so that lexical
// order is start order. A directory-wide flock serializes writers against
// readers.
type fileRunJournal struct {
	fs      afero.Fs
	dir     string
	maxRuns int
	log     *zap.Logger
}

// NewRunJournal creates a journal in dir keeping at most maxRuns runs.
// maxRuns <= 0 keeps every run.
func NewRunJournal(fs afero.Fs, dir string, maxRuns int, log *zap.Logger) RunJournal {
	if dir == "" {
		dir = ".semtag-state"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &fileRunJournal{
		fs:      fs,
		dir:     dir,
		maxRuns: maxRuns,
		log:     log.With(zap.String("journal", dir)),
	}
}

// Save writes run and, the first time a run is written, drops the oldest
// runs beyond the retention limit.
func (j *fileRunJournal) Save(ctx context.Context, run *domain.RunState) error {
	if run == nil || run.SessionID == "" {
		return errors.New("run has no session id")
	}
	if err := j.fs.MkdirAll(j.dir, journalDirPermissions); err != nil {
		return fmt.Errorf("failed to create journal directory %s: %w", j.dir, err)
	}
	unlock, err := j.lock(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()
	data, err := encodeRun(run)
	if err != nil {
		return err
	}
	path := filepath.Join(j.dir, runFileName(run))
	_, statErr := j.fs.Stat(path)
	created := os.IsNotExist(statErr)
	tmp := path + ".tmp"
	if err := afero.WriteFile(j.fs, tmp, data, journalFilePermissions); err != nil {
		return fmt.Errorf("failed to write run %s: %w", run.SessionID, err)
	}
	if err := j.fs.Rename(tmp, path); err != nil {
		if removeErr := j.fs.Remove(tmp); removeErr != nil {
			j.log.Warn("failed to remove temp run file", zap.String("file", tmp), zap.Error(removeErr))
		}
		return fmt.Errorf("failed to write run %s: %w", run.SessionID, err)
	}
	if created {
		j.prune()
	}
	return nil
}

// Load returns the run recorded under sessionID.
func (j *fileRunJournal) Load(ctx context.Context, sessionID string) (*domain.RunState, error) {
	names, unlock, err := j.readRuns(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, name := range names {
		if sessionOf(name) == sessionID {
			return j.decode(name)
		}
	}
	return nil, fmt.Errorf("%w: session %s in %s", ErrRunNotFound, sessionID, j.dir)
}

// LoadLatest returns the most recently started run.
func (j *fileRunJournal) LoadLatest(ctx context.Context) (*domain.RunState, error) {
	names, unlock, err := j.readRuns(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no run recorded in %s", ErrRunNotFound, j.dir)
	}
	return j.decode(names[len(names)-1])
}

// readRuns takes the shared lock and lists run files oldest first. The
// caller releases the lock with the returned func.
func (j *fileRunJournal) readRuns(ctx context.Context) ([]string, func(), error) {
	if _, err := j.fs.Stat(j.dir); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: no run recorded in %s", ErrRunNotFound, j.dir)
	}
	unlock, err := j.lock(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	names, err := j.runFiles()
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return names, unlock, nil
}

func (j *fileRunJournal) runFiles() ([]string, error) {
	infos, err := afero.ReadDir(j.fs, j.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal %s: %w", j.dir, err)
	}
	var names []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, runFileExt) {
			continue
		}
		if sessionOf(name) == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// prune must be called with the exclusive lock held.
func (j *fileRunJournal) prune() {
	if j.maxRuns <= 0 {
		return
	}
	names, err := j.runFiles()
	if err != nil {
		j.log.Warn("failed to prune journal", zap.Error(err))
		return
	}
	for len(names) > j.maxRuns {
		path := filepath.Join(j.dir, names[0])
		if err := j.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			j.log.Warn("failed to remove old run", zap.String("file", path), zap.Error(err))
			return
		}
		j.log.Debug("removed old run", zap.String("session", sessionOf(names[0])))
		names = names[1:]
	}
}

func (j *fileRunJournal) decode(name string) (*domain.RunState, error) {
	data, err := afero.ReadFile(j.fs, filepath.Join(j.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", name, err)
	}
	var entry runEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", name, err)
	}
	if entry.Schema != JournalSchemaVersion {
		return nil, fmt.Errorf("run %s has schema %d, expected %d", name, entry.Schema, JournalSchemaVersion)
	}
	sum, err := checksum(entry.Run)
	if err != nil {
		return nil, err
	}
	if sum != entry.Checksum {
		return nil, fmt.Errorf("run %s: checksum mismatch", name)
	}
	return entry.Run, nil
}

func (j *fileRunJournal) lock(ctx context.Context, exclusive bool) (func(), error) {
	lock := flock.New(filepath.Join(j.dir, journalLockName))
	lockCtx, cancel := context.WithTimeout(ctx, journalLockTimeout)
	defer cancel()
	try := lock.TryRLockContext
	if exclusive {
		try = lock.TryLockContext
	}
	locked, err := try(lockCtx, journalLockRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to lock journal %s: %w", j.dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("journal %s is locked by another run", j.dir)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			j.log.Warn("failed to unlock journal", zap.Error(err))
		}
	}, nil
}

func encodeRun(run *domain.RunState) ([]byte, error) {
	sum, err := checksum(run)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(runEntry{Schema: JournalSchemaVersion, Checksum: sum, Run: run}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode run %s: %w", run.SessionID, err)
	}
	return data, nil
}

func checksum(run *domain.RunState) (string, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to encode run: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// runFileName is "<start time>_<session>.json" in UTC.
func runFileName(run *domain.RunState) string {
	return run.StartedAt.UTC().Format(runFileTimeLayout) + "_" + run.SessionID + runFileExt
}

func sessionOf(name string) string {
	_, session, found := strings.Cut(strings.TrimSuffix(name, runFileExt), "_")
	if !found {
		return ""
	}
	return session
}
