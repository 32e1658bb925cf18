package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Storage hands out intermediate files for one merge run inside a
// directory on the local filesystem. Every file it creates is owned by the
// run; files it did not create are never touched.
type Storage struct {
	dir     string
	runID   string
	seq     int
	created map[string]int
	logger  logrus.FieldLogger
}

func NewLocalStorage(dir, runID string, logger logrus.FieldLogger) *Storage {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Storage{
		dir:     dir,
		runID:   runID,
		created: make(map[string]int),
		logger:  logger.WithField("run_id", runID),
	}
}

func (s *Storage) Dir() string { return s.dir }

func (s *Storage) RunID() string { return s.runID }

// Init creates the directory if it does not exist yet.
func (s *Storage) Init(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp directory %s: %w", s.dir, err)
	}
	return nil
}

// Next returns the next file name of the run: {dir}/{runID}.{seq}.tmp.
func (s *Storage) Next() string {
	name := filepath.Join(s.dir, fmt.Sprintf("%s.%d.tmp", s.runID, s.seq))
	s.seq++
	return name
}

// Create opens a fresh intermediate file for writing. The file is owned by
// the run from this moment on, even if writing to it later fails.
func (s *Storage) Create(_ context.Context) (string, io.WriteCloser, error) {
	seq := s.seq
	path := s.Next()
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	s.created[path] = seq
	return path, file, nil
}

// Owns reports whether path was created by this run.
func (s *Storage) Owns(path string) bool {
	_, ok := s.created[path]
	return ok
}

// Created returns how many files the run has created.
func (s *Storage) Created() int { return s.seq }

// List returns the run-owned files that still exist on disk, in creation
// order.
func (s *Storage) List(_ context.Context) ([]string, error) {
	var files []string
	for path := range s.created {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
		}
		files = append(files, path)
	}
	sort.Slice(files, func(i, j int) bool {
		return s.created[files[i]] < s.created[files[j]]
	})
	return files, nil
}

// Cleanup removes every run-owned file still on disk. It keeps going
// after a failure and reports all of them.
func (s *Storage) Cleanup(ctx context.Context) error {
	files, err := s.List(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, path := range files {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithField("action", "cleanup").WithField("path", path).WithError(err).
				Warn("failed to remove intermediate file")
			result = multierror.Append(result, fmt.Errorf("failed to delete file %s: %w", path, err))
			continue
		}
		s.logger.WithField("action", "cleanup").WithField("path", path).Debug("removed leftover intermediate file")
		delete(s.created, path)
	}
	return result.ErrorOrNil()
}
