// Package storage provides local filesystem storage for uploaded answer
// media.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crewmint/depot/internal/checklist"
	"go.uber.org/zap"
)

// Local stores files under a base directory. Paths handed to callers are
// relative to the base dir.
type Local struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocal creates a Local store rooted at baseDir.
func NewLocal(baseDir string, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{baseDir: baseDir, logger: logger}
}

// Save writes content under namespace/name and returns the relative path.
func (s *Local) Save(namespace, name string, content []byte) (string, error) {
	rel := filepath.Join(namespace, name)
	full := filepath.Join(s.baseDir, rel)
	if err := s.validatePath(full); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", rel, err)
	}

	s.logger.Debug("file saved", zap.String("path", rel), zap.Int("size", len(content)))
	return rel, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Local) Delete(rel string) error {
	full := filepath.Join(s.baseDir, rel)
	if err := s.validatePath(full); err != nil {
		return err
	}
	if _, err := os.Stat(full); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("storage: delete %s: %w", rel, err)
	}
	s.logger.Debug("file deleted", zap.String("path", rel))
	return nil
}

// Exists reports whether a stored file is present.
func (s *Local) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.baseDir, rel))
	return err == nil
}

// DeleteAnswerFiles removes a caller-supplied list of answer media paths,
// filtered to the instruction_answers namespace so the list can never reach
// arbitrary files. Best-effort: individual failures are logged and skipped.
func (s *Local) DeleteAnswerFiles(paths []string) {
	for _, p := range checklist.DeletableAnswerPaths(paths) {
		if err := s.Delete(p); err != nil {
			s.logger.Warn("answer file delete failed", zap.String("path", p), zap.Error(err))
		}
	}
}

// validatePath rejects paths that escape the base directory.
func (s *Local) validatePath(full string) error {
	absPath, err := filepath.Abs(full)
	if err != nil {
		return fmt.Errorf("storage: resolve %s: %w", full, err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("storage: resolve base dir: %w", err)
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("storage: path escapes base directory: %s", full)
	}
	return nil
}
