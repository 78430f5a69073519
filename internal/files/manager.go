package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manager stores uploaded spreadsheets under a base directory
type Manager struct {
	baseDir string
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a new file manager instance
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "file_manager")),
		now:     time.Now,
	}
}

// BaseDir returns the directory uploads are written to
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// EnsureDirectory creates the base directory if it doesn't exist
func (m *Manager) EnsureDirectory() error {
	if _, err := os.Stat(m.baseDir); os.IsNotExist(err) {
		m.logger.Info("creating upload directory", slog.String("path", m.baseDir))
		return os.MkdirAll(m.baseDir, 0755)
	}
	return nil
}

// SaveUpload writes an uploaded spreadsheet under a timestamped name and
// returns its path. The write goes through a temp file and a rename so
// discovery never sees a partial file.
func (m *Manager) SaveUpload(name string, data []byte) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || !IsSpreadsheet(base) {
		return "", fmt.Errorf("invalid upload name %q", name)
	}
	if err := m.EnsureDirectory(); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	stamp := m.now().UTC().Format("20060102T150405")
	ext := filepath.Ext(base)
	target := filepath.Join(m.baseDir, fmt.Sprintf("%s_%s%s", stamp, strings.TrimSuffix(base, ext), strings.ToLower(ext)))

	tmp, err := os.CreateTemp(m.baseDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	m.logger.Info("upload stored",
		slog.String("name", name),
		slog.String("path", target),
		slog.Int("size_bytes", len(data)))

	return target, nil
}
