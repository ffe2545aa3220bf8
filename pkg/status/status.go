// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/imgrc/pkg/transcode"
)

// 📊 FileStatus represents the outcome recorded for a file
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusConverted            // Image transcoded successfully
	StatusFailed               // Image transcode failed
	StatusUpdated              // Code file rewritten
	StatusUnchanged            // Code file examined, no references found
	StatusSkipped              // File skipped (undecodable, excluded)
	StatusDeleted              // Original removed after conversion
	StatusRestored             // Original restored from its backup
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusFailed:
		return "failed"
	case StatusUpdated:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	case StatusSkipped:
		return "skipped"
	case StatusDeleted:
		return "deleted"
	case StatusRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains the recorded outcome for a single file
type FileInfo struct {
	Path         string     // Path to the file
	Status       FileStatus // Recorded outcome
	Size         int64      // Size in bytes, where known
	Replacements int        // Replacement count, for rewritten files
	Error        error      // Failure detail, if any
}

// 🔧 Manager tracks per-file outcomes and performs the pipeline's
// filesystem side effects. Progress reporting goes through an optional
// progress bar so the transcode loop stays quiet in non-verbose runs.
type Manager struct {
	stats *RunStats

	mu    sync.RWMutex
	files map[string]FileInfo

	bar         *progressbar.ProgressBar
	progressOut io.Writer
}

// 🏭 NewManager creates a new status manager
func NewManager() *Manager {
	return &Manager{
		stats:       NewRunStats(),
		files:       make(map[string]FileInfo),
		progressOut: os.Stderr,
	}
}

// Stats returns the run statistics accumulator
func (m *Manager) Stats() *RunStats {
	return m.stats
}

// SetProgressWriter redirects progress bar output, used by tests
func (m *Manager) SetProgressWriter(w io.Writer) {
	m.progressOut = w
}

// 📝 TrackFile records the outcome for a file
func (m *Manager) TrackFile(ctx context.Context, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[info.Path] = info

	zerolog.Ctx(ctx).Debug().
		Str("file", info.Path).
		Str("status", info.Status.String()).
		Int("replacements", info.Replacements).
		Err(info.Error).
		Msg("tracked file")
}

// 🔍 GetFileInfo returns the recorded outcome for a path
func (m *Manager) GetFileInfo(path string) (FileInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.files[path]
	return info, ok
}

// 📋 ListFiles returns all recorded outcomes
func (m *Manager) ListFiles() []FileInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FileInfo, 0, len(m.files))
	for _, info := range m.files {
		out = append(out, info)
	}
	return out
}

// ⏳ StartOperation begins progress tracking for a phase
func (m *Manager) StartOperation(ctx context.Context, description string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(m.progressOut),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// ⏳ UpdateProgress advances the progress bar by one item
func (m *Manager) UpdateProgress(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bar != nil {
		_ = m.bar.Add(1)
	}
}

// ✅ FinishOperation completes the current phase's progress tracking
func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bar != nil {
		_ = m.bar.Finish()
		m.bar = nil
	}
}

// Filesystem helpers used by the pipeline

// 🔍 FileExists checks whether a path exists
func (m *Manager) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file %s: %w", path, err)
}

// 📝 WriteFileAtomic writes content via a temp file and rename
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".imgrc-*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if info, err := os.Stat(path); err == nil {
		if err := tmp.Chmod(info.Mode()); err != nil {
			_ = tmp.Close()
			return errors.Errorf("preserving file mode: %w", err)
		}
	}

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Errorf("renaming temp file to %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("bytes", len(content)).Msg("wrote file atomically")
	return nil
}

// 🗑️ DeleteFile removes a file
func (m *Manager) DeleteFile(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return errors.Errorf("deleting %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("deleted file")
	return nil
}

// ♻️ RestoreBackup moves a .backup sibling back over its original path
func (m *Manager) RestoreBackup(ctx context.Context, backupPath string) (string, error) {
	if !strings.HasSuffix(backupPath, transcode.BackupSuffix) {
		return "", errors.Errorf("not a backup file: %s", backupPath)
	}
	originalPath := strings.TrimSuffix(backupPath, transcode.BackupSuffix)

	if err := os.Rename(backupPath, originalPath); err != nil {
		return "", errors.Errorf("restoring %s: %w", backupPath, err)
	}

	zerolog.Ctx(ctx).Debug().Str("backup", backupPath).Str("original", originalPath).Msg("restored backup")
	return originalPath, nil
}
