package status_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/imgrc/pkg/status"
)

// 🧪 TestRunStats_Accumulation tests counter accumulation and the reduction math
func TestRunStats_Accumulation(t *testing.T) {
	stats := status.NewRunStats()

	stats.AddImage(1000)
	stats.AddImage(500)
	stats.AddConverted(300)
	stats.AddConverted(200)
	stats.AddImage(100)
	stats.AddFailed()
	stats.AddScannedCodeFile()
	stats.AddScannedCodeFile()
	stats.AddRewrite(3)
	stats.AddRewrite(0) // no replacements, not an update
	stats.AddDeleted()
	stats.AddBackup()

	sn := stats.Snapshot()
	assert.Equal(t, 3, sn.ImagesFound)
	assert.Equal(t, 2, sn.ImagesConverted)
	assert.Equal(t, 1, sn.ImagesFailed)
	assert.Equal(t, int64(1600), sn.OriginalBytes)
	assert.Equal(t, int64(500), sn.NewBytes)
	assert.Equal(t, 2, sn.CodeFilesScanned)
	assert.Equal(t, 1, sn.FilesUpdated)
	assert.Equal(t, 3, sn.Replacements)
	assert.Equal(t, 1, sn.OriginalsDeleted)
	assert.Equal(t, 1, sn.BackupsCreated)
	assert.InDelta(t, 68.75, sn.Reduction(), 0.01)
}

// 🧪 TestRunStats_Concurrent tests that parallel workers can share the accumulator
func TestRunStats_Concurrent(t *testing.T) {
	stats := status.NewRunStats()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.AddScannedCodeFile()
			stats.AddRewrite(2)
		}()
	}
	wg.Wait()

	sn := stats.Snapshot()
	assert.Equal(t, 50, sn.CodeFilesScanned)
	assert.Equal(t, 50, sn.FilesUpdated)
	assert.Equal(t, 100, sn.Replacements)
}

// 🧪 TestRunStats_EmptyReduction tests the zero-byte edge case
func TestRunStats_EmptyReduction(t *testing.T) {
	sn := status.NewRunStats().Snapshot()
	assert.Equal(t, 0.0, sn.Reduction())
}

// 🧪 TestManager_TrackFile tests per-file outcome tracking
func TestManager_TrackFile(t *testing.T) {
	mgr := status.NewManager()
	ctx := context.Background()

	mgr.TrackFile(ctx, status.FileInfo{Path: "a.jpg", Status: status.StatusConverted, Size: 100})
	mgr.TrackFile(ctx, status.FileInfo{Path: "b.html", Status: status.StatusUpdated, Replacements: 2})

	info, ok := mgr.GetFileInfo("a.jpg")
	require.True(t, ok)
	assert.Equal(t, status.StatusConverted, info.Status)
	assert.Equal(t, "converted", info.Status.String())

	assert.Len(t, mgr.ListFiles(), 2)
}

// 🧪 TestManager_WriteFileAtomic tests atomic writes preserve mode
func TestManager_WriteFileAtomic(t *testing.T) {
	mgr := status.NewManager()
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")

	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))
	require.NoError(t, mgr.WriteFileAtomic(ctx, path, []byte("new")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// 🧪 TestManager_RestoreBackup tests backup restoration
func TestManager_RestoreBackup(t *testing.T) {
	mgr := status.NewManager()
	ctx := context.Background()
	dir := t.TempDir()

	backup := filepath.Join(dir, "photo.jpg.backup")
	require.NoError(t, os.WriteFile(backup, []byte("original bytes"), 0644))

	restored, err := mgr.RestoreBackup(ctx, backup)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "photo.jpg"), restored)

	content, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, "original bytes", string(content))

	_, err = os.Stat(backup)
	assert.True(t, os.IsNotExist(err))

	// non-backup path is rejected
	_, err = mgr.RestoreBackup(ctx, filepath.Join(dir, "photo.jpg"))
	require.Error(t, err)
}

// 🧪 TestManager_Progress tests the progress bar plumbing
func TestManager_Progress(t *testing.T) {
	mgr := status.NewManager()
	var buf bytes.Buffer
	mgr.SetProgressWriter(&buf)
	ctx := context.Background()

	mgr.StartOperation(ctx, "converting", 2)
	mgr.UpdateProgress(ctx)
	mgr.UpdateProgress(ctx)
	mgr.FinishOperation(ctx)

	assert.Contains(t, buf.String(), "converting")
}
