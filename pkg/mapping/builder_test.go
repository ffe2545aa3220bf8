package mapping_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/imgrc/pkg/mapping"
	"github.com/walteh/imgrc/pkg/scanner"
	"github.com/walteh/imgrc/pkg/status"
	"github.com/walteh/imgrc/pkg/transcode"
)

// 🧪 fakeTranscoder is a hand-written transcoder double
type fakeTranscoder struct {
	failOn  map[string]bool
	newSize int64
	calls   []string
}

func (f *fakeTranscoder) DestPath(srcPath string) string {
	ext := filepath.Ext(srcPath)
	return strings.TrimSuffix(srcPath, ext) + ".webp"
}

func (f *fakeTranscoder) Transcode(ctx context.Context, srcPath string) transcode.Result {
	f.calls = append(f.calls, srcPath)
	res := transcode.Result{Source: srcPath, Dest: f.DestPath(srcPath)}
	if f.failOn[srcPath] {
		res.Err = errors.New("decode failed")
		return res
	}
	res.OK = true
	res.NewSize = f.newSize
	return res
}

func images(paths ...string) []scanner.ImageFile {
	out := make([]scanner.ImageFile, 0, len(paths))
	for _, p := range paths {
		out = append(out, scanner.ImageFile{Path: p, Ext: filepath.Ext(p), Size: 100})
	}
	return out
}

// 🧪 TestBuild tests the mapping, pairs, and statistics of a clean run
func TestBuild(t *testing.T) {
	tr := &fakeTranscoder{newSize: 40}
	mgr := status.NewManager()
	b := mapping.NewBuilder(tr, mgr)

	result := b.Build(context.Background(), images("/site/a.jpg", "/site/img/b.png"), mapping.Options{})

	assert.Equal(t, map[string]string{
		"a.jpg": "a.webp",
		"b.png": "b.webp",
	}, result.Mapping)

	require.Len(t, result.Converted, 2)
	assert.Equal(t, mapping.Pair{Old: "/site/a.jpg", New: "/site/a.webp"}, result.Converted[0])
	assert.Empty(t, result.Failed)

	sn := mgr.Stats().Snapshot()
	assert.Equal(t, 2, sn.ImagesFound)
	assert.Equal(t, 2, sn.ImagesConverted)
	assert.Equal(t, int64(200), sn.OriginalBytes)
	assert.Equal(t, int64(80), sn.NewBytes)
}

// 🧪 TestBuild_DryRun tests that dry-run projects names without transcoding
func TestBuild_DryRun(t *testing.T) {
	tr := &fakeTranscoder{newSize: 40}
	mgr := status.NewManager()
	b := mapping.NewBuilder(tr, mgr)

	result := b.Build(context.Background(), images("/site/a.jpg"), mapping.Options{DryRun: true})

	assert.Empty(t, tr.calls, "dry run must not invoke the transcoder")
	assert.Equal(t, map[string]string{"a.jpg": "a.webp"}, result.Mapping)
	require.Len(t, result.Converted, 1)

	sn := mgr.Stats().Snapshot()
	assert.Equal(t, 1, sn.ImagesFound)
	assert.Equal(t, int64(100), sn.OriginalBytes)
	assert.Equal(t, 1, sn.ImagesConverted, "projected conversions are counted")
	assert.Equal(t, int64(0), sn.NewBytes, "new sizes are unknowable in a dry run")
}

// 🧪 TestBuild_DryRunStatsMatchReal tests that both modes agree on counts
func TestBuild_DryRunStatsMatchReal(t *testing.T) {
	imgs := images("/site/a.jpg", "/site/img/b.png")

	dryMgr := status.NewManager()
	mapping.NewBuilder(&fakeTranscoder{newSize: 40}, dryMgr).
		Build(context.Background(), imgs, mapping.Options{DryRun: true})

	realMgr := status.NewManager()
	mapping.NewBuilder(&fakeTranscoder{newSize: 40}, realMgr).
		Build(context.Background(), imgs, mapping.Options{})

	dry := dryMgr.Stats().Snapshot()
	live := realMgr.Stats().Snapshot()

	assert.Equal(t, live.ImagesFound, dry.ImagesFound)
	assert.Equal(t, live.ImagesConverted, dry.ImagesConverted)
	assert.Equal(t, live.ImagesFailed, dry.ImagesFailed)
	assert.Equal(t, live.OriginalBytes, dry.OriginalBytes)
}

// 🧪 TestBuild_FailureIsolated tests that one failure never aborts the batch
func TestBuild_FailureIsolated(t *testing.T) {
	tr := &fakeTranscoder{newSize: 40, failOn: map[string]bool{"/site/bad.png": true}}
	mgr := status.NewManager()
	b := mapping.NewBuilder(tr, mgr)

	result := b.Build(context.Background(), images("/site/a.jpg", "/site/bad.png", "/site/c.jpg"), mapping.Options{})

	assert.Equal(t, map[string]string{
		"a.jpg": "a.webp",
		"c.jpg": "c.webp",
	}, result.Mapping)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "/site/bad.png", result.Failed[0].Path)

	sn := mgr.Stats().Snapshot()
	assert.Equal(t, 2, sn.ImagesConverted)
	assert.Equal(t, 1, sn.ImagesFailed)

	info, ok := mgr.GetFileInfo("/site/bad.png")
	require.True(t, ok)
	assert.Equal(t, status.StatusFailed, info.Status)
	assert.Error(t, info.Error)
}

// 🧪 TestBuild_DuplicateBasename tests that the first mapping entry wins
func TestBuild_DuplicateBasename(t *testing.T) {
	tr := &fakeTranscoder{newSize: 40}
	mgr := status.NewManager()
	b := mapping.NewBuilder(tr, mgr)

	result := b.Build(context.Background(), images("/a/logo.png", "/b/logo.png"), mapping.Options{})

	assert.Equal(t, map[string]string{"logo.png": "logo.webp"}, result.Mapping)
	assert.Len(t, result.Converted, 2, "both images are still converted")
}

// 🧪 TestBuild_OnImageCallback tests the per-image hook
func TestBuild_OnImageCallback(t *testing.T) {
	tr := &fakeTranscoder{newSize: 40}
	b := mapping.NewBuilder(tr, status.NewManager())

	var seen []string
	b.Build(context.Background(), images("/site/a.jpg", "/site/b.png"), mapping.Options{
		OnImage: func(img scanner.ImageFile, res transcode.Result) {
			seen = append(seen, filepath.Base(res.Dest))
		},
	})

	assert.Equal(t, []string{"a.webp", "b.webp"}, seen)
}
