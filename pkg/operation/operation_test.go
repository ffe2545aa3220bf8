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

package operation_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/imgrc/pkg/config"
	"github.com/walteh/imgrc/pkg/log"
	"github.com/walteh/imgrc/pkg/operation"
	"github.com/walteh/imgrc/pkg/scanner"
	"github.com/walteh/imgrc/pkg/status"
	"github.com/walteh/imgrc/pkg/transcode"
)

// 🧪 fakeTranscoder writes a placeholder artifact instead of encoding.
// skipWrite simulates an artifact that went missing after conversion.
type fakeTranscoder struct {
	failOn    map[string]bool
	skipWrite map[string]bool
	calls     []string
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
	if !f.skipWrite[srcPath] {
		if err := os.WriteFile(res.Dest, []byte("webp-data"), 0644); err != nil {
			res.Err = err
			return res
		}
	}
	res.OK = true
	res.NewSize = 9
	return res
}

// 🧪 createTestEnv creates a populated test environment
func createTestEnv(t *testing.T, cfg *config.Config) (context.Context, *status.Manager, *log.Logger, *bytes.Buffer) {
	t.Helper()

	logger := zerolog.New(zerolog.NewTestWriter(t))
	ctx := logger.WithContext(context.Background())

	var buf bytes.Buffer
	console := log.New(&buf, zerolog.Disabled)

	mgr := status.NewManager()
	mgr.SetProgressWriter(&bytes.Buffer{})

	return ctx, mgr, console, &buf
}

func newOperator(t *testing.T, cfg *config.Config, tr transcode.Transcoder, mgr *status.Manager, console *log.Logger) operation.Operator {
	t.Helper()
	op, err := operation.New(operation.Options{
		Config: cfg,
		Scanner: scanner.New(scanner.Options{
			ImageExtensions: cfg.ImageExtensions,
			CodeExtensions:  cfg.CodeExtensions,
			ExcludeDirs:     cfg.ExcludeDirs,
			ExcludeGlobs:    cfg.ExcludeGlobs,
		}),
		Transcoder: tr,
		StatusMgr:  mgr,
		Console:    console,
	})
	require.NoError(t, err)
	return op
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// 🧪 TestConvert_EndToEnd tests the full pipeline over a real tree
func TestConvert_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "photo.jpg", "jpeg-bytes")
	html := write(t, dir, "index.html", `<img src="photo.jpg"> <img src="img/photo.jpg">`)
	css := write(t, dir, "css/style.css", `body { background: url('photo.jpg'); }`)
	md := write(t, dir, "readme.md", `![Photo](photo.jpg)`)

	cfg := config.Default()
	cfg.Root = dir
	ctx, mgr, console, _ := createTestEnv(t, cfg)
	tr := &fakeTranscoder{}

	op := newOperator(t, cfg, tr, mgr, console)
	require.NoError(t, op.Convert(ctx))

	// artifact written next to the source
	_, err := os.Stat(filepath.Join(dir, "photo.webp"))
	require.NoError(t, err)

	// original never deleted without --delete-originals
	_, err = os.Stat(filepath.Join(dir, "photo.jpg"))
	require.NoError(t, err)

	// all three context patterns rewritten
	content, _ := os.ReadFile(html)
	assert.Equal(t, `<img src="photo.webp"> <img src="img/photo.webp">`, string(content))
	content, _ = os.ReadFile(css)
	assert.Equal(t, `body { background: url('photo.webp'); }`, string(content))
	content, _ = os.ReadFile(md)
	assert.Equal(t, `![Photo](photo.webp)`, string(content))

	sn := mgr.Stats().Snapshot()
	assert.Equal(t, 1, sn.ImagesFound)
	assert.Equal(t, 1, sn.ImagesConverted)
	assert.Equal(t, 3, sn.FilesUpdated)
	assert.Equal(t, 4, sn.Replacements)
	assert.Equal(t, 0, sn.OriginalsDeleted)
}

// 🧪 TestConvert_DryRun tests that a dry run touches nothing
func TestConvert_DryRun(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "photo.jpg", "jpeg-bytes")
	htmlContent := `<img src="photo.jpg">`
	html := write(t, dir, "index.html", htmlContent)

	cfg := config.Default()
	cfg.Root = dir
	cfg.DryRun = true
	ctx, mgr, console, _ := createTestEnv(t, cfg)
	tr := &fakeTranscoder{}

	op := newOperator(t, cfg, tr, mgr, console)
	require.NoError(t, op.Convert(ctx))

	assert.Empty(t, tr.calls, "dry run must not transcode")

	_, err := os.Stat(filepath.Join(dir, "photo.webp"))
	assert.True(t, os.IsNotExist(err), "dry run must not create artifacts")

	content, _ := os.ReadFile(html)
	assert.Equal(t, htmlContent, string(content), "dry run must not rewrite files")

	// statistics still reflect the planned run
	sn := mgr.Stats().Snapshot()
	assert.Equal(t, 1, sn.ImagesFound)
	assert.Equal(t, 1, sn.ImagesConverted, "a dry run reports projected conversions")
	assert.Equal(t, 1, sn.Replacements)
}

// 🧪 TestConvert_DryRunSummaryMatchesReal tests that both modes report
// the same conversion count over identical trees
func TestConvert_DryRunSummaryMatchesReal(t *testing.T) {
	seed := func(t *testing.T) string {
		dir := t.TempDir()
		write(t, dir, "photo.jpg", "jpeg-bytes")
		write(t, dir, "index.html", `<img src="photo.jpg">`)
		return dir
	}

	run := func(t *testing.T, dryRun bool) (status.Snapshot, string) {
		cfg := config.Default()
		cfg.Root = seed(t)
		cfg.DryRun = dryRun
		ctx, mgr, console, buf := createTestEnv(t, cfg)

		op := newOperator(t, cfg, &fakeTranscoder{}, mgr, console)
		require.NoError(t, op.Convert(ctx))
		return mgr.Stats().Snapshot(), buf.String()
	}

	liveStats, liveOut := run(t, false)
	dryStats, dryOut := run(t, true)

	assert.Equal(t, liveStats.ImagesConverted, dryStats.ImagesConverted)
	assert.Equal(t, liveStats.ImagesFound, dryStats.ImagesFound)
	assert.Equal(t, liveStats.Replacements, dryStats.Replacements)

	assert.Contains(t, liveOut, "Converted: 1 image(s)")
	assert.Contains(t, dryOut, "Converted: 1 image(s)")
}

// 🧪 TestConvert_DeleteOriginals tests per-pair deletion gating
func TestConvert_DeleteOriginals(t *testing.T) {
	dir := t.TempDir()
	kept := write(t, dir, "ghost.jpg", "jpeg-bytes")
	removed := write(t, dir, "photo.jpg", "jpeg-bytes")

	cfg := config.Default()
	cfg.Root = dir
	cfg.DeleteOriginals = true
	ctx, mgr, console, _ := createTestEnv(t, cfg)
	// ghost.jpg "converts" but its artifact never lands on disk
	tr := &fakeTranscoder{skipWrite: map[string]bool{kept: true}}

	op := newOperator(t, cfg, tr, mgr, console)
	require.NoError(t, op.Convert(ctx))

	_, err := os.Stat(removed)
	assert.True(t, os.IsNotExist(err), "original with confirmed artifact is deleted")

	_, err = os.Stat(kept)
	require.NoError(t, err, "missing artifact blocks deletion of its original")

	sn := mgr.Stats().Snapshot()
	assert.Equal(t, 1, sn.OriginalsDeleted)
}

// 🧪 TestConvert_FailedImageExcluded tests that failures skip the mapping
func TestConvert_FailedImageExcluded(t *testing.T) {
	dir := t.TempDir()
	bad := write(t, dir, "bad.png", "not-an-image")
	write(t, dir, "good.png", "png-bytes")
	html := write(t, dir, "page.html", `<img src="bad.png"> <img src="good.png">`)

	cfg := config.Default()
	cfg.Root = dir
	ctx, mgr, console, _ := createTestEnv(t, cfg)
	tr := &fakeTranscoder{failOn: map[string]bool{bad: true}}

	op := newOperator(t, cfg, tr, mgr, console)
	require.NoError(t, op.Convert(ctx))

	content, _ := os.ReadFile(html)
	assert.Equal(t, `<img src="bad.png"> <img src="good.webp">`, string(content),
		"failed images keep their references")

	sn := mgr.Stats().Snapshot()
	assert.Equal(t, 1, sn.ImagesConverted)
	assert.Equal(t, 1, sn.ImagesFailed)
}

// 🧪 TestConvert_NoImages tests the early informational return
func TestConvert_NoImages(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "index.html", `<p>hello</p>`)

	cfg := config.Default()
	cfg.Root = dir
	ctx, mgr, console, buf := createTestEnv(t, cfg)
	tr := &fakeTranscoder{}

	op := newOperator(t, cfg, tr, mgr, console)
	require.NoError(t, op.Convert(ctx))

	assert.Contains(t, buf.String(), "No JPG, JPEG, or PNG images found")
	assert.Empty(t, tr.calls)
}

// 🧪 TestConvert_MissingRoot tests the fail-fast on a nonexistent root
func TestConvert_MissingRoot(t *testing.T) {
	cfg := config.Default()
	cfg.Root = filepath.Join(t.TempDir(), "nope")
	ctx, mgr, console, _ := createTestEnv(t, cfg)

	op := newOperator(t, cfg, &fakeTranscoder{}, mgr, console)
	err := op.Convert(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

// 🧪 TestNew_Validation tests operator construction checks
func TestNew_Validation(t *testing.T) {
	cfg := config.Default()
	_, mgr, console, _ := createTestEnv(t, cfg)
	sc := scanner.New(scanner.Options{})

	t.Run("missing_config", func(t *testing.T) {
		_, err := operation.New(operation.Options{Scanner: sc, Transcoder: &fakeTranscoder{}, StatusMgr: mgr, Console: console})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config is required")
	})

	t.Run("missing_transcoder", func(t *testing.T) {
		_, err := operation.New(operation.Options{Config: cfg, Scanner: sc, StatusMgr: mgr, Console: console})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "transcoder is required")
	})

	t.Run("quality_out_of_range", func(t *testing.T) {
		for _, q := range []int{0, 101, -5} {
			bad := config.Default()
			bad.Quality = q
			_, err := operation.New(operation.Options{Config: bad, Scanner: sc, Transcoder: &fakeTranscoder{}, StatusMgr: mgr, Console: console})
			require.Error(t, err, "quality %d must be rejected", q)
		}
	})

	t.Run("quality_bounds_accepted", func(t *testing.T) {
		for _, q := range []int{1, 100} {
			ok := config.Default()
			ok.Quality = q
			_, err := operation.New(operation.Options{Config: ok, Scanner: sc, Transcoder: &fakeTranscoder{}, StatusMgr: mgr, Console: console})
			require.NoError(t, err, "quality %d must be accepted", q)
		}
	})
}

// 🧪 TestRestore tests backup restoration across the tree
func TestRestore(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "photo.jpg.backup", "original-bytes")
	write(t, dir, "img/logo.png.backup", "logo-bytes")
	write(t, dir, "node_modules/skip.png.backup", "ignored")

	cfg := config.Default()
	cfg.Root = dir
	ctx, mgr, console, _ := createTestEnv(t, cfg)

	op := newOperator(t, cfg, &fakeTranscoder{}, mgr, console)
	require.NoError(t, op.Restore(ctx))

	content, err := os.ReadFile(filepath.Join(dir, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "original-bytes", string(content))

	_, err = os.Stat(filepath.Join(dir, "img", "logo.png"))
	require.NoError(t, err)

	// excluded directories are honored during restore too
	_, err = os.Stat(filepath.Join(dir, "node_modules", "skip.png"))
	assert.True(t, os.IsNotExist(err))
}

// 🧪 TestStatus tests the read-only report
func TestStatus(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "photo.jpg", "jpeg-bytes")
	write(t, dir, "index.html", `<img src="photo.jpg">`)

	cfg := config.Default()
	cfg.Root = dir
	ctx, mgr, console, buf := createTestEnv(t, cfg)
	tr := &fakeTranscoder{}

	op := newOperator(t, cfg, tr, mgr, console)
	require.NoError(t, op.Status(ctx))

	assert.Contains(t, buf.String(), "photo.webp")
	assert.Contains(t, buf.String(), "1 code file(s) in scope")
	assert.Empty(t, tr.calls, "status must not transcode")

	_, err := os.Stat(filepath.Join(dir, "photo.webp"))
	assert.True(t, os.IsNotExist(err))
}
