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

// Package transcode wraps the image codec behind a small adapter: one
// source path in, one re-encoded artifact out, failures captured per
// file instead of propagating.
package transcode

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/webp"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💾 BackupSuffix is appended to the original path for backup siblings
const BackupSuffix = ".backup"

// 🎚️ MaxMethod is the slowest, smallest-output WebP effort setting
const MaxMethod = 6

const webpExt = ".webp"

// 🔧 Options configures a WebP transcoder
type Options struct {
	// Quality is the WebP encode quality (1-100)
	Quality int
	// Method is the encoder effort knob (0-6); callers fix it to MaxMethod
	Method int
	// Backup copies the original to a .backup sibling before transcoding
	Backup bool
}

// 📦 Result is the outcome of transcoding a single image
type Result struct {
	Source        string // Original image path
	Dest          string // Attempted destination path, set even on failure
	OK            bool   // Whether the transcode succeeded
	NewSize       int64  // Size of the new artifact in bytes, if OK
	BackupCreated bool   // Whether a new .backup sibling was written
	Err           error  // Failure detail, if not OK
}

// 🎯 Transcoder is the codec capability the pipeline depends on
type Transcoder interface {
	// Transcode re-encodes the image at srcPath, never raising past the boundary
	Transcode(ctx context.Context, srcPath string) Result
	// DestPath projects the destination path for srcPath without any IO
	DestPath(srcPath string) string
}

// 🖼️ WebP transcodes JPEG and PNG sources into WebP artifacts
type WebP struct {
	opts Options
}

// 🏭 NewWebP creates a WebP transcoder
func NewWebP(opts Options) *WebP {
	if opts.Method == 0 {
		opts.Method = MaxMethod
	}
	return &WebP{opts: opts}
}

// DestPath replaces the source extension with .webp, keeping dir and stem
func (t *WebP) DestPath(srcPath string) string {
	ext := filepath.Ext(srcPath)
	return strings.TrimSuffix(srcPath, ext) + webpExt
}

// 🔄 Transcode decodes the source and re-encodes it as WebP next to it
func (t *WebP) Transcode(ctx context.Context, srcPath string) Result {
	res := Result{Source: srcPath, Dest: t.DestPath(srcPath)}

	if t.opts.Backup {
		created, err := backupOriginal(srcPath)
		if err != nil {
			res.Err = errors.Errorf("backing up %s: %w", srcPath, err)
			return res
		}
		res.BackupCreated = created
	}

	img, err := decode(srcPath)
	if err != nil {
		res.Err = errors.Errorf("decoding %s: %w", srcPath, err)
		return res
	}

	if err := t.encode(img, srcPath, res.Dest); err != nil {
		res.Err = errors.Errorf("encoding %s: %w", res.Dest, err)
		return res
	}

	info, err := os.Stat(res.Dest)
	if err != nil {
		res.Err = errors.Errorf("checking new artifact %s: %w", res.Dest, err)
		return res
	}

	res.OK = true
	res.NewSize = info.Size()
	zerolog.Ctx(ctx).Debug().
		Str("source", srcPath).
		Str("dest", res.Dest).
		Int64("new_size", res.NewSize).
		Msg("transcoded image")

	return res
}

// 🔍 decode opens and decodes the source image
func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// 📝 encode writes img as WebP atomically (temp file, then rename).
// The artifact carries the source's permission bits, not the 0600 the
// temp file is created with.
func (t *WebP) encode(img image.Image, srcPath, destPath string) error {
	destDir := filepath.Dir(destPath)
	tmp, err := os.CreateTemp(destDir, "imgrc-*.webp.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	mode := os.FileMode(0644)
	if info, err := os.Stat(srcPath); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}

	opts := webp.Options{
		Quality: t.opts.Quality,
		Method:  t.opts.Method,
	}
	// Transparency-capable sources keep their alpha channel; opaque
	// sources are flattened by the encoder's three-channel path.
	if !isOpaque(img) {
		opts.Exact = true
	}

	if err := webp.Encode(tmp, img, opts); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), destPath)
}

// 🔍 isOpaque reports whether the decoded image carries no usable alpha
func isOpaque(img image.Image) bool {
	type opaquer interface {
		Opaque() bool
	}
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	return false
}

// 💾 backupOriginal copies src to its .backup sibling once, byte for byte
func backupOriginal(srcPath string) (bool, error) {
	backupPath := srcPath + BackupSuffix
	if _, err := os.Stat(backupPath); err == nil {
		// Existing backups are never overwritten
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return false, err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return false, err
	}

	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode())
	if err != nil {
		return false, err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(backupPath)
		return false, err
	}
	return true, dst.Close()
}
