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

package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📷 ImageFile is a discovered raster image candidate for transcoding
type ImageFile struct {
	Path string // Absolute path to the image
	Ext  string // Lowercased extension, including the dot
	Size int64  // Size in bytes at scan time
}

// 📄 CodeFile is a discovered text file that may reference images
type CodeFile struct {
	Path string // Absolute path to the file
	Ext  string // Lowercased extension, including the dot
}

// 🔧 Options is the immutable classification data driving a scan
type Options struct {
	// ImageExtensions classify a file as a transcodable image
	ImageExtensions []string
	// CodeExtensions classify a file as reference-bearing text
	CodeExtensions []string
	// ExcludeDirs are directory names skipped with all their descendants
	ExcludeDirs []string
	// ExcludeGlobs are doublestar patterns matched against the slash-relative path
	ExcludeGlobs []string
}

// 🔍 Scanner classifies a directory tree into images and code files
type Scanner struct {
	imageExts   map[string]bool
	codeExts    map[string]bool
	excludeDirs map[string]bool
	globs       []string
}

// 🏭 New creates a scanner from the given options
func New(opts Options) *Scanner {
	s := &Scanner{
		imageExts:   make(map[string]bool, len(opts.ImageExtensions)),
		codeExts:    make(map[string]bool, len(opts.CodeExtensions)),
		excludeDirs: make(map[string]bool, len(opts.ExcludeDirs)),
		globs:       opts.ExcludeGlobs,
	}
	for _, ext := range opts.ImageExtensions {
		s.imageExts[strings.ToLower(ext)] = true
	}
	for _, ext := range opts.CodeExtensions {
		s.codeExts[strings.ToLower(ext)] = true
	}
	for _, dir := range opts.ExcludeDirs {
		s.excludeDirs[dir] = true
	}
	return s
}

// 🚶 Scan walks root and returns images and code files in traversal order
func (s *Scanner) Scan(ctx context.Context, root string) ([]ImageFile, []CodeFile, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("root", root).Msg("scanning directory tree")

	var images []ImageFile
	var codeFiles []CodeFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// An unreadable entry is skipped, not fatal; the root itself
			// is validated before the scan starts.
			logger.Warn().Str("path", path).Err(walkErr).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && s.excludeDirs[d.Name()] {
				logger.Debug().Str("dir", path).Msg("skipping excluded directory")
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if s.ignoredByGlob(ctx, root, path) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case s.imageExts[ext]:
			info, err := d.Info()
			if err != nil {
				return errors.Errorf("reading metadata for %s: %w", path, err)
			}
			images = append(images, ImageFile{Path: path, Ext: ext, Size: info.Size()})
		case s.codeExts[ext]:
			codeFiles = append(codeFiles, CodeFile{Path: path, Ext: ext})
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Errorf("walking %s: %w", root, err)
	}

	logger.Debug().
		Int("images", len(images)).
		Int("code_files", len(codeFiles)).
		Msg("scan complete")

	return images, codeFiles, nil
}

// 🔍 ignoredByGlob checks the exclude patterns against the slash-relative path
func (s *Scanner) ignoredByGlob(ctx context.Context, root, path string) bool {
	if len(s.globs) == 0 {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range s.globs {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			zerolog.Ctx(ctx).Debug().Str("file", rel).Str("pattern", pattern).Msg("file ignored by pattern")
			return true
		}
	}
	return false
}
