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

// Package mapping builds the old-filename → new-filename table that the
// rewrite phase consumes. Keys are basenames, deliberately: references
// in code files carry varying path prefixes but a stable filename.
package mapping

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/walteh/imgrc/pkg/scanner"
	"github.com/walteh/imgrc/pkg/status"
	"github.com/walteh/imgrc/pkg/transcode"
)

// 🔗 Pair records one successful old→new conversion by full path
type Pair struct {
	Old string // Original image path
	New string // New artifact path
}

// 📦 BuildResult is the outcome of the mapping-build phase
type BuildResult struct {
	// Mapping maps old basenames to new basenames; read-only afterwards
	Mapping map[string]string
	// Converted lists every successful conversion, in scan order
	Converted []Pair
	// Failed lists images whose transcode failed
	Failed []scanner.ImageFile
}

// 🔧 Options configures a build
type Options struct {
	// DryRun projects destinations without transcoding anything
	DryRun bool
	// OnImage, if set, is invoked after each image is processed
	OnImage func(img scanner.ImageFile, res transcode.Result)
}

// 🔨 Builder orchestrates the transcoder across discovered images
type Builder struct {
	transcoder transcode.Transcoder
	statusMgr  *status.Manager
}

// 🏭 NewBuilder creates a mapping builder
func NewBuilder(transcoder transcode.Transcoder, statusMgr *status.Manager) *Builder {
	return &Builder{transcoder: transcoder, statusMgr: statusMgr}
}

// 🔨 Build processes images sequentially in scan order and accumulates
// the mapping, the converted pairs, the failures, and size statistics.
// Per-image failures never abort the batch.
func (b *Builder) Build(ctx context.Context, images []scanner.ImageFile, opts Options) BuildResult {
	logger := zerolog.Ctx(ctx)
	stats := b.statusMgr.Stats()

	result := BuildResult{
		Mapping: make(map[string]string, len(images)),
	}

	for _, img := range images {
		stats.AddImage(img.Size)

		var res transcode.Result
		if opts.DryRun {
			// Same stem rule as a real transcode, no filesystem writes
			res = transcode.Result{
				Source: img.Path,
				Dest:   b.transcoder.DestPath(img.Path),
				OK:     true,
			}
		} else {
			res = b.transcoder.Transcode(ctx, img.Path)
		}

		if res.OK {
			// Projected conversions count too, so a dry run reports the
			// same totals a real run would. NewSize is zero in dry runs.
			stats.AddConverted(res.NewSize)
			if res.BackupCreated {
				stats.AddBackup()
			}
			b.addEntry(ctx, &result, img, res)
			b.statusMgr.TrackFile(ctx, status.FileInfo{
				Path:   img.Path,
				Status: status.StatusConverted,
				Size:   res.NewSize,
			})
		} else {
			stats.AddFailed()
			result.Failed = append(result.Failed, img)
			b.statusMgr.TrackFile(ctx, status.FileInfo{
				Path:   img.Path,
				Status: status.StatusFailed,
				Error:  res.Err,
			})
			logger.Warn().Str("image", img.Path).Err(res.Err).Msg("transcode failed")
		}

		if opts.OnImage != nil {
			opts.OnImage(img, res)
		}
		b.statusMgr.UpdateProgress(ctx)
	}

	return result
}

// 🗺️ addEntry records a successful conversion, keeping the first mapping
// when two directories contain the same basename.
func (b *Builder) addEntry(ctx context.Context, result *BuildResult, img scanner.ImageFile, res transcode.Result) {
	result.Converted = append(result.Converted, Pair{Old: res.Source, New: res.Dest})

	oldName := filepath.Base(res.Source)
	newName := filepath.Base(res.Dest)

	if existing, ok := result.Mapping[oldName]; ok {
		// Basename collisions are an inherent ambiguity of filename-keyed
		// rewriting; keep the first entry and surface the conflict.
		zerolog.Ctx(ctx).Warn().
			Str("filename", oldName).
			Str("kept", existing).
			Str("duplicate_path", img.Path).
			Msg("duplicate image filename, keeping first mapping")
		return
	}
	result.Mapping[oldName] = newName
}
