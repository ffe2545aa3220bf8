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

package operation

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/imgrc/pkg/log"
	"github.com/walteh/imgrc/pkg/mapping"
	"github.com/walteh/imgrc/pkg/rewrite"
	"github.com/walteh/imgrc/pkg/scanner"
	"github.com/walteh/imgrc/pkg/status"
	"github.com/walteh/imgrc/pkg/transcode"
)

// 🏃 Convert runs the full pipeline: scan, build mapping, rewrite
// references, and optionally delete originals.
func (op *operator) Convert(ctx context.Context) error {
	root, err := op.config.ResolveRoot()
	if err != nil {
		return errors.Errorf("resolving root: %w", err)
	}

	header := fmt.Sprintf("optimizing %s", root)
	if op.config.DryRun {
		header = "[DRY RUN] " + header
	}
	op.console.Header(header)
	op.console.Infof("Quality: %d", op.config.Quality)

	// Phase 0: scan
	images, codeFiles, err := op.scanner.Scan(ctx, root)
	if err != nil {
		return errors.Errorf("scanning %s: %w", root, err)
	}

	if len(images) == 0 {
		op.console.Info("No JPG, JPEG, or PNG images found.")
		return nil
	}
	op.console.Infof("Found %d image(s) to convert", len(images))

	// Phase 1: build the mapping (must fully complete before any rewrite)
	result := op.buildMapping(ctx, images)

	// Phase 2: rewrite references across code files
	if len(codeFiles) == 0 {
		op.console.Info("No HTML, PHP, or other code files found.")
	} else {
		op.rewriteReferences(ctx, codeFiles, result.Mapping)
	}

	// Phase 3: delete originals, per pair, only with a confirmed artifact
	if op.config.DeleteOriginals && !op.config.DryRun {
		op.deleteOriginals(ctx, result.Converted)
	}

	op.console.LogSummary(ctx, op.statusMgr.Stats().Snapshot(), op.config.DryRun)
	if op.config.DryRun {
		op.console.Info("This was a dry run. No changes were made.")
	}

	return nil
}

// 🔨 buildMapping transcodes every discovered image sequentially
func (op *operator) buildMapping(ctx context.Context, images []scanner.ImageFile) mapping.BuildResult {
	if !op.config.Verbose {
		op.statusMgr.StartOperation(ctx, "converting images", len(images))
		defer op.statusMgr.FinishOperation(ctx)
	}

	return op.builder.Build(ctx, images, mapping.Options{
		DryRun: op.config.DryRun,
		OnImage: func(img scanner.ImageFile, res transcode.Result) {
			if !op.config.Verbose {
				return
			}
			op.console.LogImageOperation(ctx, log.ImageOperation{
				Path:         filepath.Base(img.Path),
				OriginalSize: img.Size,
				NewSize:      res.NewSize,
				Failed:       !res.OK,
				DryRun:       op.config.DryRun,
			})
		},
	})
}

// 🔄 rewriteReferences applies the complete mapping across all code
// files. The mapping is read-only here; files are independent, so the
// work is fanned out with a bounded group. Per-file failures are
// reported and never abort the batch.
func (op *operator) rewriteReferences(ctx context.Context, codeFiles []scanner.CodeFile, table map[string]string) {
	op.console.Infof("Scanning %d code file(s)...", len(codeFiles))

	rewriter := rewrite.New(rewrite.Options{
		Mapping: table,
		Writer:  op.statusMgr,
	})
	stats := op.statusMgr.Stats()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(op.config.RewriteConcurrency)

	for _, cf := range codeFiles {
		cf := cf
		g.Go(func() error {
			stats.AddScannedCodeFile()

			res, err := rewriter.RewriteFile(gctx, cf.Path, op.config.DryRun)
			if err != nil {
				op.console.Warningf("Error processing %s: %v", cf.Path, err)
				op.statusMgr.TrackFile(gctx, status.FileInfo{
					Path:   cf.Path,
					Status: status.StatusSkipped,
					Error:  err,
				})
				return nil
			}

			stats.AddRewrite(res.Replacements)

			fileStatus := status.StatusUnchanged
			switch {
			case res.Skipped:
				fileStatus = status.StatusSkipped
			case res.Replacements > 0:
				fileStatus = status.StatusUpdated
			}
			op.statusMgr.TrackFile(gctx, status.FileInfo{
				Path:         cf.Path,
				Status:       fileStatus,
				Replacements: res.Replacements,
			})

			if op.config.Verbose && res.Replacements > 0 {
				op.console.LogRewriteOperation(gctx, log.RewriteOperation{
					Path:         cf.Path,
					Replacements: res.Replacements,
					DryRun:       op.config.DryRun,
				})
			}
			return nil
		})
	}

	// Workers never return errors; Wait is purely the phase barrier.
	_ = g.Wait()
}

// 🗑️ deleteOriginals removes each original whose artifact is confirmed
// present. A failed deletion is reported and the loop continues.
func (op *operator) deleteOriginals(ctx context.Context, converted []mapping.Pair) {
	op.console.Info("Deleting original images...")
	stats := op.statusMgr.Stats()

	for _, pair := range converted {
		exists, err := op.statusMgr.FileExists(pair.New)
		if err != nil {
			op.console.Warningf("Error checking %s: %v", pair.New, err)
			continue
		}
		if !exists {
			zerolog.Ctx(ctx).Warn().
				Str("original", pair.Old).
				Str("missing", pair.New).
				Msg("artifact missing, keeping original")
			continue
		}

		if err := op.statusMgr.DeleteFile(ctx, pair.Old); err != nil {
			op.console.Warningf("Error deleting %s: %v", pair.Old, err)
			continue
		}

		stats.AddDeleted()
		op.statusMgr.TrackFile(ctx, status.FileInfo{
			Path:   pair.Old,
			Status: status.StatusDeleted,
		})
		if op.config.Verbose {
			op.console.Infof("Deleted: %s", filepath.Base(pair.Old))
		}
	}
}
