package operation

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/imgrc/pkg/scanner"
	"github.com/walteh/imgrc/pkg/status"
	"github.com/walteh/imgrc/pkg/transcode"
)

// ♻️ Restore moves every .backup sibling under the root back over its
// original path. Converted artifacts are left alone; this is a manual
// recovery aid, not an undo.
func (op *operator) Restore(ctx context.Context) error {
	root, err := op.config.ResolveRoot()
	if err != nil {
		return errors.Errorf("resolving root: %w", err)
	}

	op.console.Header("restoring backups under " + root)

	// Backups are found with the same walk-and-classify machinery,
	// keyed on the backup suffix instead of the image sets.
	backupScanner := scanner.New(scanner.Options{
		ImageExtensions: []string{transcode.BackupSuffix},
		ExcludeDirs:     op.config.ExcludeDirs,
		ExcludeGlobs:    op.config.ExcludeGlobs,
	})

	backups, _, err := backupScanner.Scan(ctx, root)
	if err != nil {
		return errors.Errorf("scanning for backups: %w", err)
	}

	if len(backups) == 0 {
		op.console.Info("No backup files found.")
		return nil
	}

	restored := 0
	for _, b := range backups {
		if op.config.DryRun {
			op.console.Infof("Would restore: %s", b.Path)
			continue
		}

		originalPath, err := op.statusMgr.RestoreBackup(ctx, b.Path)
		if err != nil {
			op.console.Warningf("Error restoring %s: %v", b.Path, err)
			continue
		}

		restored++
		op.statusMgr.TrackFile(ctx, status.FileInfo{
			Path:   originalPath,
			Status: status.StatusRestored,
		})
		if op.config.Verbose {
			op.console.Infof("Restored: %s", originalPath)
		}
	}

	if op.config.DryRun {
		op.console.Infof("Found %d backup(s). This was a dry run.", len(backups))
	} else {
		op.console.Successf("Restored %d of %d backup(s)", restored, len(backups))
	}

	return nil
}
