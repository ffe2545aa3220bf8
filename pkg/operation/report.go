package operation

import (
	"context"
	"path/filepath"

	"gitlab.com/tozd/go/errors"

	"github.com/dustin/go-humanize"
)

// 🔍 Status reports what a conversion run would touch. It is a pure
// read of the tree: no transcoding, no writes.
func (op *operator) Status(ctx context.Context) error {
	root, err := op.config.ResolveRoot()
	if err != nil {
		return errors.Errorf("resolving root: %w", err)
	}

	op.console.Header("status of " + root)

	images, codeFiles, err := op.scanner.Scan(ctx, root)
	if err != nil {
		return errors.Errorf("scanning %s: %w", root, err)
	}

	if len(images) == 0 {
		op.console.Info("No JPG, JPEG, or PNG images found.")
		return nil
	}

	var totalBytes int64
	for _, img := range images {
		totalBytes += img.Size
		op.console.Infof("%s -> %s (%s)",
			img.Path,
			filepath.Base(op.transcoder.DestPath(img.Path)),
			humanize.Bytes(uint64(img.Size)))
	}

	op.console.LogNewline()
	op.console.Infof("%d image(s), %s total, %d code file(s) in scope",
		len(images), humanize.Bytes(uint64(totalBytes)), len(codeFiles))

	return nil
}
