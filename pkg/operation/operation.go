// Package operation provides the pipeline that converts images and
// rewrites references across a directory tree
package operation

import (
	"context"

	"github.com/walteh/imgrc/pkg/config"
	"github.com/walteh/imgrc/pkg/log"
	"github.com/walteh/imgrc/pkg/mapping"
	"github.com/walteh/imgrc/pkg/scanner"
	"github.com/walteh/imgrc/pkg/status"
	"github.com/walteh/imgrc/pkg/transcode"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operator defines the main interface for imgrc operations
type Operator interface {
	// Convert runs the full pipeline: scan, transcode, rewrite, delete
	Convert(ctx context.Context) error
	// Status reports what a conversion run would touch, without changes
	Status(ctx context.Context) error
	// Restore moves .backup siblings back over their original paths
	Restore(ctx context.Context) error
}

// 🔧 Options contains configuration for the operator
type Options struct {
	// Config is the imgrc configuration
	Config *config.Config
	// Scanner classifies the directory tree
	Scanner *scanner.Scanner
	// Transcoder is the image codec capability
	Transcoder transcode.Transcoder
	// StatusMgr tracks per-file outcomes and run statistics
	StatusMgr *status.Manager
	// Console is the user-facing logger
	Console *log.Logger
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (Operator, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Scanner == nil {
		return nil, errors.Errorf("scanner is required")
	}
	if opts.Transcoder == nil {
		return nil, errors.Errorf("transcoder is required")
	}
	if opts.StatusMgr == nil {
		return nil, errors.Errorf("status manager is required")
	}
	if opts.Console == nil {
		return nil, errors.Errorf("console logger is required")
	}

	// Quality is validated once, up front; the transcoder never sees an
	// out-of-range value.
	if opts.Config.Quality < 1 || opts.Config.Quality > 100 {
		return nil, errors.Errorf("quality must be between 1 and 100, got %d", opts.Config.Quality)
	}

	return &operator{
		config:     opts.Config,
		scanner:    opts.Scanner,
		transcoder: opts.Transcoder,
		statusMgr:  opts.StatusMgr,
		console:    opts.Console,
		builder:    mapping.NewBuilder(opts.Transcoder, opts.StatusMgr),
	}, nil
}

// 🎮 operator implements the Operator interface
type operator struct {
	config     *config.Config
	scanner    *scanner.Scanner
	transcoder transcode.Transcoder
	statusMgr  *status.Manager
	console    *log.Logger
	builder    *mapping.Builder
}

// Convert method is implemented in convert.go
// Status method is implemented in report.go
// Restore method is implemented in restore.go
