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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/imgrc/pkg/status"
)

// 🎨 Display configuration
const (
	fileIndent = 4  // spaces to indent file entries
	nameWidth  = 35 // Base width for filename
)

// 🖼️ ImageOperation represents one image conversion for logging
type ImageOperation struct {
	Path         string // Image path, usually basename
	OriginalSize int64  // Size before conversion
	NewSize      int64  // Size after conversion, zero in dry runs
	Failed       bool   // Whether the transcode failed
	DryRun       bool   // Whether this was only planned
}

// 📄 RewriteOperation represents one code-file rewrite for logging
type RewriteOperation struct {
	Path         string // Code file path
	Replacements int    // Number of replacements made
	DryRun       bool   // Whether this was only planned
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatImageOperation formats one image conversion for display
func (l *Logger) formatImageOperation(op ImageOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.Failed:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.DryRun:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '✓'
		symbolColor = color.FgGreen
	}

	sizes := ""
	switch {
	case op.Failed:
		sizes = color.New(color.FgRed).Sprint("failed")
	case op.DryRun:
		sizes = fmt.Sprintf("%s -> (planned)", humanize.Bytes(uint64(op.OriginalSize)))
	default:
		delta := ""
		if op.OriginalSize > 0 {
			pct := float64(op.OriginalSize-op.NewSize) / float64(op.OriginalSize) * 100
			delta = color.New(color.Faint).Sprintf(" (%.1f%% smaller)", pct)
		}
		sizes = fmt.Sprintf("%s -> %s%s",
			humanize.Bytes(uint64(op.OriginalSize)),
			humanize.Bytes(uint64(op.NewSize)),
			delta)
	}

	return fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		sizes)
}

// 📝 LogImageOperation logs one image conversion
func (l *Logger) LogImageOperation(ctx context.Context, op ImageOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatImageOperation(op))

	l.zlog.Info().
		Str("image", op.Path).
		Int64("original_size", op.OriginalSize).
		Int64("new_size", op.NewSize).
		Bool("failed", op.Failed).
		Bool("dry_run", op.DryRun).
		Msg("image operation")
}

// 📝 LogRewriteOperation logs one code-file rewrite
func (l *Logger) LogRewriteOperation(ctx context.Context, op RewriteOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	verb := "Updated"
	if op.DryRun {
		verb = "Would update"
	}
	fmt.Fprintf(l.console, "%s%s %s: %d replacement(s)\n",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(color.FgBlue).Sprint(verb),
		op.Path,
		op.Replacements)

	l.zlog.Info().
		Str("file", op.Path).
		Int("replacements", op.Replacements).
		Bool("dry_run", op.DryRun).
		Msg("rewrite operation")
}

// 📊 LogSummary prints the aggregate statistics for the run
func (l *Logger) LogSummary(ctx context.Context, sn status.Snapshot, dryRun bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console)
	fmt.Fprintf(l.console, "Converted: %s image(s)\n",
		color.New(color.FgGreen).Sprintf("%d", sn.ImagesConverted))
	if sn.ImagesFailed > 0 {
		fmt.Fprintf(l.console, "Failed: %s image(s)\n",
			color.New(color.FgRed).Sprintf("%d", sn.ImagesFailed))
	}
	if !dryRun && sn.ImagesConverted > 0 {
		fmt.Fprintf(l.console, "Total size: %s -> %s (%.1f%% smaller)\n",
			humanize.Bytes(uint64(sn.OriginalBytes)),
			humanize.Bytes(uint64(sn.NewBytes)),
			sn.Reduction())
	}
	fmt.Fprintf(l.console, "Updated %d file(s) with %d replacement(s)\n",
		sn.FilesUpdated, sn.Replacements)
	if sn.OriginalsDeleted > 0 {
		fmt.Fprintf(l.console, "Deleted %d original image(s)\n", sn.OriginalsDeleted)
	}
	if sn.BackupsCreated > 0 {
		fmt.Fprintf(l.console, "Created %d backup(s)\n", sn.BackupsCreated)
	}

	l.zlog.Info().
		Int("converted", sn.ImagesConverted).
		Int("failed", sn.ImagesFailed).
		Int64("original_bytes", sn.OriginalBytes).
		Int64("new_bytes", sn.NewBytes).
		Int("files_updated", sn.FilesUpdated).
		Int("replacements", sn.Replacements).
		Int("deleted", sn.OriginalsDeleted).
		Msg("run summary")
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	imgrcText := color.New(color.Bold, color.FgCyan).Sprint("imgrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", imgrcText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
