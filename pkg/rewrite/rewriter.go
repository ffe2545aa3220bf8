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

package rewrite

import (
	"context"
	"os"
	"sort"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding/charmap"
)

// 📝 FileWriter writes rewritten content back to disk
type FileWriter interface {
	WriteFileAtomic(ctx context.Context, path string, content []byte) error
}

// 📦 FileResult is the outcome of rewriting one code file
type FileResult struct {
	Path         string // Path to the file
	Replacements int    // Matches across all rules and mapping entries
	Updated      bool   // Whether the file was written back
	Skipped      bool   // Whether the file was skipped (undecodable)
}

// 🔧 Options configures a Rewriter
type Options struct {
	// Mapping is the old-filename → new-filename table, basenames only
	Mapping map[string]string
	// Writer performs write-back; defaults to a plain atomic writer
	Writer FileWriter
}

// 🔄 Rewriter applies the compiled context rules to code files
type Rewriter struct {
	entries []entryRules
	writer  FileWriter
}

// 🏭 New creates a rewriter with all mapping entries pre-compiled
func New(opts Options) *Rewriter {
	// Deterministic entry order keeps runs and tests stable even though
	// entries are independent of each other.
	keys := make([]string, 0, len(opts.Mapping))
	for k := range opts.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]entryRules, 0, len(keys))
	for _, old := range keys {
		entries = append(entries, compileEntry(old, opts.Mapping[old]))
	}

	writer := opts.Writer
	if writer == nil {
		writer = plainWriter{}
	}

	return &Rewriter{entries: entries, writer: writer}
}

// 🔄 RewriteContent applies every mapping entry's rules to content,
// returning the updated text and the total replacement count.
func (r *Rewriter) RewriteContent(content string) (string, int) {
	total := 0
	for _, entry := range r.entries {
		var n int
		content, n = entry.apply(content)
		total += n
	}
	return content, total
}

// 📄 RewriteFile reads, rewrites, and conditionally writes back one file.
// Undecodable files are skipped with zero replacements; per-file errors
// are returned for the caller to report, never fatal to the batch.
func (r *Rewriter) RewriteFile(ctx context.Context, path string, dryRun bool) (FileResult, error) {
	res := FileResult{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		return res, errors.Errorf("reading %s: %w", path, err)
	}

	content, ok := decodeText(raw)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("file", path).Msg("skipping undecodable file")
		res.Skipped = true
		return res, nil
	}

	updated, count := r.RewriteContent(content)
	res.Replacements = count

	if updated == content {
		return res, nil
	}

	if !dryRun {
		// Output is normalized to UTF-8 regardless of the encoding the
		// file was read in.
		if err := r.writer.WriteFileAtomic(ctx, path, []byte(updated)); err != nil {
			return res, errors.Errorf("writing %s: %w", path, err)
		}
		res.Updated = true
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", path).
		Int("replacements", count).
		Bool("dry_run", dryRun).
		Msg("rewrote references")

	return res, nil
}

// 🔤 decodeText decodes raw bytes trying UTF-8, Latin-1, then
// Windows-1252, in that order.
func decodeText(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), true
	}

	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(raw)
		if err == nil {
			return string(decoded), true
		}
	}
	return "", false
}

// plainWriter is the default write-back when no FileWriter is injected
type plainWriter struct{}

func (plainWriter) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	info, err := os.Stat(path)
	mode := os.FileMode(0644)
	if err == nil {
		mode = info.Mode()
	}
	return os.WriteFile(path, content, mode)
}
