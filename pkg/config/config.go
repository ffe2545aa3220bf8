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

package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration for an optimization run
type Config struct {
	// Quality is the WebP encode quality (1-100)
	Quality int `json:"quality,omitempty" yaml:"quality,omitempty" hcl:"quality,optional"`
	// Root is the directory tree to scan
	Root string `json:"root,omitempty" yaml:"root,omitempty" hcl:"root,optional"`
	// DryRun previews all changes without touching the filesystem
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	// Backup copies each original to a .backup sibling before transcoding
	Backup bool `json:"backup,omitempty" yaml:"backup,omitempty" hcl:"backup,optional"`
	// Verbose enables per-file progress and size-delta reporting
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty" hcl:"verbose,optional"`
	// DeleteOriginals removes originals after successful conversion
	DeleteOriginals bool `json:"delete_originals,omitempty" yaml:"delete_originals,omitempty" hcl:"delete_originals,optional"`

	// ImageExtensions are the extensions classified as transcodable images
	ImageExtensions []string `json:"image_extensions,omitempty" yaml:"image_extensions,omitempty" hcl:"image_extensions,optional"`
	// CodeExtensions are the extensions classified as reference-bearing text files
	CodeExtensions []string `json:"code_extensions,omitempty" yaml:"code_extensions,omitempty" hcl:"code_extensions,optional"`
	// ExcludeDirs are directory names skipped entirely during the scan
	ExcludeDirs []string `json:"exclude_dirs,omitempty" yaml:"exclude_dirs,omitempty" hcl:"exclude_dirs,optional"`
	// ExcludeGlobs are doublestar patterns matched against slash-relative paths
	ExcludeGlobs []string `json:"exclude_globs,omitempty" yaml:"exclude_globs,omitempty" hcl:"exclude_globs,optional"`

	// RewriteConcurrency bounds the parallel reference-rewrite workers
	RewriteConcurrency int `json:"rewrite_concurrency,omitempty" yaml:"rewrite_concurrency,omitempty" hcl:"rewrite_concurrency,optional"`
}

// 🎚️ Default quality used when the config and flags leave it unset
const DefaultQuality = 85

// 🏭 Default returns the configuration the tool uses without a config file
func Default() *Config {
	return &Config{
		Quality:            DefaultQuality,
		Root:               ".",
		ImageExtensions:    []string{".jpg", ".jpeg", ".png"},
		CodeExtensions:     []string{".html", ".htm", ".php", ".css", ".js", ".jsx", ".tsx", ".vue", ".svelte", ".md", ".markdown"},
		ExcludeDirs:        []string{".git", "node_modules", "__pycache__", ".venv", "venv", "env", ".env", "vendor", "dist", "build"},
		RewriteConcurrency: 4,
	}
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🎯 LoadOrDefault loads the config file at path if it exists, else defaults
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
			return Default(), nil
		}
		return nil, errors.Errorf("checking config file: %w", err)
	}
	return Load(ctx, path)
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Quality == 0 {
		cfg.Quality = DefaultQuality
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		return errors.Errorf("quality must be between 1 and 100, got %d", cfg.Quality)
	}

	// Fill unset sets from defaults so a partial config file stays usable
	def := Default()
	if cfg.Root == "" {
		cfg.Root = def.Root
	}
	if len(cfg.ImageExtensions) == 0 {
		cfg.ImageExtensions = def.ImageExtensions
	}
	if len(cfg.CodeExtensions) == 0 {
		cfg.CodeExtensions = def.CodeExtensions
	}
	if len(cfg.ExcludeDirs) == 0 {
		cfg.ExcludeDirs = def.ExcludeDirs
	}
	if cfg.RewriteConcurrency <= 0 {
		cfg.RewriteConcurrency = def.RewriteConcurrency
	}

	cfg.Root = filepath.Clean(cfg.Root)

	return nil
}

// 🔍 ResolveRoot resolves the root to an absolute path and checks it exists
func (cfg *Config) ResolveRoot() (string, error) {
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return "", errors.Errorf("resolving root path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Errorf("root directory does not exist: %s", abs)
	}
	if !info.IsDir() {
		return "", errors.Errorf("root path is not a directory: %s", abs)
	}
	return abs, nil
}
