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

package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/imgrc/pkg/config"
	"gitlab.com/tozd/go/errors"
)

var (
	flagConfig          string
	flagDebug           bool
	flagPath            string
	flagQuality         int
	flagDryRun          bool
	flagBackup          bool
	flagVerbose         bool
	flagDeleteOriginals bool
)

// 🎯 newRootCmd creates the root command. Running imgrc with no
// subcommand performs a conversion, mirroring `imgrc convert`.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgrc",
		Short: "🖼️ Convert JPG/PNG images to WebP and rewrite references",
		Long: `imgrc scans a directory tree for JPG, JPEG, and PNG images,
converts each to WebP, and rewrites textual references in code and
content files to point at the new .webp names.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd)
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	addRootFlags(cmd)
	addConvertFlags(cmd)

	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newRestoreCmd())

	return cmd
}

// 🔧 addRootFlags registers the flags shared by every subcommand.
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", ".imgrc.yaml", "path to config file")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flagPath, "path", ".", "directory to process")
}

// 🔧 addConvertFlags registers the conversion flags. They live on both
// the root command and the convert subcommand.
func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&flagQuality, "quality", "q", config.DefaultQuality, "WebP quality (1-100)")
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "d", false, "report what would change without touching files")
	cmd.Flags().BoolVarP(&flagBackup, "backup", "b", false, "create .backup copies of originals before converting")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log each file as it is processed")
	cmd.Flags().BoolVar(&flagDeleteOriginals, "delete-originals", false, "delete originals after successful conversion")
}

// 📝 loadConfig loads the config file (if present) and overlays any
// flags the user set explicitly. Flags always win over file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	ctx := cmd.Context()

	cfg, err := config.LoadOrDefault(ctx, flagConfig)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("path") || cfg.Root == "" {
		cfg.Root = flagPath
	}
	if cmd.Flags().Changed("quality") {
		cfg.Quality = flagQuality
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = flagDryRun
	}
	if cmd.Flags().Changed("backup") {
		cfg.Backup = flagBackup
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = flagVerbose
	}
	if cmd.Flags().Changed("delete-originals") {
		cfg.DeleteOriginals = flagDeleteOriginals
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
