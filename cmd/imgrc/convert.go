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
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/imgrc/pkg/config"
	"github.com/walteh/imgrc/pkg/log"
	"github.com/walteh/imgrc/pkg/operation"
	"github.com/walteh/imgrc/pkg/scanner"
	"github.com/walteh/imgrc/pkg/status"
	"github.com/walteh/imgrc/pkg/transcode"
	"gitlab.com/tozd/go/errors"
)

// 🎯 newConvertCmd creates the convert command
func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert images to WebP and rewrite references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd)
		},
	}
	addConvertFlags(cmd)
	return cmd
}

func runConvert(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	op, err := newOperator(cfg)
	if err != nil {
		return errors.Errorf("creating operator: %w", err)
	}

	return op.Convert(cmd.Context())
}

// 🏭 newOperator wires the pipeline components from a validated config.
func newOperator(cfg *config.Config) (operation.Operator, error) {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	return operation.New(operation.Options{
		Config: cfg,
		Scanner: scanner.New(scanner.Options{
			ImageExtensions: cfg.ImageExtensions,
			CodeExtensions:  cfg.CodeExtensions,
			ExcludeDirs:     cfg.ExcludeDirs,
			ExcludeGlobs:    cfg.ExcludeGlobs,
		}),
		Transcoder: transcode.NewWebP(transcode.Options{
			Quality: cfg.Quality,
			Method:  transcode.MaxMethod,
			Backup:  cfg.Backup,
		}),
		StatusMgr: status.NewManager(),
		Console:   log.New(os.Stdout, level),
	})
}
