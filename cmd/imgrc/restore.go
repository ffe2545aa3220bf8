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
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// ♻️ newRestoreCmd creates the restore command
func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Move .backup siblings back over their original paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			op, err := newOperator(cfg)
			if err != nil {
				return errors.Errorf("creating operator: %w", err)
			}

			return op.Restore(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "d", false, "report what would be restored without touching files")
	return cmd
}
