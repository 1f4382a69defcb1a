/* Copyright 2025 Lifelog Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the database",
	RunE:  runBackup,
}

func init() {
	Register(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := newConfig()
	if err != nil {
		return errors.Wrap(err, "initializing config")
	}

	manager := newBackupManager(cfg)

	path, err := manager.CreateBackup()
	if err != nil {
		return errors.Wrap(err, "creating backup")
	}

	printSuccess("backup created at %s", path)

	if cfg.Backup.MirrorDir == "" {
		printWarning("no mirror directory configured")
	}

	return nil
}
