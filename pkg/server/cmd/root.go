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

// Package cmd provides the server commands
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	dbPathFlag       string
	portFlag         string
	logLevelFlag     string
	backupConfigFlag string
)

var root = &cobra.Command{
	Use:           "lifelog-server",
	Short:         "Lifelog server - a personal records sync server",
	SilenceErrors: true,
	SilenceUsage:  true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	root.PersistentFlags().StringVar(&dbPathFlag, "dbPath", "", "the path to the database file (env: DBPath, defaults to standard location)")
	root.PersistentFlags().StringVar(&logLevelFlag, "logLevel", "", "log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	root.PersistentFlags().StringVar(&backupConfigFlag, "backupConfig", "", "the path to the backup configuration file (env: BackupConfig, defaults to standard location)")
}

// Register adds a new command
func Register(cmd *cobra.Command) {
	root.AddCommand(cmd)
}

// Execute runs the main command
func Execute() error {
	return root.Execute()
}
