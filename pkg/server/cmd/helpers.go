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
	"fmt"

	"github.com/fatih/color"
	"github.com/lifelog/lifelog/pkg/clock"
	"github.com/lifelog/lifelog/pkg/server/app"
	"github.com/lifelog/lifelog/pkg/server/backup"
	"github.com/lifelog/lifelog/pkg/server/config"
	"github.com/lifelog/lifelog/pkg/server/database"
	"gorm.io/gorm"
)

var (
	colorGreen  = color.New(color.FgGreen)
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
)

// printSuccess prints a success message to the terminal
func printSuccess(msg string, v ...interface{}) {
	fmt.Fprintf(color.Output, "%s %s\n", colorGreen.Sprint("✔"), fmt.Sprintf(msg, v...))
}

// printWarning prints a warning message to the terminal
func printWarning(msg string, v ...interface{}) {
	fmt.Fprintf(color.Output, "%s %s\n", colorYellow.Sprint("•"), fmt.Sprintf(msg, v...))
}

// PrintError prints an error message to the terminal
func PrintError(err error) {
	fmt.Fprintf(color.Output, "%s %s\n", colorRed.Sprint("✘"), err.Error())
}

func initDB(dbPath string) *gorm.DB {
	db := database.Open(dbPath)
	database.InitSchema(db)

	return db
}

func newConfig() (config.Config, error) {
	return config.New(config.Params{
		Port:             portFlag,
		DBPath:           dbPathFlag,
		LogLevel:         logLevelFlag,
		BackupConfigPath: backupConfigFlag,
	})
}

func initApp(cfg config.Config) app.App {
	db := initDB(cfg.DBPath)

	return app.App{
		DB:            db,
		Clock:         clock.New(),
		Backup:        newBackupManager(cfg),
		AccessKeyHash: cfg.AccessKeyHash,
		Port:          cfg.Port,
		DBPath:        cfg.DBPath,
	}
}

func newBackupManager(cfg config.Config) *backup.Manager {
	return backup.New(cfg.DBPath, cfg.Backup.Dir, cfg.Backup.MirrorDir, cfg.Backup.GitPush)
}
