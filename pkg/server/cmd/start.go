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
	"net/http"

	"github.com/lifelog/lifelog/pkg/server/buildinfo"
	"github.com/lifelog/lifelog/pkg/server/controllers"
	"github.com/lifelog/lifelog/pkg/server/log"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&portFlag, "port", "", "server port (env: PORT, default: 3001)")
	Register(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := newConfig()
	if err != nil {
		return errors.Wrap(err, "initializing config")
	}

	log.SetLevel(cfg.LogLevel)

	a := initApp(cfg)
	defer func() {
		sqlDB, err := a.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}()

	// Schedule periodic backups
	scheduler := cron.New()
	if err := scheduler.AddFunc(cfg.Backup.Schedule, func() {
		path, err := a.Backup.CreateBackup()
		if err != nil {
			log.ErrorWrap(err, "creating scheduled backup")
			return
		}

		log.WithFields(log.Fields{
			"path": path,
		}).Info("scheduled backup created")
	}); err != nil {
		return errors.Wrapf(err, "scheduling backups with %q", cfg.Backup.Schedule)
	}
	scheduler.Start()
	defer scheduler.Stop()

	ctl := controllers.New(&a)
	rc := controllers.RouteConfig{
		APIRoutes:   controllers.NewAPIRoutes(&a, ctl),
		OpenRoutes:  controllers.NewOpenRoutes(&a, ctl),
		Controllers: ctl,
	}

	r, err := controllers.NewRouter(&a, rc)
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	if a.AccessKeyHash == "" {
		log.Warn("no access key configured; the sync API is unauthenticated")
	}

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"port":    cfg.Port,
	}).Info("Lifelog server starting")

	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		return errors.Wrap(err, "running server")
	}

	return nil
}
