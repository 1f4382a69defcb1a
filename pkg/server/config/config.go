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

// Package config provides the server configuration
package config

import (
	"os"
	"path/filepath"

	"github.com/lifelog/lifelog/pkg/dirs"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDataDir is the default directory name for Lifelog data
	DefaultDataDir = "lifelog"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "lifelog.db"
	// DefaultBackupConfigFilename is the default backup configuration filename
	DefaultBackupConfigFilename = "backup.yaml"
	// DefaultBackupSchedule runs the scheduled backup once a day
	DefaultBackupSchedule = "@daily"
)

var (
	// DefaultDBPath is the default path to the database file
	DefaultDBPath = filepath.Join(dirs.DataHome, DefaultDataDir, DefaultDBFilename)
	// DefaultBackupDir is the default directory for backups
	DefaultBackupDir = filepath.Join(dirs.DataHome, DefaultDataDir, "backups")
	// DefaultBackupConfigPath is the default path to the backup configuration file
	DefaultBackupConfigPath = filepath.Join(dirs.ConfigHome, DefaultDataDir, DefaultBackupConfigFilename)
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
)

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// BackupConfig is the backup configuration, read from a YAML file
type BackupConfig struct {
	Dir       string `yaml:"dir"`
	MirrorDir string `yaml:"mirrorDir"`
	GitPush   bool   `yaml:"gitPush"`
	Schedule  string `yaml:"schedule"`
}

// readBackupFile reads the backup configuration file at the given path. A
// missing file yields the zero configuration.
func readBackupFile(path string) (BackupConfig, error) {
	var ret BackupConfig

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ret, nil
	} else if err != nil {
		return ret, errors.Wrap(err, "reading backup config file")
	}

	if err := yaml.Unmarshal(b, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling backup config")
	}

	return ret, nil
}

// WriteBackupFile writes the backup configuration to the file at the given path
func WriteBackupFile(path string, cf BackupConfig) error {
	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling backup config into YAML")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "preparing config directory")
	}

	if err := os.WriteFile(path, b, 0644); err != nil {
		return errors.Wrap(err, "writing the backup config file")
	}

	return nil
}

// Config is an application configuration
type Config struct {
	AppEnv        string
	Port          string
	DBPath        string
	AccessKeyHash string
	LogLevel      string
	Backup        BackupConfig
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv           string
	Port             string
	DBPath           string
	LogLevel         string
	BackupConfigPath string
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	c := Config{
		AppEnv:        getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:          getOrEnv(p.Port, "PORT", "3001"),
		DBPath:        getOrEnv(p.DBPath, "DBPath", DefaultDBPath),
		AccessKeyHash: os.Getenv("AccessKeyHash"),
		LogLevel:      getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
	}

	backupPath := getOrEnv(p.BackupConfigPath, "BackupConfig", DefaultBackupConfigPath)
	backup, err := readBackupFile(backupPath)
	if err != nil {
		return Config{}, err
	}
	if backup.Dir == "" {
		backup.Dir = DefaultBackupDir
	}
	if backup.Schedule == "" {
		backup.Schedule = DefaultBackupSchedule
	}
	c.Backup = backup

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}

	if c.DBPath == "" {
		return ErrDBMissingPath
	}

	return nil
}
