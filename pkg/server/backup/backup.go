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

// Package backup snapshots the store around sync-driven overwrites and
// persists sync run summaries to durable storage.
package backup

import (
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/lifelog/lifelog/pkg/clock"
	"github.com/lifelog/lifelog/pkg/server/helpers"
	"github.com/lifelog/lifelog/pkg/server/log"
	"github.com/pkg/errors"
)

// Manager creates store snapshots and persists sync summaries. Backups are
// written to Dir with timestamped filenames and optionally mirrored to
// MirrorDir; a failed mirror never fails the primary write.
type Manager struct {
	// DBPath is the authoritative sqlite database file
	DBPath string
	// Dir is the primary backup destination
	Dir string
	// MirrorDir is an optional secondary destination
	MirrorDir string
	// GitPush enables a best-effort push of the mirror to its version
	// control remote after a summary is mirrored
	GitPush bool

	Clock clock.Clock
}

// New returns a backup manager with a real clock
func New(dbPath, dir, mirrorDir string, gitPush bool) *Manager {
	return &Manager{
		DBPath:    dbPath,
		Dir:       dir,
		MirrorDir: mirrorDir,
		GitPush:   gitPush,
		Clock:     clock.New(),
	}
}

// CreateBackup snapshots the store to a timestamped file and returns its
// path. It prefers the sqlite backup utility, which is safe against a live
// database, and falls back to a plain file copy when the utility is
// unavailable.
func (m *Manager) CreateBackup() (string, error) {
	if err := ensureDir(m.Dir); err != nil {
		return "", errors.Wrap(err, "preparing backup directory")
	}

	name := helpers.TimestampedFilename("lifelog", ".db", m.Clock.Now())
	path := filepath.Join(m.Dir, name)

	if err := dumpDatabase(m.DBPath, path); err != nil {
		return "", errors.Wrap(err, "dumping database")
	}

	m.mirror(path, name)

	return path, nil
}

// SaveSummary persists a pruned sync summary as JSON with a timestamped
// filename, mirrors it, and then, if a mirror is configured for version
// control pushes, triggers a best-effort push.
func (m *Manager) SaveSummary(summary map[string]interface{}) (string, error) {
	if err := ensureDir(m.Dir); err != nil {
		return "", errors.Wrap(err, "preparing backup directory")
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "serializing summary")
	}

	name := helpers.TimestampedFilename("sync-summary", ".json", m.Clock.Now())
	path := filepath.Join(m.Dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrap(err, "writing summary")
	}

	if m.mirror(path, name) && m.GitPush {
		m.pushMirror(name)
	}

	return path, nil
}

// mirror copies the given artifact into the mirror directory. Mirroring is
// advisory: failures are logged, never raised. It reports whether the copy
// succeeded.
func (m *Manager) mirror(path, name string) bool {
	if m.MirrorDir == "" {
		return false
	}

	if err := ensureDir(m.MirrorDir); err != nil {
		log.WithFields(log.Fields{
			"dir": m.MirrorDir,
		}).ErrorWrap(err, "preparing mirror directory")
		return false
	}

	if err := copyFile(path, filepath.Join(m.MirrorDir, name)); err != nil {
		log.WithFields(log.Fields{
			"artifact": name,
		}).ErrorWrap(err, "mirroring backup artifact")
		return false
	}

	return true
}

// pushMirror commits and pushes the mirror directory to its version
// control remote. Every failure here is logged and swallowed.
func (m *Manager) pushMirror(name string) {
	if _, err := os.Stat(filepath.Join(m.MirrorDir, ".git")); err != nil {
		log.WithFields(log.Fields{
			"dir": m.MirrorDir,
		}).Debug("mirror is not a git repository; skipping push")
		return
	}

	steps := [][]string{
		{"add", "-A"},
		{"commit", "-m", "sync: " + name},
		{"push"},
	}

	for _, args := range steps {
		cmd := exec.Command("git", append([]string{"-C", m.MirrorDir}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			log.WithFields(log.Fields{
				"step":   args[0],
				"output": string(out),
			}).ErrorWrap(err, "pushing mirror to remote")
			return
		}
	}
}

// dumpDatabase snapshots the sqlite database at src to dst
func dumpDatabase(src, dst string) error {
	sqlite3, err := exec.LookPath("sqlite3")
	if err == nil {
		cmd := exec.Command(sqlite3, src, ".backup "+dst)
		if out, cmdErr := cmd.CombinedOutput(); cmdErr == nil {
			return nil
		} else {
			log.WithFields(log.Fields{
				"output": string(out),
			}).ErrorWrap(cmdErr, "sqlite backup utility failed; falling back to file copy")
		}
	}

	return copyFile(src, dst)
}

func ensureDir(path string) error {
	if path == "" {
		return errors.New("no directory configured")
	}

	return os.MkdirAll(path, 0755)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "copying %s", src)
	}

	return out.Sync()
}
