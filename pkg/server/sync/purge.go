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

package sync

import (
	"github.com/lifelog/lifelog/pkg/server/log"
)

// DeletionLogEntry is one record a client deleted locally, to be
// propagated to this store
type DeletionLogEntry struct {
	TableName  string `json:"tableName"`
	RecordUUID string `json:"recordUuid"`
}

// Purge replays an externally produced deletion log against the store.
// It is best-effort: a record that is already gone is a successful no-op,
// and any other per-entry failure is logged and skipped. The whole log is
// always processed.
func (o *Orchestrator) Purge(entries []DeletionLogEntry) {
	for _, entry := range entries {
		fields := log.Fields{
			"table": entry.TableName,
			"uuid":  entry.RecordUUID,
		}

		spec, ok := SpecByName(entry.TableName)
		if !ok {
			log.WithFields(fields).Warn("skipping deletion log entry for unrecognized table")
			continue
		}

		deleted, err := spec.Destroy(o.db, entry.RecordUUID)
		if err != nil {
			log.WithFields(fields).ErrorWrap(err, "propagating deletion")
			continue
		}

		if deleted == 0 {
			log.WithFields(fields).Debug("record already absent; deletion is a no-op")
		}
	}
}
