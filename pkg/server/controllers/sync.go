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

package controllers

import (
	"net/http"
	"time"

	"github.com/lifelog/lifelog/pkg/server/app"
	"github.com/lifelog/lifelog/pkg/server/helpers"
	"github.com/lifelog/lifelog/pkg/server/log"
	"github.com/lifelog/lifelog/pkg/server/sync"
)

// NewSync creates a new Sync controller
func NewSync(app *app.App) *Sync {
	return &Sync{
		app:          app,
		orchestrator: sync.NewOrchestrator(app.DB, app.Clock),
	}
}

// Sync is a sync controller
type Sync struct {
	app          *app.App
	orchestrator *sync.Orchestrator
}

// FullSyncParams is the query params for a full dataset pull
type FullSyncParams struct {
	ReferenceDate string `schema:"referenceDate"`
}

// GetFull handles GET /api/v1/sync/full. It responds with every
// record within the trailing window of each table.
func (s *Sync) GetFull(w http.ResponseWriter, r *http.Request) {
	var params FullSyncParams
	if err := parseQuery(r, &params); err != nil {
		handleError(w, "parsing query", err, http.StatusBadRequest)
		return
	}

	var reference time.Time
	if params.ReferenceDate != "" {
		parsed, ok := helpers.ParseLenientDate(params.ReferenceDate)
		if !ok {
			http.Error(w, "invalid referenceDate", http.StatusBadRequest)
			return
		}
		reference = parsed
	}

	dataset := s.orchestrator.PullFullDataset(reference)

	respondJSON(w, http.StatusOK, dataset)
}

// PostWindow handles POST /api/v1/sync/window. It replaces the current
// window of each table present in the payload with the incoming records.
// The store is snapshotted before the overwrite.
func (s *Sync) PostWindow(w http.ResponseWriter, r *http.Request) {
	var payload map[string][]sync.Record
	if err := parseJSON(r, &payload); err != nil {
		handleError(w, "parsing payload", err, http.StatusBadRequest)
		return
	}

	if _, err := s.app.Backup.CreateBackup(); err != nil {
		handleError(w, "backing up before overwrite", err, http.StatusInternalServerError)
		return
	}

	summary, err := s.orchestrator.ReplaceCurrentWindow(payload)
	if err != nil {
		handleError(w, "replacing current window", err, http.StatusBadRequest)
		return
	}

	pruned := summary.Prune()
	s.saveSummary(pruned)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": pruned,
	})
}

// BatchSyncPayload is the payload for a batch merge
type BatchSyncPayload struct {
	Data map[string][]sync.Record `json:"data"`
}

// PostBatch handles POST /api/v1/sync/batch. It merges the incoming
// records into the store and responds with per-record results alongside
// the run summary.
func (s *Sync) PostBatch(w http.ResponseWriter, r *http.Request) {
	var payload BatchSyncPayload
	if err := parseJSON(r, &payload); err != nil {
		handleError(w, "parsing payload", err, http.StatusBadRequest)
		return
	}

	results, summary, err := s.orchestrator.MergeIncoming(payload.Data)
	if err != nil {
		handleError(w, "merging records", err, http.StatusBadRequest)
		return
	}

	pruned := summary.Prune()
	s.saveSummary(pruned)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"summary": pruned,
	})
}

// PostPurge handles POST /api/v1/sync/purge. It deletes the records named
// by the deletion log.
func (s *Sync) PostPurge(w http.ResponseWriter, r *http.Request) {
	var entries []sync.DeletionLogEntry
	if err := parseJSON(r, &entries); err != nil {
		handleError(w, "parsing payload", err, http.StatusBadRequest)
		return
	}

	s.orchestrator.Purge(entries)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"processed": len(entries),
	})
}

// PostBackup handles POST /api/v1/backup. It snapshots the store on demand.
func (s *Sync) PostBackup(w http.ResponseWriter, r *http.Request) {
	path, err := s.app.Backup.CreateBackup()
	if err != nil {
		handleError(w, "creating backup", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"path": path,
	})
}

// saveSummary persists the sync run summary. Persistence failures do not
// fail the sync.
func (s *Sync) saveSummary(pruned map[string]interface{}) {
	if len(pruned) == 0 {
		return
	}

	if _, err := s.app.Backup.SaveSummary(pruned); err != nil {
		log.ErrorWrap(err, "saving sync summary")
	}
}
