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
	"time"

	"github.com/lifelog/lifelog/pkg/clock"
	"github.com/lifelog/lifelog/pkg/server/helpers"
	"github.com/lifelog/lifelog/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrMissingData indicates a merge request without a data section. It is a
// structural error: the whole call fails rather than being recorded in the
// summary.
var ErrMissingData = errors.New("missing data in sync request")

// Orchestrator runs the three top-level sync flows against the store
type Orchestrator struct {
	db     *gorm.DB
	clock  clock.Clock
	engine *Engine
}

// NewOrchestrator returns a new sync orchestrator
func NewOrchestrator(db *gorm.DB, c clock.Clock) *Orchestrator {
	return &Orchestrator{
		db:     db,
		clock:  c,
		engine: NewEngine(db, c),
	}
}

// RecordResult is the per-record outcome of a merge
type RecordResult struct {
	UUID    string `json:"uuid,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Record statuses reported by MergeIncoming
const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// PullFullDataset fetches every table's records for the calendar year
// containing the reference instant. The desktop store is the source of
// truth for this flow. A fetch failure is isolated per table: the failing
// table contributes an empty list and the pull continues.
func (o *Orchestrator) PullFullDataset(reference time.Time) map[Table][]Record {
	if reference.IsZero() {
		reference = o.clock.Now()
	}
	start, end := helpers.YearWindow(reference)

	ret := map[Table][]Record{}

	for _, table := range Tables() {
		spec, _ := Spec(table)

		records, err := spec.Fetch(o.db, start, end)
		if err != nil {
			log.WithFields(log.Fields{
				"table": string(table),
			}).ErrorWrap(err, "fetching table for full pull")
			records = []Record{}
		}

		ret[table] = stripRowIDs(records)
	}

	return ret
}

// ReplaceCurrentWindow reconciles the month in progress by treating the
// incoming payload as authoritative: for each table present, every stored
// record in the current month's window is deleted, then the incoming
// records are written back through the table's sync strategy. A record
// whose natural key still matches a surviving row goes through the usual
// clock comparison and is counted as an update or a skip, not a create.
// An unknown table name aborts the whole call.
func (o *Orchestrator) ReplaceCurrentWindow(incoming map[string][]Record) (*Summary, error) {
	for name := range incoming {
		if _, ok := SpecByName(name); !ok {
			return nil, errors.Errorf("unknown table %q in window replace", name)
		}
	}

	start, end := helpers.MonthWindow(o.clock.Now())
	summary := NewSummary()

	for _, table := range Tables() {
		records, present := incoming[string(table)]
		if !present {
			continue
		}
		spec, _ := Spec(table)

		deleted, err := spec.DeleteWindow(o.db, start, end)
		if err != nil {
			summary.AddError(err.Error())
			log.WithFields(log.Fields{
				"table": string(table),
			}).ErrorWrap(err, "clearing window before replace")
			continue
		}
		summary.AddDeleted(table, deleted)

		for _, record := range records {
			o.mergeOne(spec, record, summary)
		}
	}

	return summary, nil
}

// MergeIncoming reconciles arbitrary incoming records table by table,
// record by record, in order. Each record's pre-image is captured before
// its write for the audit notes. A per-record failure is recorded in the
// summary and does not stop the batch; only a missing data section aborts
// the call.
func (o *Orchestrator) MergeIncoming(data map[string][]Record) (map[string][]RecordResult, *Summary, error) {
	if data == nil {
		return nil, nil, ErrMissingData
	}

	summary := NewSummary()
	results := map[string][]RecordResult{}

	for name := range data {
		if _, ok := SpecByName(name); !ok {
			summary.AddError(errors.Errorf("unknown table %q in merge", name).Error())
		}
	}

	for _, table := range Tables() {
		records, present := data[string(table)]
		if !present {
			continue
		}
		spec, _ := Spec(table)

		tableResults := make([]RecordResult, 0, len(records))

		for _, record := range records {
			tableResults = append(tableResults, o.mergeOne(spec, record, summary))
		}

		results[string(table)] = tableResults
	}

	return results, summary, nil
}

// mergeOne reconciles a single record and classifies the outcome
func (o *Orchestrator) mergeOne(spec TableSpec, record Record, summary *Summary) RecordResult {
	// capture the pre-image strictly before the write
	previous := o.preImageText(spec, record)

	out, err := o.engine.Reconcile(spec, record)
	if err != nil {
		summary.AddFailed(spec.Table, record.UUID(), err.Error())

		return RecordResult{UUID: record.UUID(), Status: StatusFailed, Message: err.Error()}
	}

	uuid := out.Entry.UUID()

	switch {
	case out.Created:
		summary.AddCreated(spec.Table, uuid)

		return RecordResult{UUID: uuid, Status: StatusCreated}
	case out.Updated:
		summary.AddUpdated(spec.Table, uuid, previous, out.Entry.String(spec.TextField))

		return RecordResult{UUID: uuid, Status: StatusUpdated}
	default:
		message := ""
		if len(out.Warnings) > 0 {
			message = out.Warnings[0].Code + ": " + out.Warnings[0].Message
		}
		summary.AddSkipped(spec.Table, uuid, message)

		return RecordResult{UUID: uuid, Status: StatusSkipped, Message: message}
	}
}

// preImageText returns the stored value of the table's text field for the
// record about to be merged, or empty if the record does not exist yet
func (o *Orchestrator) preImageText(spec TableSpec, record Record) string {
	normalized := normalizeKeys(record)

	keyValue, present := normalized[spec.NaturalKey]
	if !present {
		return ""
	}

	// a date-typed natural key must match the canonical form it is stored in
	for _, field := range spec.DateFields {
		if field != spec.NaturalKey {
			continue
		}
		if t, ok := helpers.ParseLenientDate(keyValue); ok {
			keyValue = helpers.FormatDate(t)
		}
	}

	existing, found, err := spec.find(o.db, keyValue)
	if err != nil || !found {
		return ""
	}

	return existing.String(spec.TextField)
}

// stripRowIDs removes the internal autoincrement id from fetched records;
// it never leaves the store
func stripRowIDs(records []Record) []Record {
	for _, record := range records {
		delete(record, "id")
	}

	return records
}
