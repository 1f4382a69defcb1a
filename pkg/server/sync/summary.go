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
	"github.com/sergi/go-diff/diffmatchpatch"
)

// NoteDetail is an audit note for one record's merge outcome
type NoteDetail struct {
	Previous string `json:"previousNote,omitempty"`
	New      string `json:"newNote,omitempty"`
	Message  string `json:"message,omitempty"`
	Diff     string `json:"diff,omitempty"`
}

// TableSummary accumulates outcome counts and per-uuid audit notes for one table
type TableSummary struct {
	Processed int                   `json:"processed"`
	Created   int                   `json:"created"`
	Updated   int                   `json:"updated"`
	Skipped   int                   `json:"skipped"`
	Failed    int                   `json:"failed"`
	Deleted   int                   `json:"deleted"`
	Notes     map[string]NoteDetail `json:"notes"`
}

// Totals is the cross-table counter section of a summary
type Totals struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Deleted   int `json:"deleted"`
}

// Summary is a per-run sync report. It is built incrementally during a run
// and pruned before persistence or transmission; it is never merged across
// runs.
type Summary struct {
	Tables map[string]*TableSummary `json:"tables"`
	Errors []string                 `json:"errors"`
}

// NewSummary returns an empty summary
func NewSummary() *Summary {
	return &Summary{
		Tables: map[string]*TableSummary{},
		Errors: []string{},
	}
}

func (s *Summary) table(t Table) *TableSummary {
	ts, ok := s.Tables[string(t)]
	if !ok {
		ts = &TableSummary{Notes: map[string]NoteDetail{}}
		s.Tables[string(t)] = ts
	}

	return ts
}

// AddCreated records that a record was created
func (s *Summary) AddCreated(t Table, uuid string) {
	ts := s.table(t)
	ts.Processed++
	ts.Created++
}

// AddUpdated records that a record was overwritten, keeping the previous and
// new values of its primary text field for audit purposes
func (s *Summary) AddUpdated(t Table, uuid, previous, new string) {
	ts := s.table(t)
	ts.Processed++
	ts.Updated++

	if uuid != "" && previous != new {
		ts.Notes[uuid] = NoteDetail{
			Previous: previous,
			New:      new,
			Diff:     renderDiff(previous, new),
		}
	}
}

// AddSkipped records a no-op outcome with its advisory message
func (s *Summary) AddSkipped(t Table, uuid, message string) {
	ts := s.table(t)
	ts.Processed++
	ts.Skipped++

	if uuid != "" && message != "" {
		ts.Notes[uuid] = NoteDetail{Message: message}
	}
}

// AddFailed records a per-record failure with its causing message
func (s *Summary) AddFailed(t Table, uuid, message string) {
	ts := s.table(t)
	ts.Processed++
	ts.Failed++

	if uuid == "" {
		uuid = "(no uuid)"
	}
	ts.Notes[uuid] = NoteDetail{Message: message}
}

// AddDeleted records rows removed by a window replace
func (s *Summary) AddDeleted(t Table, count int) {
	s.table(t).Deleted += count
}

// AddError records a run-level error
func (s *Summary) AddError(message string) {
	s.Errors = append(s.Errors, message)
}

// Totals sums counters across tables
func (s *Summary) Totals() Totals {
	var ret Totals

	for _, ts := range s.Tables {
		ret.Processed += ts.Processed
		ret.Created += ts.Created
		ret.Updated += ts.Updated
		ret.Skipped += ts.Skipped
		ret.Failed += ts.Failed
		ret.Deleted += ts.Deleted
	}

	return ret
}

// Prune renders the summary with all zero-valued counters, empty note maps,
// empty tables and the empty error list removed, keeping the report
// proportional to actual activity.
func (s *Summary) Prune() map[string]interface{} {
	tables := map[string]interface{}{}

	for name, ts := range s.Tables {
		entry := map[string]interface{}{}

		addCount(entry, "processed", ts.Processed)
		addCount(entry, "created", ts.Created)
		addCount(entry, "updated", ts.Updated)
		addCount(entry, "skipped", ts.Skipped)
		addCount(entry, "failed", ts.Failed)
		addCount(entry, "deleted", ts.Deleted)

		if len(ts.Notes) > 0 {
			entry["notes"] = ts.Notes
		}

		if len(entry) > 0 {
			tables[name] = entry
		}
	}

	ret := map[string]interface{}{}

	if len(tables) > 0 {
		ret["tables"] = tables
	}

	totals := map[string]interface{}{}
	t := s.Totals()
	addCount(totals, "processed", t.Processed)
	addCount(totals, "created", t.Created)
	addCount(totals, "updated", t.Updated)
	addCount(totals, "skipped", t.Skipped)
	addCount(totals, "failed", t.Failed)
	addCount(totals, "deleted", t.Deleted)
	if len(totals) > 0 {
		ret["totals"] = totals
	}

	if len(s.Errors) > 0 {
		ret["errors"] = s.Errors
	}

	return ret
}

func addCount(m map[string]interface{}, key string, value int) {
	if value != 0 {
		m[key] = value
	}
}

// renderDiff produces a textual patch between the previous and new values
// of a record's text field
func renderDiff(previous, new string) string {
	if previous == "" || previous == new {
		return ""
	}

	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(previous, new)

	return dmp.PatchToText(patches)
}
