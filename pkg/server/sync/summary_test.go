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
	"testing"

	"github.com/lifelog/lifelog/pkg/assert"
)

func TestSummaryTotals(t *testing.T) {
	s := NewSummary()
	s.AddCreated(TableJournal, "a")
	s.AddCreated(TableMoods, "b")
	s.AddUpdated(TableJournal, "c", "old", "new")
	s.AddSkipped(TableTasks, "d", "")
	s.AddFailed(TableTasks, "", "boom")
	s.AddDeleted(TableJournal, 4)

	got := s.Totals()

	assert.Equal(t, got.Processed, 5, "processed mismatch")
	assert.Equal(t, got.Created, 2, "created mismatch")
	assert.Equal(t, got.Updated, 1, "updated mismatch")
	assert.Equal(t, got.Skipped, 1, "skipped mismatch")
	assert.Equal(t, got.Failed, 1, "failed mismatch")
	assert.Equal(t, got.Deleted, 4, "deleted mismatch")
}

func TestSummaryPrune(t *testing.T) {
	s := NewSummary()
	s.AddCreated(TableJournal, "a")
	s.AddCreated(TableJournal, "b")
	s.AddSkipped(TableMoods, "c", "")

	got := s.Prune()

	if _, present := got["errors"]; present {
		t.Fatal("empty error list should be pruned")
	}

	tables := got["tables"].(map[string]interface{})
	journal := tables[string(TableJournal)].(map[string]interface{})

	assert.Equal(t, journal["created"], 2, "created mismatch")
	if _, present := journal["failed"]; present {
		t.Fatal("zero counter should be pruned")
	}
	if _, present := journal["notes"]; present {
		t.Fatal("empty notes should be pruned")
	}

	totals := got["totals"].(map[string]interface{})
	assert.Equal(t, totals["processed"], 3, "totals processed mismatch")
	if _, present := totals["deleted"]; present {
		t.Fatal("zero total should be pruned")
	}
}

func TestSummaryPruneEmpty(t *testing.T) {
	got := NewSummary().Prune()

	assert.Equal(t, len(got), 0, "an inactive run should prune to nothing")
}

func TestSummaryFailedWithoutUUID(t *testing.T) {
	s := NewSummary()
	s.AddFailed(TableJournal, "", "missing required field")

	note, ok := s.Tables[string(TableJournal)].Notes["(no uuid)"]
	assert.Equal(t, ok, true, "failure note should be keyed by placeholder")
	assert.Equal(t, note.Message, "missing required field", "note message mismatch")
}

func TestRenderDiff(t *testing.T) {
	assert.Equal(t, renderDiff("", "anything"), "", "no diff without a previous value")
	assert.Equal(t, renderDiff("same", "same"), "", "no diff for identical values")
	assert.NotEqual(t, renderDiff("first draft", "final draft"), "", "changed text should produce a patch")
}
