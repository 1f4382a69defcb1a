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
	"time"

	"github.com/lifelog/lifelog/pkg/assert"
	"github.com/lifelog/lifelog/pkg/clock"
	"github.com/lifelog/lifelog/pkg/server/testutils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *gorm.DB, *clock.Mock) {
	db := testutils.InitMemoryDB(t)
	c := clock.NewMock()

	return NewOrchestrator(db, c), db, c
}

func seedJournal(t *testing.T, o *Orchestrator, uuid, date, text, updatedAt string) {
	spec := mustSpec(t, TableJournal)

	if _, err := o.engine.Reconcile(spec, Record{
		"uuid":      uuid,
		"date":      date,
		"text":      text,
		"updatedAt": updatedAt,
	}); err != nil {
		t.Fatal(errors.Wrap(err, "seeding journal entry"))
	}
}

func TestMergeIncomingFailureIsolation(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	good1 := testutils.MustUUID(t)
	bad := testutils.MustUUID(t)
	good2 := testutils.MustUUID(t)

	results, summary, err := o.MergeIncoming(map[string][]Record{
		string(TableJournal): {
			{"uuid": good1, "date": "2024-03-05", "text": "one", "updatedAt": "2024-03-05T20:00:00Z"},
			{"uuid": bad, "date": "2024-03-06", "updatedAt": "2024-03-06T20:00:00Z"},
			{"uuid": good2, "date": "2024-03-07", "text": "three", "updatedAt": "2024-03-07T20:00:00Z"},
		},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	got := results[string(TableJournal)]
	assert.Equal(t, len(got), 3, "every record should have a result")
	assert.Equal(t, got[0].Status, StatusCreated, "first record status mismatch")
	assert.Equal(t, got[1].Status, StatusFailed, "second record status mismatch")
	assert.Equal(t, got[2].Status, StatusCreated, "third record status mismatch")

	totals := summary.Totals()
	assert.Equal(t, totals.Processed, 3, "processed mismatch")
	assert.Equal(t, totals.Created, 2, "created mismatch")
	assert.Equal(t, totals.Failed, 1, "failed mismatch")
}

func TestMergeIncomingMissingData(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	_, _, err := o.MergeIncoming(nil)

	assert.Equal(t, errors.Is(err, ErrMissingData), true, "error mismatch")
}

func TestMergeIncomingUnknownTable(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	uuid := testutils.MustUUID(t)
	results, summary, err := o.MergeIncoming(map[string][]Record{
		"Bogus": {
			{"uuid": uuid, "text": "nope"},
		},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equal(t, len(results), 0, "unknown table should yield no results")
	assert.Equal(t, len(summary.Errors), 1, "one run-level error expected")
	assert.ContainsSubstring(t, summary.Errors[0], "Bogus", "error should name the table")
}

func TestMergeIncomingAuditNote(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	uuid := testutils.MustUUID(t)

	seedJournal(t, o, uuid, "2024-03-05", "first draft", "2024-03-05T20:00:00Z")

	_, summary, err := o.MergeIncoming(map[string][]Record{
		string(TableJournal): {
			{"uuid": uuid, "date": "2024-03-05", "text": "final draft", "updatedAt": "2024-03-06T20:00:00Z"},
		},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	ts := summary.Tables[string(TableJournal)]
	assert.Equal(t, ts.Updated, 1, "updated mismatch")

	note, ok := ts.Notes[uuid]
	assert.Equal(t, ok, true, "audit note expected for the updated record")
	assert.Equal(t, note.Previous, "first draft", "previous text mismatch")
	assert.Equal(t, note.New, "final draft", "new text mismatch")
	assert.NotEqual(t, note.Diff, "", "diff should be rendered")
}

func TestReplaceCurrentWindow(t *testing.T) {
	o, db, _ := newTestOrchestrator(t)

	inWindow := testutils.MustUUID(t)
	outOfWindow := testutils.MustUUID(t)

	// the mock clock sits inside March 2024
	seedJournal(t, o, inWindow, "2024-03-10", "doomed", "2024-03-10T20:00:00Z")
	seedJournal(t, o, outOfWindow, "2024-02-10", "survivor", "2024-02-10T20:00:00Z")

	incoming := testutils.MustUUID(t)
	summary, err := o.ReplaceCurrentWindow(map[string][]Record{
		string(TableJournal): {
			{"uuid": incoming, "date": "2024-03-20", "text": "fresh", "updatedAt": "2024-03-20T20:00:00Z"},
		},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	ts := summary.Tables[string(TableJournal)]
	assert.Equal(t, ts.Deleted, 1, "deleted mismatch")
	assert.Equal(t, ts.Created, 1, "created mismatch")

	spec := mustSpec(t, TableJournal)

	if _, found, _ := spec.find(db, inWindow); found {
		t.Fatal("in-window record should have been replaced")
	}
	if _, found, _ := spec.find(db, outOfWindow); !found {
		t.Fatal("out-of-window record should survive the replace")
	}
	if _, found, _ := spec.find(db, incoming); !found {
		t.Fatal("incoming record should be recreated")
	}
}

func TestReplaceCurrentWindowUpdatesSurvivor(t *testing.T) {
	o, db, _ := newTestOrchestrator(t)

	survivor := testutils.MustUUID(t)

	// out of the March window, so the delete pass leaves it alone
	seedJournal(t, o, survivor, "2024-02-10", "old text", "2024-02-10T20:00:00Z")

	summary, err := o.ReplaceCurrentWindow(map[string][]Record{
		string(TableJournal): {
			{"uuid": survivor, "date": "2024-02-10", "text": "new text", "updatedAt": "2024-03-20T20:00:00Z"},
		},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	ts := summary.Tables[string(TableJournal)]
	assert.Equal(t, ts.Deleted, 0, "deleted mismatch")
	assert.Equal(t, ts.Created, 0, "created mismatch")
	assert.Equal(t, ts.Updated, 1, "updated mismatch")

	spec := mustSpec(t, TableJournal)
	stored, found, err := spec.find(db, survivor)
	if err != nil || !found {
		t.Fatal("surviving record should still exist")
	}
	assert.Equal(t, stored.String("text"), "new text", "stored text mismatch")
}

func TestMergeIncomingAuditNoteLenientDate(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	spec := mustSpec(t, TableDailyNotes)
	if _, err := o.engine.Reconcile(spec, Record{
		"date":      "2024-03-05",
		"text":      "first note",
		"updatedAt": "2024-03-05T20:00:00Z",
	}); err != nil {
		t.Fatal(errors.Wrap(err, "seeding daily note"))
	}

	// the slash date must resolve to the stored canonical date
	_, summary, err := o.MergeIncoming(map[string][]Record{
		string(TableDailyNotes): {
			{"date": "2024/03/05", "text": "second note", "updatedAt": "2024-03-06T20:00:00Z"},
		},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	ts := summary.Tables[string(TableDailyNotes)]
	assert.Equal(t, ts.Updated, 1, "updated mismatch")
	assert.Equal(t, len(ts.Notes), 1, "one audit note expected")

	for _, note := range ts.Notes {
		assert.Equal(t, note.Previous, "first note", "previous text mismatch")
		assert.Equal(t, note.New, "second note", "new text mismatch")
	}
}

func TestReplaceCurrentWindowUnknownTable(t *testing.T) {
	o, db, _ := newTestOrchestrator(t)

	seedJournal(t, o, testutils.MustUUID(t), "2024-03-10", "kept", "2024-03-10T20:00:00Z")

	_, err := o.ReplaceCurrentWindow(map[string][]Record{
		"Bogus": {},
	})

	assert.NotEqual(t, err, nil, "unknown table should abort the replace")
	// nothing was deleted before the abort
	assert.Equal(t, testutils.MustCount(t, db, "journal_entries"), 1, "journal count mismatch")
}

func TestPullFullDataset(t *testing.T) {
	o, db, _ := newTestOrchestrator(t)

	seedJournal(t, o, testutils.MustUUID(t), "2024-03-10", "this year", "2024-03-10T20:00:00Z")
	seedJournal(t, o, testutils.MustUUID(t), "2023-06-10", "last year", "2023-06-10T20:00:00Z")

	settingsSpec := mustSpec(t, TableSettings)
	if _, err := o.engine.Reconcile(settingsSpec, Record{
		"settingKey": "theme",
		"value":      "dark",
		"updatedAt":  "2024-03-01T08:00:00Z",
	}); err != nil {
		t.Fatal(errors.Wrap(err, "seeding setting"))
	}

	dataset := o.PullFullDataset(time.Time{})

	assert.Equal(t, len(dataset), 12, "every table should be present")

	journal := dataset[TableJournal]
	assert.Equal(t, len(journal), 1, "only the reference year's entries should be pulled")
	assert.Equal(t, journal[0].String("text"), "this year", "journal text mismatch")

	if _, present := journal[0]["id"]; present {
		t.Fatal("internal row id should not leave the store")
	}

	settings := dataset[TableSettings]
	assert.Equal(t, len(settings), 1, "settings should always be pulled in full")
	assert.Equal(t, settings[0].String("value"), "dark", "setting value mismatch")

	// ensure the seeded rows are still there; a pull never writes
	assert.Equal(t, testutils.MustCount(t, db, "journal_entries"), 2, "pull should not modify the store")
}
