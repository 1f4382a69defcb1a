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
)

func TestTables(t *testing.T) {
	got := Tables()

	assert.Equal(t, len(got), 12, "table count mismatch")
	// the daily-note aggregate goes first so habit children exist before
	// direct habit rows are merged
	assert.Equal(t, got[0], TableDailyNotes, "first table mismatch")

	for _, table := range got {
		spec, ok := Spec(table)
		assert.Equal(t, ok, true, "missing spec for "+string(table))
		assert.NotEqual(t, spec.SQLName, "", "missing sql name for "+string(table))
		assert.NotEqual(t, spec.NaturalKey, "", "missing natural key for "+string(table))
	}
}

func TestSpecByName(t *testing.T) {
	spec, ok := SpecByName("Journal")
	assert.Equal(t, ok, true, "Journal should resolve")
	assert.Equal(t, spec.Table, TableJournal, "table mismatch")

	_, ok = SpecByName("NotATable")
	assert.Equal(t, ok, false, "unknown name should not resolve")
}

func TestFetchOpenTasks(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	e := NewEngine(db, clock.NewMock())
	spec := mustSpec(t, TableTasks)

	seed := func(text, due string, completed bool) {
		rec := Record{
			"uuid":      testutils.MustUUID(t),
			"text":      text,
			"completed": completed,
			"updatedAt": "2024-03-01T08:00:00Z",
		}
		if due != "" {
			rec["due"] = due
		}
		if _, err := e.Reconcile(spec, rec); err != nil {
			t.Fatal(errors.Wrap(err, "seeding task"))
		}
	}

	seed("due in window", "2024-03-10", true)
	seed("open and overdue", "2023-12-01", false)
	seed("done and out of window", "2023-12-01", true)
	seed("open with no due date", "", false)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	got, err := spec.Fetch(db, start, end)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	texts := map[string]bool{}
	for _, rec := range got {
		texts[rec.String("text")] = true
	}

	assert.Equal(t, len(got), 3, "result count mismatch")
	assert.Equal(t, texts["due in window"], true, "in-window task should be fetched")
	assert.Equal(t, texts["open and overdue"], true, "open task should be fetched regardless of window")
	assert.Equal(t, texts["open with no due date"], true, "undated open task should be fetched")
	assert.Equal(t, texts["done and out of window"], false, "completed out-of-window task should be excluded")
}

func TestFetchByPeriod(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	e := NewEngine(db, clock.NewMock())
	spec := mustSpec(t, TableText)

	seed := func(period, text string) {
		if _, err := e.Reconcile(spec, Record{
			"uuid":      testutils.MustUUID(t),
			"period":    period,
			"text":      text,
			"updatedAt": "2024-03-01T08:00:00Z",
		}); err != nil {
			t.Fatal(errors.Wrap(err, "seeding text entry"))
		}
	}

	seed("2024-03", "march notes")
	seed("2024-Q1", "quarter notes")
	seed("2024-W11", "week notes")
	seed("2024-04", "april notes")
	seed("2023", "last year notes")

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	got, err := spec.Fetch(db, start, end)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	periods := map[string]bool{}
	for _, rec := range got {
		periods[rec.String("period")] = true
	}

	assert.Equal(t, len(got), 3, "result count mismatch")
	assert.Equal(t, periods["2024-03"], true, "month label should match")
	assert.Equal(t, periods["2024-Q1"], true, "quarter label should match")
	assert.Equal(t, periods["2024-W11"], true, "week label should match")
	assert.Equal(t, periods["2024-04"], false, "other month should not match")
}

func TestFetchGPTByDateOrLabel(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	e := NewEngine(db, clock.NewMock())
	spec := mustSpec(t, TableGPT)

	seed := func(date, summary string) {
		if _, err := e.Reconcile(spec, Record{
			"uuid":      testutils.MustUUID(t),
			"date":      date,
			"summary":   summary,
			"updatedAt": "2024-03-01T08:00:00Z",
		}); err != nil {
			t.Fatal(errors.Wrap(err, "seeding gpt entry"))
		}
	}

	// the date field is heterogeneous: plain dates and period labels coexist
	seed("2024-03-12", "daily summary")
	seed("2024-03", "monthly summary")
	seed("2024-02-12", "out of window")

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	got, err := spec.Fetch(db, start, end)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equal(t, len(got), 2, "result count mismatch")
}

func TestDeleteWindowMatchesFetch(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	e := NewEngine(db, clock.NewMock())
	spec := mustSpec(t, TableJournal)

	seed := func(date string) {
		if _, err := e.Reconcile(spec, Record{
			"uuid":      testutils.MustUUID(t),
			"date":      date,
			"text":      "entry",
			"updatedAt": "2024-03-01T08:00:00Z",
		}); err != nil {
			t.Fatal(errors.Wrap(err, "seeding journal entry"))
		}
	}

	seed("2024-03-05")
	seed("2024-03-25")
	seed("2024-04-02")

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	deleted, err := spec.DeleteWindow(db, start, end)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equal(t, deleted, 2, "deleted count mismatch")

	remaining, err := spec.Fetch(db, start, end)
	if err != nil {
		t.Fatal(errors.Wrap(err, "fetching after delete"))
	}
	assert.Equal(t, len(remaining), 0, "delete should clear exactly the fetch scope")
	assert.Equal(t, testutils.MustCount(t, db, "journal_entries"), 1, "out-of-window record should remain")
}

func TestDestroyIdempotent(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	e := NewEngine(db, clock.NewMock())
	spec := mustSpec(t, TableJournal)
	uuid := testutils.MustUUID(t)

	if _, err := e.Reconcile(spec, Record{
		"uuid":      uuid,
		"date":      "2024-03-05",
		"text":      "entry",
		"updatedAt": "2024-03-05T08:00:00Z",
	}); err != nil {
		t.Fatal(errors.Wrap(err, "seeding"))
	}

	deleted, err := spec.Destroy(db, uuid)
	if err != nil {
		t.Fatal(errors.Wrap(err, "first destroy"))
	}
	assert.Equal(t, deleted, 1, "first destroy should remove the row")

	deleted, err = spec.Destroy(db, uuid)
	if err != nil {
		t.Fatal(errors.Wrap(err, "second destroy"))
	}
	assert.Equal(t, deleted, 0, "second destroy should be a no-op")
}
