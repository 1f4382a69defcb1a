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

	"github.com/lifelog/lifelog/pkg/server/helpers"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type fetchKind int

const (
	// fetchByDateRange selects records whose date column falls in the window, inclusive
	fetchByDateRange fetchKind = iota
	// fetchByPeriod selects records whose period field matches a window label
	fetchByPeriod
	// fetchOpenTasks selects tasks due in the window plus every open task
	fetchOpenTasks
	// fetchAll selects every record regardless of window
	fetchAll
)

// TableSpec is the per-table sync configuration: how records are fetched for
// a window and how an incoming record is reconciled.
type TableSpec struct {
	Table   Table
	SQLName string

	// NaturalKey is the column an incoming record is looked up by. Most
	// tables use uuid; DailyNotes uses date and Settings uses setting_key.
	NaturalKey string

	// Required fields must be present and non-empty on incoming records
	Required []string

	// Defaults are applied to absent fields before the store write
	Defaults map[string]interface{}

	// DateFields are normalized to canonical calendar dates. A table whose
	// scope field holds free-form period labels does not list it here; such
	// fields pass through unchanged.
	DateFields []string

	// OptionalDateFields are due-style dates: an unparsable value is coerced
	// to empty rather than failing the record
	OptionalDateFields []string

	// TextField is the record's primary text column, captured in audit notes
	TextField string

	// DateColumn is the column used by window predicates
	DateColumn string

	// PeriodColumn is the column holding period labels for fetchByPeriod
	PeriodColumn string

	// MatchDateRange additionally matches fetchByPeriod records whose period
	// column holds a literal calendar date inside the window. GPT dates are
	// heterogeneous: calendar dates for daily entries, period labels for
	// aggregated summaries.
	MatchDateRange bool

	// HasHabitChildren marks the daily-note aggregate whose incoming records
	// can carry booleanHabits/quantifiableHabits child collections
	HasHabitChildren bool

	kind fetchKind
}

// registry is the closed mapping from table identifier to its spec. Tables
// not listed here do not sync.
var registry = map[Table]TableSpec{
	TableDailyNotes: {
		Table:            TableDailyNotes,
		SQLName:          "daily_notes",
		NaturalKey:       "date",
		Required:         []string{"date"},
		DateFields:       []string{"date"},
		TextField:        "text",
		DateColumn:       "date",
		HasHabitChildren: true,
		kind:             fetchByDateRange,
	},
	TableBooleanHabits: {
		Table:      TableBooleanHabits,
		SQLName:    "boolean_habits",
		NaturalKey: "uuid",
		Required:   []string{"date", "habit"},
		Defaults:   map[string]interface{}{"value": false},
		DateFields: []string{"date"},
		TextField:  "habit",
		DateColumn: "date",
		kind:       fetchByDateRange,
	},
	TableQuantifiableHabits: {
		Table:      TableQuantifiableHabits,
		SQLName:    "quantifiable_habits",
		NaturalKey: "uuid",
		Required:   []string{"date", "habit"},
		Defaults:   map[string]interface{}{"value": 0.0},
		DateFields: []string{"date"},
		TextField:  "habit",
		DateColumn: "date",
		kind:       fetchByDateRange,
	},
	TableJournal: {
		Table:      TableJournal,
		SQLName:    "journal_entries",
		NaturalKey: "uuid",
		Required:   []string{"date", "text"},
		DateFields: []string{"date"},
		TextField:  "text",
		DateColumn: "date",
		kind:       fetchByDateRange,
	},
	TableMoney: {
		Table:      TableMoney,
		SQLName:    "money_entries",
		NaturalKey: "uuid",
		Required:   []string{"date", "amount"},
		Defaults:   map[string]interface{}{"account": "default", "category": "uncategorized"},
		DateFields: []string{"date"},
		TextField:  "note",
		DateColumn: "date",
		kind:       fetchByDateRange,
	},
	TableTime: {
		Table:      TableTime,
		SQLName:    "time_entries",
		NaturalKey: "uuid",
		Required:   []string{"date", "seconds"},
		Defaults:   map[string]interface{}{"tag": "untracked"},
		DateFields: []string{"date"},
		TextField:  "description",
		DateColumn: "date",
		kind:       fetchByDateRange,
	},
	TableTasks: {
		Table:              TableTasks,
		SQLName:            "tasks",
		NaturalKey:         "uuid",
		Required:           []string{"text"},
		Defaults:           map[string]interface{}{"completed": false},
		OptionalDateFields: []string{"due", "completion_date"},
		TextField:          "text",
		DateColumn:         "due",
		kind:               fetchOpenTasks,
	},
	TableMoods: {
		Table:      TableMoods,
		SQLName:    "moods",
		NaturalKey: "uuid",
		Required:   []string{"date", "rating"},
		DateFields: []string{"date"},
		TextField:  "comment",
		DateColumn: "date",
		kind:       fetchByDateRange,
	},
	TableText: {
		Table:        TableText,
		SQLName:      "text_entries",
		NaturalKey:   "uuid",
		Required:     []string{"period", "text"},
		TextField:    "text",
		PeriodColumn: "period",
		kind:         fetchByPeriod,
	},
	TableGPT: {
		Table:          TableGPT,
		SQLName:        "gpt_entries",
		NaturalKey:     "uuid",
		Required:       []string{"date", "summary"},
		TextField:      "summary",
		PeriodColumn:   "date",
		MatchDateRange: true,
		kind:           fetchByPeriod,
	},
	TableObjectives: {
		Table:        TableObjectives,
		SQLName:      "objectives",
		NaturalKey:   "uuid",
		Required:     []string{"period", "objective"},
		Defaults:     map[string]interface{}{"completed": false},
		TextField:    "objective",
		PeriodColumn: "period",
		kind:         fetchByPeriod,
	},
	TableSettings: {
		Table:      TableSettings,
		SQLName:    "settings",
		NaturalKey: "setting_key",
		Required:   []string{"setting_key", "value"},
		TextField:  "value",
		kind:       fetchAll,
	},
}

// tableOrder is the stable processing order for multi-table operations.
// DailyNotes goes first so habit children exist before direct habit rows.
var tableOrder = []Table{
	TableDailyNotes,
	TableBooleanHabits,
	TableQuantifiableHabits,
	TableJournal,
	TableMoney,
	TableTime,
	TableTasks,
	TableMoods,
	TableText,
	TableGPT,
	TableObjectives,
	TableSettings,
}

// Tables returns every synced table in processing order
func Tables() []Table {
	ret := make([]Table, len(tableOrder))
	copy(ret, tableOrder)

	return ret
}

// Spec returns the spec for the given table
func Spec(t Table) (TableSpec, bool) {
	spec, ok := registry[t]

	return spec, ok
}

// SpecByName resolves a wire table name to its spec
func SpecByName(name string) (TableSpec, bool) {
	return Spec(Table(name))
}

// Fetch returns the records in scope for the given window, ordered by the
// table's scope column
func (s TableSpec) Fetch(db *gorm.DB, start, end time.Time) ([]Record, error) {
	startDate := helpers.FormatDate(start)
	endDate := helpers.FormatDate(end)

	q := db.Table(s.SQLName)

	switch s.kind {
	case fetchByDateRange:
		q = q.Where(s.DateColumn+" >= ? AND "+s.DateColumn+" <= ?", startDate, endDate).
			Order(s.DateColumn)
	case fetchOpenTasks:
		q = q.Where("(due >= ? AND due <= ?) OR completed = ?", startDate, endDate, false).
			Order("due")
	case fetchByPeriod:
		labels := PeriodWindow(start, end).All()
		if s.MatchDateRange {
			q = q.Where(s.PeriodColumn+" IN ? OR ("+s.PeriodColumn+" >= ? AND "+s.PeriodColumn+" <= ?)",
				labels, startDate, endDate)
		} else {
			q = q.Where(s.PeriodColumn+" IN ?", labels)
		}
		q = q.Order(s.PeriodColumn)
	case fetchAll:
		q = q.Order(s.NaturalKey)
	}

	var rows []map[string]interface{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "fetching records for table %s", s.Table)
	}

	ret := make([]Record, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, Record(row))
	}

	return ret, nil
}

// DeleteWindow removes every record in scope for the given window using the
// same predicate Fetch uses, so a delete-then-recreate replace is symmetric
// with fetching. It returns the number of rows removed.
func (s TableSpec) DeleteWindow(db *gorm.DB, start, end time.Time) (int, error) {
	startDate := helpers.FormatDate(start)
	endDate := helpers.FormatDate(end)

	var res *gorm.DB

	switch s.kind {
	case fetchByDateRange:
		res = db.Exec("DELETE FROM "+s.SQLName+" WHERE "+s.DateColumn+" >= ? AND "+s.DateColumn+" <= ?",
			startDate, endDate)
	case fetchOpenTasks:
		res = db.Exec("DELETE FROM tasks WHERE (due >= ? AND due <= ?) OR completed = ?",
			startDate, endDate, false)
	case fetchByPeriod:
		labels := PeriodWindow(start, end).All()
		if s.MatchDateRange {
			res = db.Exec("DELETE FROM "+s.SQLName+" WHERE "+s.PeriodColumn+" IN ? OR ("+s.PeriodColumn+" >= ? AND "+s.PeriodColumn+" <= ?)",
				labels, startDate, endDate)
		} else {
			res = db.Exec("DELETE FROM "+s.SQLName+" WHERE "+s.PeriodColumn+" IN ?", labels)
		}
	case fetchAll:
		res = db.Exec("DELETE FROM " + s.SQLName)
	}

	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "deleting window records for table %s", s.Table)
	}

	return int(res.RowsAffected), nil
}

// find looks up a single record by the spec's natural key. The boolean
// result reports whether a record was found.
func (s TableSpec) find(db *gorm.DB, keyValue interface{}) (Record, bool, error) {
	var row map[string]interface{}

	err := db.Table(s.SQLName).Where(s.NaturalKey+" = ?", keyValue).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "finding record in table %s", s.Table)
	}

	return Record(row), true, nil
}

// Destroy removes the record with the given uuid, returning the number of
// rows removed. A zero count is not an error; propagated deletions are
// idempotent.
func (s TableSpec) Destroy(db *gorm.DB, uuid string) (int, error) {
	res := db.Exec("DELETE FROM "+s.SQLName+" WHERE uuid = ?", uuid)
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "deleting record %s from table %s", uuid, s.Table)
	}

	return int(res.RowsAffected), nil
}
