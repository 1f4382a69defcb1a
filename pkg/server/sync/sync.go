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

// Package sync implements the data synchronization engine that reconciles
// the desktop store with an offline-first mobile client. Records are merged
// one at a time with a last-write-wins rule on their updatedAt timestamps.
package sync

import (
	"fmt"
	"strings"
	"unicode"
)

// Table identifies a logical synced table
type Table string

// The closed set of synced tables. Unknown table names in a request are a
// structural error, not a runtime dispatch miss.
const (
	TableDailyNotes         Table = "DailyNotes"
	TableBooleanHabits      Table = "BooleanHabits"
	TableQuantifiableHabits Table = "QuantifiableHabits"
	TableJournal            Table = "Journal"
	TableMoney              Table = "Money"
	TableTime               Table = "Time"
	TableTasks              Table = "Tasks"
	TableMoods              Table = "Moods"
	TableText               Table = "Text"
	TableGPT                Table = "GPT"
	TableObjectives         Table = "Objectives"
	TableSettings           Table = "Settings"
)

// Record is an arbitrary field map for one row of a synced table. Keys are
// column names once normalized; values are whatever the client sent.
type Record map[string]interface{}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	ret := make(Record, len(r))
	for k, v := range r {
		ret[k] = v
	}

	return ret
}

// String returns the record's value for the given field as a string, or
// empty if absent or not textual
func (r Record) String(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}

	return ""
}

// UUID returns the record's uuid, or empty if unset
func (r Record) UUID() string {
	return r.String("uuid")
}

// columnName converts a wire field name to its column name. Clients send
// camelCase fields (updatedAt, settingKey); columns are snake_case.
func columnName(key string) string {
	var b strings.Builder

	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// normalizeKeys remaps every wire field name in the record to a column name
func normalizeKeys(r Record) Record {
	ret := make(Record, len(r))
	for k, v := range r {
		ret[columnName(k)] = v
	}

	return ret
}

// ValidationError indicates an incoming record is missing a required field
type ValidationError struct {
	Table Table
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("record for table %s is missing required field %q", e.Table, e.Field)
}

// Warning codes attached to no-op reconcile outcomes
const (
	// WarnSkip indicates the incoming record carries the same updatedAt as the stored one
	WarnSkip = "SKIP"
	// WarnOutdated indicates the incoming record is older than the stored one
	WarnOutdated = "OUTDATED"
	// WarnUnexpected indicates the updatedAt comparison was degenerate. It is
	// a defensive catch-all: it can only fire if an invalid timestamp survives
	// normalization.
	WarnUnexpected = "UNEXPECTED"
)

// Warning is an advisory outcome of a reconcile call. Warnings are never
// errors; the triggering operation is treated as successful.
type Warning struct {
	Code    string
	Message string
}

func newWarning(code, format string, args ...interface{}) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
