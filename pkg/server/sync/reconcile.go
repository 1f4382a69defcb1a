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
	"github.com/lifelog/lifelog/pkg/clock"
	"github.com/lifelog/lifelog/pkg/server/helpers"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Engine reconciles single incoming records against the store with a
// last-write-wins rule. Each Reconcile call runs in its own transaction;
// a failure at any step rolls back the whole call, habit children included.
type Engine struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewEngine returns a new reconcile engine
func NewEngine(db *gorm.DB, c clock.Clock) *Engine {
	return &Engine{db: db, clock: c}
}

// Outcome is the result of one reconcile call
type Outcome struct {
	// Entry is the normalized record as written, or as it would have been
	// written for a no-op outcome
	Entry Record

	Created bool
	Updated bool

	// Warnings carry advisory no-op outcomes (SKIP, OUTDATED, UNEXPECTED)
	Warnings []Warning
}

// clockOrder is the outcome of comparing two updatedAt values
type clockOrder int

const (
	orderNewer clockOrder = iota
	orderEqual
	orderOlder
	orderUnknown
)

// compareClocks totally orders the incoming updatedAt against the stored
// one. orderUnknown can only occur if an invalid timestamp survived
// normalization; callers treat it as a no-op.
func compareClocks(incoming string, existing interface{}) clockOrder {
	in, inOK := helpers.ParseLenientDate(incoming)
	ex, exOK := helpers.ParseLenientDate(existing)

	if !inOK || !exOK {
		return orderUnknown
	}

	switch {
	case in.After(ex):
		return orderNewer
	case in.Equal(ex):
		return orderEqual
	default:
		return orderOlder
	}
}

// Reconcile merges one incoming record into the given table. It decides
// create vs update vs skip by comparing updatedAt timestamps, normalizes
// dates, and recurses into habit child collections for the daily-note
// aggregate.
func (e *Engine) Reconcile(spec TableSpec, incoming Record) (Outcome, error) {
	rec := normalizeKeys(incoming)

	boolHabits := extractChildren(rec, "boolean_habits")
	quantHabits := extractChildren(rec, "quantifiable_habits")

	for _, field := range spec.Required {
		if isEmpty(rec[field]) {
			return Outcome{}, ValidationError{Table: spec.Table, Field: field}
		}
	}

	now := e.clock.Now()

	if rec.UUID() == "" {
		uuid, err := helpers.GenUUID()
		if err != nil {
			return Outcome{}, err
		}
		rec["uuid"] = uuid
	}
	rec["created_at"] = helpers.NormalizeTimestamp(rec["created_at"], now)
	rec["updated_at"] = helpers.NormalizeTimestamp(rec["updated_at"], now)

	for _, field := range spec.DateFields {
		if t, ok := helpers.ParseLenientDate(rec[field]); ok {
			rec[field] = helpers.FormatDate(t)
		}
	}
	for _, field := range spec.OptionalDateFields {
		value, present := rec[field]
		if !present {
			continue
		}
		if t, ok := helpers.ParseLenientDate(value); ok {
			rec[field] = helpers.FormatDate(t)
		} else {
			// an unparsable optional date is coerced to absent, not an error
			rec[field] = ""
		}
	}

	for field, value := range spec.Defaults {
		if _, present := rec[field]; !present {
			rec[field] = value
		}
	}

	tx := e.db.Begin()
	if tx.Error != nil {
		return Outcome{}, errors.Wrap(tx.Error, "beginning transaction")
	}

	out, err := e.reconcileTx(tx, spec, rec)
	if err != nil {
		tx.Rollback()
		return Outcome{}, err
	}

	if spec.HasHabitChildren {
		parentDate := rec.String("date")

		if err := e.reconcileHabits(tx, TableBooleanHabits, parentDate, boolHabits, &out); err != nil {
			tx.Rollback()
			return Outcome{}, err
		}
		if err := e.reconcileHabits(tx, TableQuantifiableHabits, parentDate, quantHabits, &out); err != nil {
			tx.Rollback()
			return Outcome{}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return Outcome{}, errors.Wrap(err, "committing transaction")
	}

	return out, nil
}

func (e *Engine) reconcileTx(tx *gorm.DB, spec TableSpec, rec Record) (Outcome, error) {
	out := Outcome{Entry: rec}

	existing, found, err := spec.find(tx, rec[spec.NaturalKey])
	if err != nil {
		return out, err
	}

	if !found {
		if err := tx.Table(spec.SQLName).Create(map[string]interface{}(rec)).Error; err != nil {
			return out, errors.Wrapf(err, "inserting record into table %s", spec.Table)
		}
		out.Created = true

		return out, nil
	}

	switch compareClocks(rec.String("updated_at"), existing["updated_at"]) {
	case orderNewer:
		update := rec.Clone()
		// createdAt is set once; the row identity never changes on update
		delete(update, "created_at")
		delete(update, "id")

		err := tx.Table(spec.SQLName).
			Where(spec.NaturalKey+" = ?", rec[spec.NaturalKey]).
			Updates(map[string]interface{}(update)).Error
		if err != nil {
			return out, errors.Wrapf(err, "updating record in table %s", spec.Table)
		}
		out.Updated = true
	case orderEqual:
		out.Warnings = append(out.Warnings, newWarning(WarnSkip,
			"%s: record %v already up to date", spec.Table, rec[spec.NaturalKey]))
	case orderOlder:
		out.Warnings = append(out.Warnings, newWarning(WarnOutdated,
			"%s: incoming record %v is older than the stored one", spec.Table, rec[spec.NaturalKey]))
	default:
		out.Warnings = append(out.Warnings, newWarning(WarnUnexpected,
			"%s: record %v has an unorderable updatedAt", spec.Table, rec[spec.NaturalKey]))
	}

	return out, nil
}

// reconcileHabits upserts habit child rows keyed by (date, habit). Children
// follow the same last-write-wins rule as top-level records.
func (e *Engine) reconcileHabits(tx *gorm.DB, table Table, parentDate string, children []Record, out *Outcome) error {
	if len(children) == 0 {
		return nil
	}

	spec, ok := Spec(table)
	if !ok {
		return errors.Errorf("unknown habit table %s", table)
	}

	now := e.clock.Now()

	for _, child := range children {
		h := normalizeKeys(child)

		if isEmpty(h["habit"]) && !isEmpty(h["habit_key"]) {
			h["habit"] = h["habit_key"]
			delete(h, "habit_key")
		}
		if isEmpty(h["habit"]) {
			return ValidationError{Table: table, Field: "habit"}
		}

		if isEmpty(h["date"]) {
			h["date"] = parentDate
		} else if t, ok := helpers.ParseLenientDate(h["date"]); ok {
			h["date"] = helpers.FormatDate(t)
		}

		if h.UUID() == "" {
			uuid, err := helpers.GenUUID()
			if err != nil {
				return err
			}
			h["uuid"] = uuid
		}
		h["created_at"] = helpers.NormalizeTimestamp(h["created_at"], now)
		h["updated_at"] = helpers.NormalizeTimestamp(h["updated_at"], now)

		for field, value := range spec.Defaults {
			if _, present := h[field]; !present {
				h[field] = value
			}
		}

		var existing map[string]interface{}
		err := tx.Table(spec.SQLName).
			Where("date = ? AND habit = ?", h["date"], h["habit"]).
			Take(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Table(spec.SQLName).Create(map[string]interface{}(h)).Error; err != nil {
				return errors.Wrapf(err, "inserting habit %v into table %s", h["habit"], table)
			}
			continue
		} else if err != nil {
			return errors.Wrapf(err, "finding habit %v in table %s", h["habit"], table)
		}

		switch compareClocks(h.String("updated_at"), existing["updated_at"]) {
		case orderNewer:
			err := tx.Table(spec.SQLName).
				Where("date = ? AND habit = ?", h["date"], h["habit"]).
				Updates(map[string]interface{}{
					"value":      h["value"],
					"updated_at": h["updated_at"],
				}).Error
			if err != nil {
				return errors.Wrapf(err, "updating habit %v in table %s", h["habit"], table)
			}
		case orderEqual:
			out.Warnings = append(out.Warnings, newWarning(WarnSkip,
				"%s: habit %v for %v already up to date", table, h["habit"], h["date"]))
		case orderOlder:
			out.Warnings = append(out.Warnings, newWarning(WarnOutdated,
				"%s: incoming habit %v for %v is older than the stored one", table, h["habit"], h["date"]))
		default:
			out.Warnings = append(out.Warnings, newWarning(WarnUnexpected,
				"%s: habit %v for %v has an unorderable updatedAt", table, h["habit"], h["date"]))
		}
	}

	return nil
}

// extractChildren removes the given key from the record and returns its
// value as a list of child records
func extractChildren(rec Record, key string) []Record {
	raw, present := rec[key]
	if !present {
		return nil
	}
	delete(rec, key)

	items, ok := raw.([]interface{})
	if !ok {
		if typed, ok := raw.([]Record); ok {
			return typed
		}
		return nil
	}

	ret := make([]Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			ret = append(ret, Record(m))
		}
	}

	return ret
}

// isEmpty reports whether a required field value is missing
func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
