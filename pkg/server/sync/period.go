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
	"fmt"
	"time"
)

// PeriodLabels is the set of period labels overlapping a sync window.
// Period-scoped tables match records whose period field equals any label in
// the set.
type PeriodLabels struct {
	Years    []string
	Months   []string
	Quarters []string
	Weeks    []string
}

// PeriodWindow computes the period labels overlapping the window from start
// to end inclusive. Year, month and quarter labels are collected by walking
// calendar months; week labels are ISO week numbers collected by walking
// Monday-started weeks. The weeks walk starts at the Monday on or before
// the window start and includes every week whose Monday is on or before the
// window end, so weeks straddling the window boundaries are included.
func PeriodWindow(start, end time.Time) PeriodLabels {
	var ret PeriodLabels

	start = start.UTC()
	end = end.UTC()
	if end.Before(start) {
		return ret
	}

	seen := map[string]bool{}
	add := func(dst *[]string, label string) {
		if !seen[label] {
			seen[label] = true
			*dst = append(*dst, label)
		}
	}

	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(end); m = m.AddDate(0, 1, 0) {
		add(&ret.Years, fmt.Sprintf("%04d", m.Year()))
		add(&ret.Months, fmt.Sprintf("%04d-%02d", m.Year(), int(m.Month())))
		add(&ret.Quarters, fmt.Sprintf("%04d-Q%d", m.Year(), quarterOf(m.Month())))
	}

	for w := mondayOf(start); !w.After(end); w = w.AddDate(0, 0, 7) {
		// ISO weeks at year boundaries can belong to the adjacent year
		y, week := w.ISOWeek()
		add(&ret.Weeks, fmt.Sprintf("%04d-W%02d", y, week))
	}

	return ret
}

// All returns every label in the set as a flat list
func (l PeriodLabels) All() []string {
	ret := []string{}
	ret = append(ret, l.Years...)
	ret = append(ret, l.Months...)
	ret = append(ret, l.Quarters...)
	ret = append(ret, l.Weeks...)

	return ret
}

// Contains checks whether the given period label is in the set
func (l PeriodLabels) Contains(label string) bool {
	for _, candidate := range l.All() {
		if candidate == label {
			return true
		}
	}

	return false
}

// quarterOf returns the quarter number for the given month
func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// mondayOf returns the Monday on or before the given day
func mondayOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
