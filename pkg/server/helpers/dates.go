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

package helpers

import (
	"fmt"
	"time"
)

// DateFormat is the canonical representation of a calendar date
const DateFormat = "2006-01-02"

// TimestampFormat is the canonical representation of an instant
const TimestampFormat = time.RFC3339

// dateLayouts are the accepted input layouts, tried in order. Clients have
// historically sent a mix of bare dates, RFC3339 and sqlite-style timestamps.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ParseLenientDate parses the given value into a time using a permissive
// set of layouts. It returns a zero time and false if the value is empty,
// not a string or number, or matches no known layout. It never returns an
// error; a failed parse is an expected condition for the caller to handle.
func ParseLenientDate(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case string:
		if v == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// FormatDate formats the given time as a canonical calendar date
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// FormatTimestamp formats the given time as a canonical instant
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// NormalizeTimestamp parses the given value leniently and re-renders it in
// the canonical instant format. If the value does not parse, the fallback
// instant is used instead.
func NormalizeTimestamp(value interface{}, fallback time.Time) string {
	if t, ok := ParseLenientDate(value); ok {
		return FormatTimestamp(t)
	}

	return FormatTimestamp(fallback)
}

// NormalizeDate parses the given value leniently and re-renders it as a
// canonical calendar date. If the value does not parse, the fallback
// instant's date is used instead.
func NormalizeDate(value interface{}, fallback time.Time) string {
	if t, ok := ParseLenientDate(value); ok {
		return FormatDate(t)
	}

	return FormatDate(fallback)
}

// MonthWindow returns the first and last day of the month containing the
// given instant
func MonthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	return start, end
}

// YearWindow returns the first and last day of the year containing the
// given instant
func YearWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)

	return start, end
}

// TimestampedFilename builds a filename of the form prefix-20060102-150405.ext
func TimestampedFilename(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s-%s%s", prefix, t.UTC().Format("20060102-150405"), ext)
}
