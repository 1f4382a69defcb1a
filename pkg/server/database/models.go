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

package database

// Model is the base definition for every synced table. Timestamps are stored
// as canonical strings because the sync engine, not the ORM, owns them: they
// come from whichever client wrote last, never from the local clock.
type Model struct {
	ID        int    `gorm:"primaryKey" json:"-"`
	UUID      string `gorm:"uniqueIndex;type:text" json:"uuid"`
	CreatedAt string `gorm:"type:text" json:"createdAt"`
	UpdatedAt string `gorm:"type:text;index" json:"updatedAt"`
}

// DailyNote is a model for a single calendar date's note. It is looked up by
// date rather than uuid, and owns the habit rows for the same date.
type DailyNote struct {
	Model
	Date         string `gorm:"uniqueIndex;type:text" json:"date"`
	Text         string `json:"text"`
	Energy       int    `json:"energy"`
	Satisfaction int    `json:"satisfaction"`
}

// TableName overrides the table name
func (DailyNote) TableName() string { return "daily_notes" }

// BooleanHabit is a yes/no habit value for one date, keyed by (date, habit)
type BooleanHabit struct {
	Model
	Date  string `gorm:"index:idx_boolean_habit_key,unique;type:text" json:"date"`
	Habit string `gorm:"index:idx_boolean_habit_key,unique;type:text" json:"habit"`
	Value bool   `json:"value"`
}

// TableName overrides the table name
func (BooleanHabit) TableName() string { return "boolean_habits" }

// QuantifiableHabit is a numeric habit value for one date, keyed by (date, habit)
type QuantifiableHabit struct {
	Model
	Date  string  `gorm:"index:idx_quantifiable_habit_key,unique;type:text" json:"date"`
	Habit string  `gorm:"index:idx_quantifiable_habit_key,unique;type:text" json:"habit"`
	Value float64 `json:"value"`
}

// TableName overrides the table name
func (QuantifiableHabit) TableName() string { return "quantifiable_habits" }

// JournalEntry is a model for a free-form journal entry
type JournalEntry struct {
	Model
	Date string `gorm:"index;type:text" json:"date"`
	Text string `json:"text"`
}

// TableName overrides the table name
func (JournalEntry) TableName() string { return "journal_entries" }

// MoneyEntry is a model for a single expense or income record.
// Amount is in cents to avoid floating point drift.
type MoneyEntry struct {
	Model
	Date     string `gorm:"index;type:text" json:"date"`
	Account  string `json:"account"`
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
	Note     string `json:"note"`
}

// TableName overrides the table name
func (MoneyEntry) TableName() string { return "money_entries" }

// TimeEntry is a model for a tracked block of time
type TimeEntry struct {
	Model
	Date        string `gorm:"index;type:text" json:"date"`
	Tag         string `gorm:"index" json:"tag"`
	Seconds     int64  `json:"seconds"`
	Description string `json:"description"`
}

// TableName overrides the table name
func (TimeEntry) TableName() string { return "time_entries" }

// Task is a model for a task. Due is optional and lenient: an unparsable
// due date from a client is stored as empty rather than rejected.
type Task struct {
	Model
	Text           string `json:"text"`
	Completed      bool   `gorm:"index" json:"completed"`
	Due            string `gorm:"index;type:text" json:"due"`
	CompletionDate string `gorm:"type:text" json:"completionDate"`
}

// TableName overrides the table name
func (Task) TableName() string { return "tasks" }

// Mood is a model for a daily mood rating
type Mood struct {
	Model
	Date    string `gorm:"index;type:text" json:"date"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// TableName overrides the table name
func (Mood) TableName() string { return "moods" }

// TextEntry is a model for a period-scoped document. Period is a label such
// as "2024", "2024-03", "2024-Q1" or "2024-W12", never a calendar date.
type TextEntry struct {
	Model
	Period string `gorm:"index;type:text" json:"period"`
	Text   string `json:"text"`
}

// TableName overrides the table name
func (TextEntry) TableName() string { return "text_entries" }

// GPTEntry is a model for a generated summary. Its date column is
// heterogeneous: daily entries hold a calendar date, aggregated summaries
// hold a period label.
type GPTEntry struct {
	Model
	Date    string `gorm:"index;type:text" json:"date"`
	Summary string `json:"summary"`
}

// TableName overrides the table name
func (GPTEntry) TableName() string { return "gpt_entries" }

// Objective is a model for a period-scoped objective
type Objective struct {
	Model
	Period    string `gorm:"index;type:text" json:"period"`
	Objective string `json:"objective"`
	Completed bool   `json:"completed"`
}

// TableName overrides the table name
func (Objective) TableName() string { return "objectives" }

// Setting is a key-value model looked up by setting key rather than uuid
type Setting struct {
	Model
	SettingKey string `gorm:"uniqueIndex;type:text" json:"settingKey"`
	Value      string `json:"value"`
}

// TableName overrides the table name
func (Setting) TableName() string { return "settings" }
