// Package model defines the data structures used throughout the application.
//
// The calendar hierarchy is Month → Event → EventDetail. A Month owns its
// Events and an Event owns its EventDetails; deleting a parent removes the
// whole subtree (enforced by the database's cascading foreign keys, see
// internal/repository/sqlite).
//
// JSON field names are snake_case because that is the wire format the
// calendar dataset and its existing API consumers use.
package model

// Month is one month of the calendar. MonthBN holds the Bengali name
// (e.g. "বৈশাখ"), MonthEN the romanized name (e.g. "Baishakh").
//
// Events is populated on reads that return the nested tree (GetMonth,
// ListMonths) and consumed on nested creates.
type Month struct {
	ID      string  `json:"id"`
	MonthBN string  `json:"month_bn"`
	MonthEN string  `json:"month_en"`
	Events  []Event `json:"events"`
}

// Event is a single calendar day entry within a month.
//
// Day is free-form text, not a parsed number: the dataset stores days in
// Bengali digits ("১০") while API callers may send Western digits ("10").
// The two scripts are only ever compared via exact or translated string
// equality — see CalendarService.EventsByDate.
type Event struct {
	ID      string        `json:"id"`
	MonthID string        `json:"month_id"`
	Day     string        `json:"day"`
	Details []EventDetail `json:"details"`
}

// EventDetail is a free-text note attached to an event. Leaf of the tree.
type EventDetail struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Detail  string `json:"detail"`
}
