// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/ayyam-calendar/internal/model"
)

// ListOptions controls offset/limit pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores admin accounts.
type UserRepository interface {
	// CreateUser inserts a user. A duplicate username fails with
	// apperror.ErrConflict — it never overwrites the existing row.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByUsername returns the user with the given username, or
	// apperror.ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// CalendarRepository stores the Month → Event → EventDetail tree.
//
// Deletes cascade downward: removing a Month removes its Events and their
// EventDetails; removing an Event removes its EventDetails. Nested creates
// (a Month with Events with details, or an Event with details) are atomic —
// either the whole subtree becomes visible or none of it does.
type CalendarRepository interface {
	CreateMonth(ctx context.Context, month *model.Month) error
	GetMonth(ctx context.Context, id string) (*model.Month, error)
	ListMonths(ctx context.Context, opts ListOptions) ([]model.Month, error)
	UpdateMonth(ctx context.Context, month *model.Month) error
	DeleteMonth(ctx context.Context, id string) error

	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	AddDetail(ctx context.Context, detail *model.EventDetail) error
	GetDetail(ctx context.Context, id string) (*model.EventDetail, error)
	DeleteDetail(ctx context.Context, id string) error

	// EventsByDay returns the events in a month whose day matches exactly.
	// Digit-script fallback lives in the service layer, not here.
	EventsByDay(ctx context.Context, monthID, day string) ([]model.Event, error)

	// SearchDetails returns every detail containing query as a
	// case-insensitive substring, across all months.
	SearchDetails(ctx context.Context, query string) ([]model.EventDetail, error)
}
