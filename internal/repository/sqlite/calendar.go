package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/ayyam-calendar/internal/apperror"
	"github.com/sakif/ayyam-calendar/internal/model"
	"github.com/sakif/ayyam-calendar/internal/repository"
)

var _ repository.CalendarRepository = (*DB)(nil)

// CreateMonth inserts a month together with its nested events and details
// in a single transaction. Either the whole tree becomes visible or none
// of it does — a failure while inserting the last detail rolls back the
// month row too.
//
// IDs are generated here (xid) and written back into the passed structs,
// so after a successful call the caller holds the fully-populated tree.
func (db *DB) CreateMonth(ctx context.Context, month *model.Month) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	month.ID = xid.New().String()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO months (id, month_bn, month_en) VALUES (?, ?, ?)`,
		month.ID, month.MonthBN, month.MonthEN,
	); err != nil {
		return fmt.Errorf("sqlite: creating month: %w", err)
	}

	for i := range month.Events {
		month.Events[i].MonthID = month.ID
		if err := insertEvent(ctx, tx, &month.Events[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing month create: %w", err)
	}
	return nil
}

// GetMonth returns a month with its full event/detail tree, or
// apperror.ErrNotFound.
func (db *DB) GetMonth(ctx context.Context, id string) (*model.Month, error) {
	var month model.Month

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, month_bn, month_en FROM months WHERE id = ?`,
		id,
	).Scan(&month.ID, &month.MonthBN, &month.MonthEN)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("month", id)
		}
		return nil, fmt.Errorf("sqlite: getting month %s: %w", id, err)
	}

	month.Events, err = db.eventsForMonth(ctx, month.ID)
	if err != nil {
		return nil, err
	}

	return &month, nil
}

// ListMonths returns months in insertion order with nested events and
// details. Limit is clamped to 1-100 with a default of 20.
func (db *DB) ListMonths(ctx context.Context, opts repository.ListOptions) ([]model.Month, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, month_bn, month_en
		 FROM months
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing months: %w", err)
	}
	defer rows.Close()

	months := make([]model.Month, 0, limit)
	for rows.Next() {
		var m model.Month
		if err := rows.Scan(&m.ID, &m.MonthBN, &m.MonthEN); err != nil {
			return nil, fmt.Errorf("sqlite: scanning month row: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating months: %w", err)
	}

	for i := range months {
		months[i].Events, err = db.eventsForMonth(ctx, months[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return months, nil
}

// UpdateMonth overwrites both name fields of an existing month.
// Returns apperror.ErrNotFound if the month does not exist.
func (db *DB) UpdateMonth(ctx context.Context, month *model.Month) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE months SET month_bn = ?, month_en = ? WHERE id = ?`,
		month.MonthBN, month.MonthEN, month.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating month %s: %w", month.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("month", month.ID)
	}

	return nil
}

// DeleteMonth removes a month. The ON DELETE CASCADE foreign keys take its
// events and their details with it in the same implicit transaction.
func (db *DB) DeleteMonth(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "months", "month", id)
}

// CreateEvent inserts an event with its nested details in one transaction.
// A month_id that references no existing month fails the foreign key check
// and is reported as apperror.ErrNotFound.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing event create: %w", err)
	}
	return nil
}

// GetEvent returns an event with its details, or apperror.ErrNotFound.
func (db *DB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, month_id, day FROM events WHERE id = ?`,
		id,
	).Scan(&event.ID, &event.MonthID, &event.Day)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}

	event.Details, err = db.detailsForEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// DeleteEvent removes an event; its details cascade away with it.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "events", "event", id)
}

// AddDetail attaches a detail to an event. An event_id that references no
// existing event is reported as apperror.ErrNotFound.
func (db *DB) AddDetail(ctx context.Context, detail *model.EventDetail) error {
	detail.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO event_details (id, event_id, detail) VALUES (?, ?, ?)`,
		detail.ID, detail.EventID, detail.Detail,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("event", detail.EventID)
		}
		return fmt.Errorf("sqlite: adding detail: %w", err)
	}
	return nil
}

// GetDetail returns a single detail row, or apperror.ErrNotFound.
func (db *DB) GetDetail(ctx context.Context, id string) (*model.EventDetail, error) {
	var detail model.EventDetail

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, event_id, detail FROM event_details WHERE id = ?`,
		id,
	).Scan(&detail.ID, &detail.EventID, &detail.Detail)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("detail", id)
		}
		return nil, fmt.Errorf("sqlite: getting detail %s: %w", id, err)
	}

	return &detail, nil
}

// DeleteDetail removes a single detail row.
func (db *DB) DeleteDetail(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "event_details", "detail", id)
}

// EventsByDay returns the events in a month whose day column matches
// exactly. No digit-script translation happens here — that fallback is the
// service layer's job.
func (db *DB) EventsByDay(ctx context.Context, monthID, day string) ([]model.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, month_id, day
		 FROM events
		 WHERE month_id = ? AND day = ?
		 ORDER BY id`,
		monthID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying events by day: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.MonthID, &e.Day); err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	for i := range events {
		events[i].Details, err = db.detailsForEvent(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
	}

	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// SearchDetails returns every detail containing query as a substring,
// across all events and months. SQLite's LIKE is case-insensitive for
// ASCII, matching the previous deployment's ilike behaviour.
func (db *DB) SearchDetails(ctx context.Context, query string) ([]model.EventDetail, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_id, detail
		 FROM event_details
		 WHERE detail LIKE ?
		 ORDER BY id`,
		"%"+query+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching details: %w", err)
	}
	defer rows.Close()

	details := []model.EventDetail{}
	for rows.Next() {
		var d model.EventDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.Detail); err != nil {
			return nil, fmt.Errorf("sqlite: scanning detail row: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating details: %w", err)
	}

	return details, nil
}

// insertEvent writes an event and its details inside the caller's
// transaction, generating IDs as it goes.
func insertEvent(ctx context.Context, tx *sql.Tx, event *model.Event) error {
	event.ID = xid.New().String()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (id, month_id, day) VALUES (?, ?, ?)`,
		event.ID, event.MonthID, event.Day,
	); err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("month", event.MonthID)
		}
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	for i := range event.Details {
		d := &event.Details[i]
		d.ID = xid.New().String()
		d.EventID = event.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_details (id, event_id, detail) VALUES (?, ?, ?)`,
			d.ID, d.EventID, d.Detail,
		); err != nil {
			return fmt.Errorf("sqlite: creating event detail: %w", err)
		}
	}

	return nil
}

// eventsForMonth returns every event in a month, in insertion order, with
// details attached.
func (db *DB) eventsForMonth(ctx context.Context, monthID string) ([]model.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, month_id, day FROM events WHERE month_id = ? ORDER BY id`,
		monthID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events for month %s: %w", monthID, err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.MonthID, &e.Day); err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	for i := range events {
		events[i].Details, err = db.detailsForEvent(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return events, nil
}

func (db *DB) detailsForEvent(ctx context.Context, eventID string) ([]model.EventDetail, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_id, detail FROM event_details WHERE event_id = ? ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing details for event %s: %w", eventID, err)
	}
	defer rows.Close()

	details := []model.EventDetail{}
	for rows.Next() {
		var d model.EventDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.Detail); err != nil {
			return nil, fmt.Errorf("sqlite: scanning detail row: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating details: %w", err)
	}

	return details, nil
}

// deleteByID deletes one row and maps "nothing deleted" to NotFound.
func (db *DB) deleteByID(ctx context.Context, table, resource, id string) error {
	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", resource, id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, id)
	}

	return nil
}

// isForeignKeyViolation reports whether err is a SQLite foreign key
// failure (insert referencing a missing parent row).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
