package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/ayyam-calendar/internal/apperror"
	"github.com/sakif/ayyam-calendar/internal/model"
	"github.com/sakif/ayyam-calendar/internal/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// EventInput is the nested-create payload for one event: a day value plus
// its detail strings.
type EventInput struct {
	Day     string
	Details []string
}

// CalendarService handles business logic for the month/event/detail tree.
type CalendarService struct {
	repo   repository.CalendarRepository
	logger *slog.Logger
}

// NewCalendarService creates a CalendarService.
func NewCalendarService(repo repository.CalendarRepository, logger *slog.Logger) *CalendarService {
	return &CalendarService{repo: repo, logger: logger}
}

// ListMonths returns a page of months in insertion order.
func (s *CalendarService) ListMonths(ctx context.Context, skip, limit int) ([]model.Month, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	months, err := s.repo.ListMonths(ctx, repository.ListOptions{Limit: limit, Offset: skip})
	if err != nil {
		s.logger.Error("failed to list months", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing months: %w", err)
	}
	return months, nil
}

// GetMonth returns one month with its nested events and details.
func (s *CalendarService) GetMonth(ctx context.Context, id string) (*model.Month, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "month ID is required")
	}
	return s.repo.GetMonth(ctx, id)
}

// CreateMonth creates a month together with its nested events and details.
// The whole tree is committed in one transaction by the repository.
func (s *CalendarService) CreateMonth(ctx context.Context, bn, en string, events []EventInput) (*model.Month, error) {
	bn = strings.TrimSpace(bn)
	en = strings.TrimSpace(en)
	if bn == "" {
		return nil, apperror.ValidationFailed("month_bn", "month_bn is required")
	}
	if en == "" {
		return nil, apperror.ValidationFailed("month_en", "month_en is required")
	}

	month := &model.Month{
		MonthBN: bn,
		MonthEN: en,
		Events:  buildEvents(events),
	}

	if err := s.repo.CreateMonth(ctx, month); err != nil {
		s.logger.Error("failed to create month",
			slog.String("month_en", en),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating month: %w", err)
	}

	s.logger.Info("month created",
		slog.String("id", month.ID),
		slog.String("month_en", month.MonthEN),
		slog.Int("events", len(month.Events)),
	)

	return month, nil
}

// UpdateMonth overwrites both name fields of an existing month and returns
// the updated tree. apperror.ErrNotFound if the month does not exist.
func (s *CalendarService) UpdateMonth(ctx context.Context, id, bn, en string) (*model.Month, error) {
	bn = strings.TrimSpace(bn)
	en = strings.TrimSpace(en)
	if bn == "" {
		return nil, apperror.ValidationFailed("month_bn", "month_bn is required")
	}
	if en == "" {
		return nil, apperror.ValidationFailed("month_en", "month_en is required")
	}

	month, err := s.repo.GetMonth(ctx, id)
	if err != nil {
		return nil, err
	}

	month.MonthBN = bn
	month.MonthEN = en
	if err := s.repo.UpdateMonth(ctx, month); err != nil {
		return nil, fmt.Errorf("updating month: %w", err)
	}

	s.logger.Info("month updated", slog.String("id", month.ID))
	return month, nil
}

// DeleteMonth removes a month and returns the tree as it was just before
// deletion. Events and details cascade away with it.
func (s *CalendarService) DeleteMonth(ctx context.Context, id string) (*model.Month, error) {
	month, err := s.repo.GetMonth(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteMonth(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting month: %w", err)
	}

	s.logger.Info("month deleted",
		slog.String("id", id),
		slog.Int("events", len(month.Events)),
	)
	return month, nil
}

// CreateEvent adds an event (with detail strings) to a month, atomically.
// A monthID that resolves to no month fails with apperror.ErrNotFound.
func (s *CalendarService) CreateEvent(ctx context.Context, monthID, day string, details []string) (*model.Event, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return nil, apperror.ValidationFailed("day", "day is required")
	}

	event := &model.Event{
		MonthID: monthID,
		Day:     day,
		Details: buildDetails(details),
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		slog.String("id", event.ID),
		slog.String("month_id", monthID),
		slog.String("day", day),
	)
	return event, nil
}

// DeleteEvent removes an event and returns it; its details cascade away.
func (s *CalendarService) DeleteEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting event: %w", err)
	}

	s.logger.Info("event deleted", slog.String("id", id))
	return event, nil
}

// AddDetail attaches a detail to an event.
func (s *CalendarService) AddDetail(ctx context.Context, eventID, text string) (*model.EventDetail, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.ValidationFailed("detail", "detail is required")
	}

	detail := &model.EventDetail{
		EventID: eventID,
		Detail:  text,
	}
	if err := s.repo.AddDetail(ctx, detail); err != nil {
		return nil, err
	}

	s.logger.Info("detail added",
		slog.String("id", detail.ID),
		slog.String("event_id", eventID),
	)
	return detail, nil
}

// DeleteDetail removes a detail and returns it.
func (s *CalendarService) DeleteDetail(ctx context.Context, id string) (*model.EventDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteDetail(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting detail: %w", err)
	}

	s.logger.Info("detail deleted", slog.String("id", id))
	return detail, nil
}

// EventsByDate looks up events for a day within a month, aware that the
// stored day values and the query may use different digit scripts.
//
// The exact match runs first and always wins. Only when it returns zero
// rows is the query translated Western → Bengali digits and retried once;
// a query with no Western digits translates to itself, so the redundant
// retry is skipped. The fallback is deliberately one-way: the dataset is
// authored in Bengali digits, so a Bengali query that finds nothing has
// nothing left to match.
func (s *CalendarService) EventsByDate(ctx context.Context, monthID, day string) ([]model.Event, error) {
	events, err := s.repo.EventsByDay(ctx, monthID, day)
	if err != nil {
		return nil, fmt.Errorf("querying events by date: %w", err)
	}
	if len(events) > 0 {
		return events, nil
	}

	dayBN := toBanglaDigits(day)
	if dayBN == day {
		return []model.Event{}, nil
	}

	events, err = s.repo.EventsByDay(ctx, monthID, dayBN)
	if err != nil {
		return nil, fmt.Errorf("querying events by translated date: %w", err)
	}
	return events, nil
}

// SearchDetails returns details matching query as a case-insensitive
// substring. Minimum query length is the request layer's concern.
func (s *CalendarService) SearchDetails(ctx context.Context, query string) ([]model.EventDetail, error) {
	details, err := s.repo.SearchDetails(ctx, query)
	if err != nil {
		s.logger.Error("failed to search details", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching details: %w", err)
	}
	return details, nil
}

// banglaDigits maps Western-Arabic digit offsets to Bengali digit glyphs.
var banglaDigits = []rune("০১২৩৪৫৬৭৮৯")

// toBanglaDigits replaces each Western-Arabic digit with its Bengali
// counterpart; every other rune passes through unchanged.
func toBanglaDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return banglaDigits[r-'0']
		}
		return r
	}, s)
}

func buildEvents(inputs []EventInput) []model.Event {
	events := make([]model.Event, 0, len(inputs))
	for _, in := range inputs {
		events = append(events, model.Event{
			Day:     in.Day,
			Details: buildDetails(in.Details),
		})
	}
	return events
}

func buildDetails(texts []string) []model.EventDetail {
	details := make([]model.EventDetail, 0, len(texts))
	for _, t := range texts {
		details = append(details, model.EventDetail{Detail: t})
	}
	return details
}
