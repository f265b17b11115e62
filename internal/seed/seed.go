// Package seed performs the one-time bootstrap: if the store holds no
// months, it loads the calendar dataset from a JSON file, and it ensures
// the default admin account exists.
//
// Both steps are guarded — the dataset load by the emptiness check, the
// admin account by the username's uniqueness — so running seed against an
// already-populated store is a no-op.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/ayyam-calendar/internal/apperror"
	"github.com/sakif/ayyam-calendar/internal/service"
)

// Config names the seed inputs: the dataset path and the default admin
// credentials.
type Config struct {
	File          string
	AdminUsername string
	AdminPassword string
}

// seedFile mirrors the dataset document:
//
//	{"calendar": [{"month_bn": ..., "month_en": ..., "events": [
//	    {"day": ..., "details": [...]}, ...]}, ...]}
type seedFile struct {
	Calendar []seedMonth `json:"calendar"`
}

type seedMonth struct {
	MonthBN string      `json:"month_bn"`
	MonthEN string      `json:"month_en"`
	Events  []seedEvent `json:"events"`
}

type seedEvent struct {
	Day     string   `json:"day"`
	Details []string `json:"details"`
}

// Run seeds the store through the service layer, so every month lands via
// the same transactional nested create the admin API uses.
func Run(ctx context.Context, calendar *service.CalendarService, auth *service.AuthService, cfg Config, logger *slog.Logger) error {
	months, err := calendar.ListMonths(ctx, 0, 1)
	if err != nil {
		return fmt.Errorf("seed: checking for existing months: %w", err)
	}

	if len(months) == 0 && cfg.File != "" {
		if err := loadDataset(ctx, calendar, cfg.File, logger); err != nil {
			return err
		}
	}

	if cfg.AdminUsername != "" {
		if _, err := auth.Register(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			if !errors.Is(err, apperror.ErrConflict) {
				return fmt.Errorf("seed: creating admin user: %w", err)
			}
			// admin already exists — nothing to do
		} else {
			logger.Info("created default admin user", slog.String("username", cfg.AdminUsername))
		}
	}

	return nil
}

func loadDataset(ctx context.Context, calendar *service.CalendarService, path string, logger *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("seed file not found — starting with an empty calendar",
				slog.String("path", path))
			return nil
		}
		return fmt.Errorf("seed: reading %s: %w", path, err)
	}

	var doc seedFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("seed: parsing %s: %w", path, err)
	}

	for _, m := range doc.Calendar {
		events := make([]service.EventInput, 0, len(m.Events))
		for _, e := range m.Events {
			events = append(events, service.EventInput{Day: e.Day, Details: e.Details})
		}
		if _, err := calendar.CreateMonth(ctx, m.MonthBN, m.MonthEN, events); err != nil {
			return fmt.Errorf("seed: creating month %s: %w", m.MonthEN, err)
		}
	}

	logger.Info("database seeded",
		slog.String("file", path),
		slog.Int("months", len(doc.Calendar)),
	)
	return nil
}
