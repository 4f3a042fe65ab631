package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SeedThresholds writes the config defaults if no thresholds row exists yet.
func (s *Store) SeedThresholds(ctx context.Context, defaults Thresholds) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO thresholds (
            id, stale_days, max_movie_gib, preferred_languages,
            require_multiple_audio, request_grace_days, recent_days, updated_at
        ) VALUES (1, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO NOTHING`,
		defaults.StaleDays,
		defaults.MaxMovieGiB,
		joinLanguages(defaults.PreferredLanguages),
		boolToInt(defaults.RequireMultipleAudio),
		defaults.RequestGraceDays,
		defaults.RecentDays,
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("seed thresholds: %w", err)
	}
	return nil
}

// GetThresholds returns the runtime thresholds.
func (s *Store) GetThresholds(ctx context.Context) (*Thresholds, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT stale_days, max_movie_gib, preferred_languages,
                require_multiple_audio, request_grace_days, recent_days, updated_at
         FROM thresholds WHERE id = 1`,
	)
	var (
		t            Thresholds
		langs        string
		requireMulti int
		updatedRaw   string
	)
	err := row.Scan(&t.StaleDays, &t.MaxMovieGiB, &langs, &requireMulti, &t.RequestGraceDays, &t.RecentDays, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("thresholds not seeded")
	}
	if err != nil {
		return nil, fmt.Errorf("get thresholds: %w", err)
	}
	t.PreferredLanguages = splitLanguages(langs)
	t.RequireMultipleAudio = requireMulti != 0
	if updated, err := parseTimeString(updatedRaw); err == nil {
		t.UpdatedAt = updated
	}
	return &t, nil
}

// UpdateThresholds replaces the runtime thresholds.
func (s *Store) UpdateThresholds(ctx context.Context, t Thresholds) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE thresholds
         SET stale_days = ?, max_movie_gib = ?, preferred_languages = ?,
             require_multiple_audio = ?, request_grace_days = ?, recent_days = ?, updated_at = ?
         WHERE id = 1`,
		t.StaleDays,
		t.MaxMovieGiB,
		joinLanguages(t.PreferredLanguages),
		boolToInt(t.RequireMultipleAudio),
		t.RequestGraceDays,
		t.RecentDays,
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("update thresholds: %w", err)
	}
	return nil
}
