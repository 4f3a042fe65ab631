package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertItem inserts or updates a library item from a sync run. Curation
// fields (nickname, exempt) are preserved on update; they belong to the
// user, not to the media server.
func (s *Store) UpsertItem(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO items (
            id, title, media_type, size_bytes, added_at, last_played_at,
            play_count, audio_languages, audio_count, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            media_type = excluded.media_type,
            size_bytes = excluded.size_bytes,
            added_at = excluded.added_at,
            last_played_at = excluded.last_played_at,
            play_count = excluded.play_count,
            audio_languages = excluded.audio_languages,
            audio_count = excluded.audio_count,
            updated_at = excluded.updated_at`,
		item.ID,
		item.Title,
		string(item.MediaType),
		item.SizeBytes,
		nullableTime(item.AddedAt),
		nullableTime(item.LastPlayedAt),
		item.PlayCount,
		nullableString(joinLanguages(item.AudioLanguages)),
		item.AudioCount,
		formatTime(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// ItemByID fetches a library item, nil when absent.
func (s *Store) ItemByID(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns all library items ordered by title.
func (s *Store) ListItems(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountItems returns the number of synced items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// SetNickname sets or clears (empty string) an item's display nickname.
func (s *Store) SetNickname(ctx context.Context, id, nickname string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE items SET nickname = ?, updated_at = ? WHERE id = ?`,
		nullableString(nickname),
		formatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set nickname: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetExempt toggles an item's exempt flag.
func (s *Store) SetExempt(ctx context.Context, id string, exempt bool) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE items SET exempt = ?, updated_at = ? WHERE id = ?`,
		boolToInt(exempt),
		formatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set exempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// PruneItems removes items no longer present in the library.
func (s *Store) PruneItems(ctx context.Context, keepIDs []string) (int64, error) {
	if len(keepIDs) == 0 {
		res, err := s.db.ExecContext(ctx, `DELETE FROM items`)
		if err != nil {
			return 0, fmt.Errorf("prune items: %w", err)
		}
		return res.RowsAffected()
	}
	placeholders := makePlaceholders(len(keepIDs))
	args := make([]any, len(keepIDs))
	for i, id := range keepIDs {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("prune items: %w", err)
	}
	return res.RowsAffected()
}

const itemColumns = "id, title, media_type, size_bytes, added_at, last_played_at, play_count, audio_languages, audio_count, nickname, exempt, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		item       Item
		mediaType  string
		addedRaw   sql.NullString
		playedRaw  sql.NullString
		langsRaw   sql.NullString
		nickname   sql.NullString
		exempt     int
		updatedRaw string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.Title,
		&mediaType,
		&item.SizeBytes,
		&addedRaw,
		&playedRaw,
		&item.PlayCount,
		&langsRaw,
		&item.AudioCount,
		&nickname,
		&exempt,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	item.MediaType = MediaType(mediaType)
	item.AddedAt = parseTimePtr(addedRaw)
	item.LastPlayedAt = parseTimePtr(playedRaw)
	item.AudioLanguages = splitLanguages(langsRaw.String)
	item.Nickname = nickname.String
	item.Exempt = exempt != 0
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return &item, nil
}
