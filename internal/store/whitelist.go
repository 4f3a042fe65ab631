package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AddWhitelist inserts or refreshes a whitelist entry.
func (s *Store) AddWhitelist(ctx context.Context, itemID, reason string) error {
	if itemID == "" {
		return errors.New("item id is empty")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO whitelist (item_id, reason, created_at) VALUES (?, ?, ?)
         ON CONFLICT(item_id) DO UPDATE SET reason = excluded.reason`,
		itemID,
		nullableString(reason),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("add whitelist entry: %w", err)
	}
	return nil
}

// RemoveWhitelist deletes a whitelist entry, reporting whether one existed.
func (s *Store) RemoveWhitelist(ctx context.Context, itemID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM whitelist WHERE item_id = ?`, itemID)
	if err != nil {
		return false, fmt.Errorf("remove whitelist entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListWhitelist returns all whitelist entries ordered by creation time.
func (s *Store) ListWhitelist(ctx context.Context) ([]*WhitelistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item_id, reason, created_at FROM whitelist ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list whitelist: %w", err)
	}
	defer rows.Close()

	var entries []*WhitelistEntry
	for rows.Next() {
		var (
			entry      WhitelistEntry
			reason     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&entry.ItemID, &reason, &createdRaw); err != nil {
			return nil, err
		}
		entry.Reason = reason.String
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// WhitelistedIDs returns the set of whitelisted item ids.
func (s *Store) WhitelistedIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item_id FROM whitelist`)
	if err != nil {
		return nil, fmt.Errorf("whitelist ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
