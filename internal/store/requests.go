package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertRequest inserts or updates a synced Jellyseerr request.
func (s *Store) UpsertRequest(ctx context.Context, request *MediaRequest) error {
	if request == nil {
		return errors.New("request is nil")
	}
	request.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO requests (
            id, title, media_type, status, requested_by, requested_at, available_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            media_type = excluded.media_type,
            status = excluded.status,
            requested_by = excluded.requested_by,
            requested_at = excluded.requested_at,
            available_at = excluded.available_at,
            updated_at = excluded.updated_at`,
		request.ID,
		request.Title,
		string(request.MediaType),
		string(request.Status),
		nullableString(request.RequestedBy),
		nullableTime(request.RequestedAt),
		nullableTime(request.AvailableAt),
		formatTime(request.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert request: %w", err)
	}
	return nil
}

// ListRequests returns all synced requests ordered by request time.
func (s *Store) ListRequests(ctx context.Context) ([]*MediaRequest, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, title, media_type, status, requested_by, requested_at, available_at, updated_at
         FROM requests ORDER BY requested_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []*MediaRequest
	for rows.Next() {
		var (
			request      MediaRequest
			mediaType    string
			status       string
			requestedBy  sql.NullString
			requestedRaw sql.NullString
			availableRaw sql.NullString
			updatedRaw   string
		)
		if err := rows.Scan(
			&request.ID,
			&request.Title,
			&mediaType,
			&status,
			&requestedBy,
			&requestedRaw,
			&availableRaw,
			&updatedRaw,
		); err != nil {
			return nil, err
		}
		request.MediaType = MediaType(mediaType)
		request.Status = RequestStatus(status)
		request.RequestedBy = requestedBy.String
		request.RequestedAt = parseTimePtr(requestedRaw)
		request.AvailableAt = parseTimePtr(availableRaw)
		if updated, err := parseTimeString(updatedRaw); err == nil {
			request.UpdatedAt = updated
		}
		requests = append(requests, &request)
	}
	return requests, rows.Err()
}

// SetSyncState records the outcome of a sync run.
func (s *Store) SetSyncState(ctx context.Context, at time.Time, syncErr error) error {
	message := ""
	if syncErr != nil {
		message = syncErr.Error()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sync_state (id, last_sync_at, last_error) VALUES (1, ?, ?)
         ON CONFLICT(id) DO UPDATE SET last_sync_at = excluded.last_sync_at, last_error = excluded.last_error`,
		formatTime(at),
		nullableString(message),
	)
	if err != nil {
		return fmt.Errorf("set sync state: %w", err)
	}
	return nil
}

// GetSyncState returns the most recent sync outcome.
func (s *Store) GetSyncState(ctx context.Context) (*SyncState, error) {
	row := s.db.QueryRowContext(ctx, `SELECT last_sync_at, last_error FROM sync_state WHERE id = 1`)
	var (
		state   SyncState
		lastRaw sql.NullString
		lastErr sql.NullString
	)
	err := row.Scan(&lastRaw, &lastErr)
	if errors.Is(err, sql.ErrNoRows) {
		return &SyncState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	state.LastSyncAt = parseTimePtr(lastRaw)
	state.LastError = lastErr.String
	return &state, nil
}
