package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertRefreshSession records a new refresh-token lineage.
func (s *Store) InsertRefreshSession(ctx context.Context, session *RefreshSession) error {
	if session == nil {
		return errors.New("session is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO refresh_sessions (
            id, user_id, token_hash, prev_token_hash, user_agent,
            created_at, rotated_at, expires_at, revoked
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.TokenHash,
		nullableString(session.PrevTokenHash),
		nullableString(session.UserAgent),
		formatTime(session.CreatedAt),
		nullableTime(session.RotatedAt),
		formatTime(session.ExpiresAt),
		boolToInt(session.Revoked),
	)
	if err != nil {
		return fmt.Errorf("insert refresh session: %w", err)
	}
	return nil
}

// RefreshSessionByTokenHash looks a session up by the hash of the presented
// token, matching either the current or the previous (grace) value.
func (s *Store) RefreshSessionByTokenHash(ctx context.Context, hash string) (*RefreshSession, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM refresh_sessions
         WHERE token_hash = ? OR prev_token_hash = ?
         LIMIT 1`,
		hash,
		hash,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh session by hash: %w", err)
	}
	return session, nil
}

// RotateRefreshSession replaces the session's token hash, keeping the old
// hash around so concurrent refreshes inside the grace window still succeed.
func (s *Store) RotateRefreshSession(ctx context.Context, id, newHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE refresh_sessions
         SET prev_token_hash = token_hash, token_hash = ?, rotated_at = ?, expires_at = ?
         WHERE id = ? AND revoked = 0`,
		newHash,
		formatTime(now),
		formatTime(expiresAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("rotate refresh session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return errors.New("refresh session not found or revoked")
	}
	return nil
}

// RevokeRefreshSession marks a session revoked. Revoking an unknown session
// is not an error; logout is idempotent.
func (s *Store) RevokeRefreshSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE refresh_sessions SET revoked = 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM refresh_sessions WHERE expires_at < ?`,
		formatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

const sessionColumns = "id, user_id, token_hash, prev_token_hash, user_agent, created_at, rotated_at, expires_at, revoked"

func scanSession(row *sql.Row) (*RefreshSession, error) {
	var (
		session    RefreshSession
		prevHash   sql.NullString
		userAgent  sql.NullString
		createdRaw string
		rotatedRaw sql.NullString
		expiresRaw string
		revoked    int
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&prevHash,
		&userAgent,
		&createdRaw,
		&rotatedRaw,
		&expiresRaw,
		&revoked,
	); err != nil {
		return nil, err
	}
	session.PrevTokenHash = prevHash.String
	session.UserAgent = userAgent.String
	session.Revoked = revoked != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	session.RotatedAt = parseTimePtr(rotatedRaw)
	if expires, err := parseTimeString(expiresRaw); err == nil {
		session.ExpiresAt = expires
	}
	return &session, nil
}
