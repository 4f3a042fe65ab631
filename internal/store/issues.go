package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertIssue inserts an issue or refreshes an existing one by key,
// preserving the original creation time.
func (s *Store) UpsertIssue(ctx context.Context, issue *Issue) error {
	if issue == nil {
		return errors.New("issue is nil")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO issues (key, type, severity, item_id, title, detail, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
            severity = excluded.severity,
            title = excluded.title,
            detail = excluded.detail,
            updated_at = excluded.updated_at`,
		issue.Key,
		string(issue.Type),
		issue.Severity,
		nullableString(issue.ItemID),
		issue.Title,
		nullableString(issue.Detail),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("upsert issue: %w", err)
	}
	return nil
}

// ReplaceIssues atomically swaps the issue set for the outcome of an
// evaluation run: issues whose keys are absent from the new set are
// resolved (deleted), present ones are upserted.
func (s *Store) ReplaceIssues(ctx context.Context, issues []*Issue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issues tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now().UTC())

	if len(issues) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM issues`); err != nil {
			return fmt.Errorf("clear issues: %w", err)
		}
		return tx.Commit()
	}

	keys := make([]any, 0, len(issues))
	for _, issue := range issues {
		keys = append(keys, issue.Key)
	}
	placeholders := makePlaceholders(len(keys))
	if _, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE key NOT IN (`+placeholders+`)`, keys...); err != nil {
		return fmt.Errorf("resolve stale issues: %w", err)
	}

	for _, issue := range issues {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO issues (key, type, severity, item_id, title, detail, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(key) DO UPDATE SET
                severity = excluded.severity,
                title = excluded.title,
                detail = excluded.detail,
                updated_at = excluded.updated_at`,
			issue.Key,
			string(issue.Type),
			issue.Severity,
			nullableString(issue.ItemID),
			issue.Title,
			nullableString(issue.Detail),
			now,
			now,
		); err != nil {
			return fmt.Errorf("upsert issue %q: %w", issue.Key, err)
		}
	}
	return tx.Commit()
}

// ListIssues returns issues, optionally filtered by type and severity.
func (s *Store) ListIssues(ctx context.Context, issueType IssueType, severity string) ([]*Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues`
	var (
		clauses []string
		args    []any
	)
	if issueType != "" {
		clauses = append(clauses, `type = ?`)
		args = append(args, string(issueType))
	}
	if severity != "" {
		clauses = append(clauses, `severity = ?`)
		args = append(args, severity)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY type, title`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []*Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// IssueStats returns a count of issues grouped by type.
func (s *Store) IssueStats(ctx context.Context) (map[IssueType]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(1) FROM issues GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("issue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[IssueType]int)
	for rows.Next() {
		var issueType string
		var count int
		if err := rows.Scan(&issueType, &count); err != nil {
			return nil, err
		}
		stats[IssueType(issueType)] = count
	}
	return stats, rows.Err()
}

const issueColumns = "id, key, type, severity, item_id, title, detail, created_at, updated_at"

func scanIssue(scanner interface{ Scan(dest ...any) error }) (*Issue, error) {
	var (
		issue      Issue
		issueType  string
		itemID     sql.NullString
		detail     sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&issue.ID,
		&issue.Key,
		&issueType,
		&issue.Severity,
		&itemID,
		&issue.Title,
		&detail,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	issue.Type = IssueType(issueType)
	issue.ItemID = itemID.String
	issue.Detail = detail.String
	if created, err := parseTimeString(createdRaw); err == nil {
		issue.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		issue.UpdatedAt = updated
	}
	return &issue, nil
}
