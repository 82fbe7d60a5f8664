package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailstash/mailstash/internal/domain"
	"github.com/mailstash/mailstash/internal/store"
)

// UpsertEmail inserts or fully replaces an email keyed by (account, gmail_id)
// and sets its label associations to exactly the record's label set. Each call
// commits in its own transaction, so a failure partway through a batch leaves
// earlier records intact. Returns true when a new row was created.
func (s *DB) UpsertEmail(ctx context.Context, accountID string, email *domain.Email) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var rowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM emails WHERE account_id = ? AND gmail_id = ?`,
		accountID, email.GmailID,
	).Scan(&rowID)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `
			INSERT INTO emails (account_id, gmail_id, subject, sender_name, sender_email,
				received_at, content_type, size_estimate, importance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			accountID, email.GmailID, email.Subject, email.SenderName, email.SenderEmail,
			email.ReceivedAt, email.ContentType,
			email.SizeEstimate, email.Importance,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert email %s: %w", email.GmailID, err)
		}
		rowID, err = res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("failed to read inserted email id: %w", err)
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("failed to look up email %s: %w", email.GmailID, err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE emails SET subject = ?, sender_name = ?, sender_email = ?,
				received_at = ?, content_type = ?, size_estimate = ?, importance = ?
			WHERE id = ?`,
			email.Subject, email.SenderName, email.SenderEmail,
			email.ReceivedAt, email.ContentType,
			email.SizeEstimate, email.Importance, rowID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update email %s: %w", email.GmailID, err)
		}
	}

	if err := s.setLabelsTx(ctx, tx, rowID, email.Labels); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit email upsert: %w", err)
	}
	return created, nil
}

// setLabelsTx replaces the label associations for an email row. Labels are
// resolved by name with get-or-create semantics; prior associations not in
// the new set are removed.
func (s *DB) setLabelsTx(ctx context.Context, tx *sql.Tx, rowID int64, labels []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM email_labels WHERE email_id = ?`, rowID); err != nil {
		return fmt.Errorf("failed to clear email labels: %w", err)
	}

	for _, name := range labels {
		labelID, err := getOrCreateLabelTx(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO email_labels (email_id, label_id) VALUES (?, ?)`,
			rowID, labelID); err != nil {
			return fmt.Errorf("failed to insert email label %q: %w", name, err)
		}
	}
	return nil
}

// GetEmail retrieves a single email by Gmail ID, including its labels.
func (s *DB) GetEmail(ctx context.Context, accountID, gmailID string) (*domain.Email, error) {
	var e domain.Email
	var rowID int64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, gmail_id, subject, sender_name, sender_email,
			received_at, content_type, size_estimate, importance
		FROM emails WHERE account_id = ? AND gmail_id = ?`,
		accountID, gmailID,
	).Scan(
		&rowID, &e.GmailID, &e.Subject, &e.SenderName, &e.SenderEmail,
		&e.ReceivedAt, &e.ContentType, &e.SizeEstimate, &e.Importance,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get email %s: %w", gmailID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.name FROM labels l
		JOIN email_labels el ON el.label_id = l.id
		WHERE el.email_id = ? ORDER BY l.name`, rowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query email labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan email label: %w", err)
		}
		e.Labels = append(e.Labels, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate email labels: %w", err)
	}

	return &e, nil
}

// ListEmails returns emails for an account, newest first, optionally filtered
// by label name.
func (s *DB) ListEmails(ctx context.Context, opts store.ListEmailOptions) ([]domain.Email, error) {
	var query string
	var args []any

	if opts.Label != "" {
		query = `
			SELECT e.gmail_id, e.subject, e.sender_name, e.sender_email,
				e.received_at, e.content_type, e.size_estimate, e.importance
			FROM emails e
			JOIN email_labels el ON el.email_id = e.id
			JOIN labels l ON l.id = el.label_id
			WHERE e.account_id = ? AND l.name = ?
			ORDER BY e.received_at DESC`
		args = append(args, opts.AccountID, opts.Label)
	} else {
		query = `
			SELECT e.gmail_id, e.subject, e.sender_name, e.sender_email,
				e.received_at, e.content_type, e.size_estimate, e.importance
			FROM emails e
			WHERE e.account_id = ?
			ORDER BY e.received_at DESC`
		args = append(args, opts.AccountID)
	}

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	return scanEmails(rows)
}

// WipeEmails deletes every stored email for an account and returns the count
// deleted. Label associations go with the rows via cascade; label rows
// themselves are never deleted.
func (s *DB) WipeEmails(ctx context.Context, accountID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM emails WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to wipe emails for %s: %w", accountID, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count wiped emails: %w", err)
	}
	return count, nil
}

func scanEmails(rows *sql.Rows) ([]domain.Email, error) {
	var emails []domain.Email
	for rows.Next() {
		var e domain.Email
		if err := rows.Scan(
			&e.GmailID, &e.Subject, &e.SenderName, &e.SenderEmail,
			&e.ReceivedAt, &e.ContentType, &e.SizeEstimate, &e.Importance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan email row: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emails: %w", err)
	}
	return emails, nil
}
