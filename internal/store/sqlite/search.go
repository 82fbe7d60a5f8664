package sqlite

import (
	"context"
	"fmt"

	"github.com/mailstash/mailstash/internal/domain"
)

// SearchEmails performs a full-text search over subject and sender using FTS5.
func (s *DB) SearchEmails(ctx context.Context, accountID, query string) ([]domain.Email, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.gmail_id, e.subject, e.sender_name, e.sender_email,
			e.received_at, e.content_type, e.size_estimate, e.importance
		FROM emails e
		JOIN emails_fts fts ON fts.rowid = e.id
		WHERE emails_fts MATCH ? AND e.account_id = ?
		ORDER BY rank`, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to search emails: %w", err)
	}
	defer rows.Close()

	return scanEmails(rows)
}
