package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailstash/mailstash/internal/domain"
)

// GetOrCreateLabel resolves a label by name, creating it on first use.
func (s *DB) GetOrCreateLabel(ctx context.Context, name string) (*domain.Label, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := getOrCreateLabelTx(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit label: %w", err)
	}
	return &domain.Label{ID: id, Name: name}, nil
}

func getOrCreateLabelTx(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM labels WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up label %q: %w", name, err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO labels (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create label %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read created label id: %w", err)
	}
	return id, nil
}

// ListLabels returns all labels ordered by name.
func (s *DB) ListLabels(ctx context.Context) ([]domain.Label, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM labels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	var labels []domain.Label
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate labels: %w", err)
	}
	return labels, nil
}
