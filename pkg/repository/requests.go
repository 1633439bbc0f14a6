package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dskvich/homework-solver-bot/pkg/domain"
)

type requestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) *requestRepository {
	return &requestRepository{db: db}
}

// Log stores a new request with an empty response and returns its id.
func (r *requestRepository) Log(ctx context.Context, userID int64, text string) (int64, error) {
	const query = `
		INSERT INTO requests (user_id, request_text)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, userID, text).Scan(&id); err != nil {
		return 0, fmt.Errorf("saving request: %w: %w", domain.ErrPersistence, err)
	}

	return id, nil
}

func (r *requestRepository) UpdateResponse(ctx context.Context, requestID int64, text string) error {
	const query = `
		UPDATE requests
		SET response_text = $2
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, requestID, text)
	if err != nil {
		return fmt.Errorf("updating response: %w: %w", domain.ErrPersistence, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w: %w", domain.ErrPersistence, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *requestRepository) CountByExternalID(ctx context.Context, externalID int64) (domain.Stats, error) {
	const query = `
		SELECT COUNT(r.id)
		FROM requests r
		JOIN users u ON u.id = r.user_id
		WHERE u.external_id = $1
	`

	var stats domain.Stats
	if err := r.db.QueryRowContext(ctx, query, externalID).Scan(&stats.TotalRequests); err != nil {
		return domain.Stats{}, fmt.Errorf("counting requests: %w: %w", domain.ErrPersistence, err)
	}

	return stats, nil
}
