package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dskvich/homework-solver-bot/pkg/domain"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

// GetOrCreate registers the submitter on first contact and refreshes the stored name afterwards.
func (u *userRepository) GetOrCreate(ctx context.Context, s domain.Submitter) (int64, error) {
	const query = `
		INSERT INTO users (external_id, username, first_name)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (external_id)
		DO UPDATE SET
			username = COALESCE(EXCLUDED.username, users.username),
			first_name = COALESCE(EXCLUDED.first_name, users.first_name)
		RETURNING id
	`

	var id int64
	if err := u.db.QueryRowContext(ctx, query, s.ExternalID, s.Username, s.FirstName).Scan(&id); err != nil {
		return 0, fmt.Errorf("saving user: %w: %w", domain.ErrPersistence, err)
	}

	return id, nil
}
