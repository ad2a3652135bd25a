package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/minsu-kang/taskhub-api/internal/model"
)

const userColumns = "id, name, email, password_hash, avatar_url, avatar_key, created_at, updated_at"

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUser(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), user.Name, user.Email, user.PasswordHash)

	created, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, err
	}
	return created, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, userID string) (model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, userID)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	row := r.db.QueryRowContext(ctx, query, email)
	return scanUser(row)
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, user model.User) (model.User, error) {
	query := `
		UPDATE users
		SET name = $1, avatar_url = $2, avatar_key = $3, updated_at = now()
		WHERE id = $4
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query, user.Name, user.AvatarURL, user.AvatarKey, user.ID)
	return scanUser(row)
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func scanUser(row scannable) (model.User, error) {
	var u model.User
	var avatarURL, avatarKey sql.NullString
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&avatarURL, &avatarKey, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	u.AvatarURL = avatarURL.String
	u.AvatarKey = avatarKey.String
	return u, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
