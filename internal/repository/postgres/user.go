package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository"
)

const userColumns = `id, email, password_hash, role, active, created_at, updated_at, last_login_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (err error) {
	defer r.observe("user_create", time.Now(), &err)

	query := `
		INSERT INTO users (email, password_hash, role, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	row := r.db.QueryRowxContext(ctx, query, user.Email, user.PasswordHash, user.Role, user.Active)
	if err = row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return mapError(err, "user")
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	if err := r.db.GetContext(ctx, &user, query, strings.TrimSpace(email)); err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	var args []interface{}

	if filter.Role != "" {
		args = append(args, filter.Role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}

	page := filter.Pagination.Normalize(50, 200)
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	users := []*model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) SetActive(ctx context.Context, id int64, active bool) (*model.User, error) {
	var user model.User
	query := `
		UPDATE users SET active = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns
	if err := r.db.GetContext(ctx, &user, query, active, id); err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
