package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"filestorage/internal/domain"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	user.CreatedAt = time.Now().UTC()

	query := r.db.Rebind(`
        INSERT INTO users (username, nickname, roles, created_at)
        VALUES (?, ?, ?, ?)
        RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Nickname,
		user.Roles,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx читает пользователя в рамках открытой транзакции
func (r *UserRepository) GetByIDTx(ctx context.Context, q sqlx.ExtContext, id int64) (*domain.User, error) {
	return r.getByID(ctx, q, id)
}

func (r *UserRepository) getByID(ctx context.Context, q sqlx.ExtContext, id int64) (*domain.User, error) {
	var user domain.User
	query := q.Rebind(`SELECT id, username, nickname, roles, created_at FROM users WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &user, query, id); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
