package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"filestorage/internal/domain"
)

const projectColumns = `id, name, storage_size, max_storage_size, created_at, updated_at`

type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// BeginTx открывает транзакцию, в которой выполняются изменения квоты проекта
func (r *ProjectRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	query := r.db.Rebind(`
        INSERT INTO projects (name, storage_size, max_storage_size, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		project.Name,
		project.StorageSize,
		project.MaxStorageSize,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	var project domain.Project
	query := r.db.Rebind(`SELECT ` + projectColumns + ` FROM projects WHERE id = ?`)
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// GetForUpdate читает проект внутри транзакции. В PostgreSQL строка блокируется до конца транзакции.
func (r *ProjectRepository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, id int64) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	if isPostgres(q) {
		query += ` FOR UPDATE`
	}

	var project domain.Project
	if err := sqlx.GetContext(ctx, q, &project, q.Rebind(query), id); err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// UpdateStorageSize записывает занятый объем, только если он изменился. Возвращает true при записи.
func (r *ProjectRepository) UpdateStorageSize(ctx context.Context, q sqlx.ExtContext, id, size int64) (bool, error) {
	query := q.Rebind(`
        UPDATE projects
        SET storage_size = ?,
            updated_at = ?
        WHERE id = ? AND storage_size <> ?`)

	result, err := q.ExecContext(ctx, query, size, time.Now().UTC(), id, size)
	if err != nil {
		return false, fmt.Errorf("failed to update storage size: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// UpdateMaxStorageSize меняет квоту проекта
func (r *ProjectRepository) UpdateMaxStorageSize(ctx context.Context, q sqlx.ExtContext, id, maxSize int64) error {
	query := q.Rebind(`
        UPDATE projects
        SET max_storage_size = ?,
            updated_at = ?
        WHERE id = ?`)

	result, err := q.ExecContext(ctx, query, maxSize, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update quota limit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping проверяет соединение с базой
func (r *ProjectRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
