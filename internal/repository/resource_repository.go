package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"filestorage/internal/domain"
)

const resourceColumns = `id, project_id, name, storage_key, content_type, size, type, status,
        allowed_roles, created_by, updated_by, created_at, updated_at`

// Допустимые поля сортировки листинга
var sortColumns = map[string]string{
	"createdAt": "r.created_at",
	"name":      "r.name",
	"size":      "r.size",
}

type ResourceRepository struct {
	db *sqlx.DB
}

func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create сохраняет новый ресурс в рамках транзакции q
func (r *ResourceRepository) Create(ctx context.Context, q sqlx.ExtContext, res *domain.Resource) error {
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now

	query := q.Rebind(`
        INSERT INTO resources (project_id, name, storage_key, content_type, size, type, status,
                               allowed_roles, created_by, updated_by, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id`)

	err := q.QueryRowxContext(ctx, query,
		res.ProjectID,
		res.Name,
		res.Key,
		res.ContentType,
		res.Size,
		res.Type,
		res.Status,
		res.AllowedRoles,
		res.CreatedBy,
		res.UpdatedBy,
		res.CreatedAt,
		res.UpdatedAt,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

// GetByID ищет ресурс в пределах проекта
func (r *ResourceRepository) GetByID(ctx context.Context, id, projectID int64) (*domain.Resource, error) {
	return r.getByID(ctx, r.db, id, projectID)
}

func (r *ResourceRepository) GetByIDTx(ctx context.Context, q sqlx.ExtContext, id, projectID int64) (*domain.Resource, error) {
	return r.getByID(ctx, q, id, projectID)
}

func (r *ResourceRepository) getByID(ctx context.Context, q sqlx.ExtContext, id, projectID int64) (*domain.Resource, error) {
	var res domain.Resource
	query := q.Rebind(`SELECT ` + resourceColumns + ` FROM resources WHERE id = ? AND project_id = ?`)
	if err := sqlx.GetContext(ctx, q, &res, query, id, projectID); err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

// Update сохраняет изменяемые поля ресурса
func (r *ResourceRepository) Update(ctx context.Context, q sqlx.ExtContext, res *domain.Resource) error {
	res.UpdatedAt = time.Now().UTC()

	query := q.Rebind(`
        UPDATE resources
        SET storage_key = ?,
            size = ?,
            status = ?,
            allowed_roles = ?,
            updated_by = ?,
            updated_at = ?
        WHERE id = ? AND project_id = ?`)

	result, err := q.ExecContext(ctx, query,
		res.Key,
		res.Size,
		res.Status,
		res.AllowedRoles,
		res.UpdatedBy,
		res.UpdatedAt,
		res.ID,
		res.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("error updating resource: %w", err)
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

// SumActiveSize считает суммарный размер активных ресурсов проекта
func (r *ResourceRepository) SumActiveSize(ctx context.Context, q sqlx.ExtContext, projectID int64) (int64, error) {
	var total int64
	query := q.Rebind(`
        SELECT CAST(COALESCE(SUM(size), 0) AS BIGINT)
        FROM resources
        WHERE project_id = ? AND status = ?`)
	if err := sqlx.GetContext(ctx, q, &total, query, projectID, domain.ResourceStatusActive); err != nil {
		return 0, fmt.Errorf("failed to calculate used space: %w", err)
	}
	return total, nil
}

// ListActive возвращает страницу активных ресурсов проекта и их общее число
func (r *ResourceRepository) ListActive(ctx context.Context, projectID int64, page domain.PageRequest) ([]domain.ResourceSummary, int64, error) {
	var total int64
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM resources WHERE project_id = ? AND status = ?`)
	if err := r.db.GetContext(ctx, &total, countQuery, projectID, domain.ResourceStatusActive); err != nil {
		return nil, 0, fmt.Errorf("failed to count resources: %w", err)
	}

	column, ok := sortColumns[page.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	direction := "ASC"
	if page.SortDesc {
		direction = "DESC"
	}

	query := r.db.Rebind(fmt.Sprintf(`
        SELECT r.id, r.name, r.size, r.type, r.content_type,
               COALESCE(u.nickname, '') AS created_by, r.created_at
        FROM resources r
        LEFT JOIN users u ON u.id = r.created_by
        WHERE r.project_id = ? AND r.status = ?
        ORDER BY %s %s, r.id DESC
        LIMIT ? OFFSET ?`, column, direction))

	items := []domain.ResourceSummary{}
	err := r.db.SelectContext(ctx, &items, query,
		projectID,
		domain.ResourceStatusActive,
		page.Size,
		page.Page*page.Size,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list resources: %w", err)
	}
	return items, total, nil
}
