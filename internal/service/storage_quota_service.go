package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/moby/locker"

	"filestorage/internal/domain"
	"filestorage/internal/repository"
)

// StorageQuotaService ведет учет занятого места проекта и сериализует изменяющие его операции
type StorageQuotaService struct {
	projectRepo  *repository.ProjectRepository
	resourceRepo *repository.ResourceRepository
	locks        *locker.Locker
}

func NewStorageQuotaService(projectRepo *repository.ProjectRepository, resourceRepo *repository.ResourceRepository) *StorageQuotaService {
	return &StorageQuotaService{
		projectRepo:  projectRepo,
		resourceRepo: resourceRepo,
		locks:        locker.New(),
	}
}

// WithProjectLock выполняет fn под исключительной блокировкой проекта в одной транзакции.
// Блокировка двухуровневая: мьютекс по id проекта в процессе и SELECT ... FOR UPDATE в PostgreSQL.
// Ошибка fn возвращается без изменений, транзакция откатывается.
func (s *StorageQuotaService) WithProjectLock(ctx context.Context, projectID int64, fn func(tx *sqlx.Tx, project *domain.Project) error) error {
	name := strconv.FormatInt(projectID, 10)
	s.locks.Lock(name)
	defer func() {
		if err := s.locks.Unlock(name); err != nil {
			slog.Error("failed to release project lock", "project_id", projectID, "error", err)
		}
	}()

	tx, err := s.projectRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	project, err := s.projectRepo.GetForUpdate(ctx, tx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: project %d", ErrEntityNotFound, projectID)
		}
		return fmt.Errorf("failed to lock project %d: %w", projectID, err)
	}

	if err := fn(tx, project); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CheckLimit проверяет, помещается ли size байт в квоту проекта
func (s *StorageQuotaService) CheckLimit(project *domain.Project, size int64) error {
	if size > project.MaxStorageSize-project.StorageSize {
		quotaRejectionsTotal.Inc()
		slog.Warn("storage limit exceeded",
			"project_id", project.ID,
			"used", project.StorageSize,
			"limit", project.MaxStorageSize,
			"requested", size,
		)
		return fmt.Errorf("%w: project %d uses %d of %d bytes, %d more requested",
			ErrStorageLimitExceeded, project.ID, project.StorageSize, project.MaxStorageSize, size)
	}
	return nil
}

// Recalculate пересчитывает занятое место как сумму размеров активных ресурсов и сохраняет его
func (s *StorageQuotaService) Recalculate(ctx context.Context, tx sqlx.ExtContext, project *domain.Project) error {
	total, err := s.resourceRepo.SumActiveSize(ctx, tx, project.ID)
	if err != nil {
		return err
	}

	changed, err := s.projectRepo.UpdateStorageSize(ctx, tx, project.ID, total)
	if err != nil {
		return err
	}
	if changed {
		slog.Debug("project storage size updated", "project_id", project.ID, "from", project.StorageSize, "to", total)
	}
	project.StorageSize = total
	return nil
}

// GetQuotaInfo возвращает сведения о квоте проекта
func (s *StorageQuotaService) GetQuotaInfo(ctx context.Context, projectID int64) (*domain.QuotaInfo, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrEntityNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	info := domain.NewQuotaInfo(project)
	return &info, nil
}

// CreateProject заводит проект с заданной квотой
func (s *StorageQuotaService) CreateProject(ctx context.Context, name string, maxStorageSize int64) (*domain.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if maxStorageSize < 0 {
		return nil, fmt.Errorf("%w: quota limit cannot be negative", ErrValidation)
	}

	project := &domain.Project{Name: name, MaxStorageSize: maxStorageSize}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateQuotaLimit меняет квоту проекта под его блокировкой
func (s *StorageQuotaService) UpdateQuotaLimit(ctx context.Context, projectID, newLimit int64) error {
	if newLimit < 0 {
		return fmt.Errorf("%w: quota limit cannot be negative", ErrValidation)
	}

	return s.WithProjectLock(ctx, projectID, func(tx *sqlx.Tx, project *domain.Project) error {
		err := s.projectRepo.UpdateMaxStorageSize(ctx, tx, projectID, newLimit)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: project %d", ErrEntityNotFound, projectID)
		}
		return err
	})
}
