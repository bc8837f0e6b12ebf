package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jmoiron/sqlx"

	"filestorage/internal/config"
	"filestorage/internal/domain"
	"filestorage/internal/repository"
	"filestorage/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultSort     = "createdAt"
)

// FileService согласует blob-хранилище и метаданные при операциях с ресурсами проекта
type FileService struct {
	projectRepo  *repository.ProjectRepository
	resourceRepo *repository.ResourceRepository
	userRepo     *repository.UserRepository
	storage      storage.Storage
	permissions  *PermissionService
	quota        *StorageQuotaService
	keys         *KeyGenerator
	cfg          config.FilesConfig
	blocked      map[string]struct{}
}

func NewFileService(
	projectRepo *repository.ProjectRepository,
	resourceRepo *repository.ResourceRepository,
	userRepo *repository.UserRepository,
	store storage.Storage,
	permissions *PermissionService,
	quota *StorageQuotaService,
	keys *KeyGenerator,
	cfg config.FilesConfig,
) *FileService {
	blocked := make(map[string]struct{}, len(cfg.BlockedExtensions))
	for _, ext := range cfg.BlockedExtensions {
		blocked[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &FileService{
		projectRepo:  projectRepo,
		resourceRepo: resourceRepo,
		userRepo:     userRepo,
		storage:      store,
		permissions:  permissions,
		quota:        quota,
		keys:         keys,
		cfg:          cfg,
		blocked:      blocked,
	}
}

// UploadFile загружает файл в проект.
// Порядок: проверки без обращения к хранилищам, блокировка проекта, проверка квоты,
// запись объекта, запись метаданных, пересчет занятого места, снятие блокировки.
func (s *FileService) UploadFile(ctx context.Context, projectID, callerID int64, upload domain.FileUpload, explicitRoles []string) (*domain.Resource, error) {
	size, err := s.validateUpload(upload)
	if err != nil {
		uploadsTotal.WithLabelValues(resultFailure).Inc()
		return nil, err
	}

	contentType, err := s.detectContentType(upload)
	if err != nil {
		uploadsTotal.WithLabelValues(resultFailure).Inc()
		return nil, err
	}

	var (
		res         *domain.Resource
		key         string
		blobWritten bool
	)

	err = s.quota.WithProjectLock(ctx, projectID, func(tx *sqlx.Tx, project *domain.Project) error {
		user, err := s.getUser(ctx, tx, callerID)
		if err != nil {
			return err
		}

		allowedRoles := s.permissions.ResolveAllowedRoles(explicitRoles, user)

		if err := s.quota.CheckLimit(project, size); err != nil {
			return err
		}

		key = s.keys.Generate(projectID, upload.Name)
		if err := s.storage.PutObject(ctx, key, upload.Content, size, contentType); err != nil {
			slog.Error("failed to put object",
				"operation", "upload", "project_id", projectID, "key", key, "error", err)
			return storageError("put object", err)
		}
		blobWritten = true

		res = &domain.Resource{
			ProjectID:    projectID,
			Name:         upload.Name,
			Key:          &key,
			ContentType:  contentType,
			Size:         size,
			Type:         domain.ResourceTypeOf(contentType),
			Status:       domain.ResourceStatusActive,
			AllowedRoles: allowedRoles,
			CreatedBy:    user.ID,
			UpdatedBy:    user.ID,
		}
		if err := s.resourceRepo.Create(ctx, tx, res); err != nil {
			return err
		}

		return s.quota.Recalculate(ctx, tx, project)
	})
	if err != nil {
		if blobWritten {
			s.removeOrphan(ctx, projectID, key, err)
		}
		uploadsTotal.WithLabelValues(resultFailure).Inc()
		return nil, err
	}

	uploadsTotal.WithLabelValues(resultSuccess).Inc()
	uploadedBytesTotal.Add(float64(size))
	slog.Info("resource uploaded",
		"resource_id", res.ID, "project_id", projectID, "user_id", callerID, "size", size, "key", key)
	return res, nil
}

// validateUpload проверяет файл до любых обращений к хранилищам и возвращает его фактический размер
func (s *FileService) validateUpload(upload domain.FileUpload) (int64, error) {
	if upload.Content == nil {
		return 0, fmt.Errorf("%w: file is empty", ErrValidation)
	}

	size, err := upload.Content.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to measure file: %w", err)
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind file: %w", err)
	}

	if size == 0 {
		return 0, fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if size > s.cfg.MaxFileSize {
		return 0, fmt.Errorf("%w: %d bytes exceeds the maximum of %d bytes", ErrFileTooLarge, size, s.cfg.MaxFileSize)
	}
	if ext := FileExtension(upload.Name); ext != "" {
		if _, ok := s.blocked[ext]; ok {
			return 0, fmt.Errorf("%w: file extension %q is not allowed", ErrValidation, ext)
		}
	}
	if strings.TrimSpace(upload.Name) == "" {
		return 0, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	return size, nil
}

// detectContentType определяет MIME-тип по содержимому, затем по заявленному типу, затем по умолчанию
func (s *FileService) detectContentType(upload domain.FileUpload) (string, error) {
	detected, err := mimetype.DetectReader(upload.Content)
	if _, seekErr := upload.Content.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to rewind file: %w", seekErr)
	}
	if err == nil && !detected.Is("application/octet-stream") {
		return detected.String(), nil
	}
	if ct := strings.TrimSpace(upload.ContentType); ct != "" {
		return ct, nil
	}
	return s.cfg.DefaultContentType, nil
}

// removeOrphan удаляет объект, для которого не удалось сохранить метаданные
func (s *FileService) removeOrphan(ctx context.Context, projectID int64, key string, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		orphanedBlobsTotal.Inc()
		slog.Error("failed to delete object after metadata error, object is orphaned",
			"operation", "upload", "project_id", projectID, "key", key, "cause", cause, "error", err)
		return
	}
	slog.Warn("object deleted after metadata error",
		"operation", "upload", "project_id", projectID, "key", key, "cause", cause)
}

// DownloadFile открывает поток содержимого ресурса. Поток закрывает вызывающий.
func (s *FileService) DownloadFile(ctx context.Context, resourceID, projectID, callerID int64) (*domain.FileDownload, error) {
	res, err := s.readableResource(ctx, resourceID, projectID, callerID, OperationDownload)
	if err != nil {
		return nil, err
	}

	obj, err := s.storage.GetObject(ctx, *res.Key)
	if err != nil {
		slog.Error("failed to get object",
			"operation", "download", "resource_id", res.ID, "project_id", projectID, "key", *res.Key, "error", err)
		return nil, storageError("get object", err)
	}

	return &domain.FileDownload{Resource: res, Body: obj}, nil
}

// GeneratePresignedURL выдает временную ссылку на скачивание ресурса
func (s *FileService) GeneratePresignedURL(ctx context.Context, resourceID, projectID, callerID int64) (*domain.PresignedURL, error) {
	res, err := s.readableResource(ctx, resourceID, projectID, callerID, OperationPresign)
	if err != nil {
		return nil, err
	}

	expiry := s.cfg.PresignExpiry()
	url, err := s.storage.PresignGetObject(ctx, *res.Key, expiry)
	if err != nil {
		slog.Error("failed to presign object",
			"operation", "presign", "resource_id", res.ID, "project_id", projectID, "key", *res.Key, "error", err)
		return nil, storageError("presign object", err)
	}

	return &domain.PresignedURL{URL: url, ExpiresIn: int64(expiry.Seconds())}, nil
}

// readableResource находит ресурс, проверяет доступ на чтение и что у него есть объект в хранилище
func (s *FileService) readableResource(ctx context.Context, resourceID, projectID, callerID int64, op OperationType) (*domain.Resource, error) {
	res, err := s.getResource(ctx, resourceID, projectID)
	if err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, nil, callerID)
	if err != nil {
		return nil, err
	}

	if err := s.permissions.CheckAccess(user, res, op); err != nil {
		slog.Info("access denied",
			"operation", op, "resource_id", res.ID, "project_id", projectID, "user_id", callerID)
		return nil, err
	}

	if !res.IsActive() || res.Key == nil {
		return nil, fmt.Errorf("%w: resource %d has status %s", ErrNotActive, res.ID, res.Status)
	}
	return res, nil
}

var errAlreadyDeleted = errors.New("resource already deleted")

// DeleteFile мягко удаляет ресурс: объект удаляется из хранилища, запись остается со статусом DELETED.
// Повторное удаление ничего не делает.
func (s *FileService) DeleteFile(ctx context.Context, resourceID, projectID, callerID int64) error {
	res, err := s.getResource(ctx, resourceID, projectID)
	if err != nil {
		return err
	}
	user, err := s.getUser(ctx, nil, callerID)
	if err != nil {
		return err
	}

	if err := s.permissions.CheckAccess(user, res, OperationDelete); err != nil {
		deletesTotal.WithLabelValues(resultFailure).Inc()
		return err
	}

	if res.Status == domain.ResourceStatusDeleted {
		deletesTotal.WithLabelValues(resultNoop).Inc()
		return nil
	}

	err = s.quota.WithProjectLock(ctx, projectID, func(tx *sqlx.Tx, project *domain.Project) error {
		current, err := s.resourceRepo.GetByIDTx(ctx, tx, resourceID, projectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: resource %d", ErrResourceNotFound, resourceID)
			}
			return err
		}
		if current.Status == domain.ResourceStatusDeleted {
			return errAlreadyDeleted
		}

		if current.Key != nil {
			if err := s.storage.DeleteObject(ctx, *current.Key); err != nil {
				slog.Error("failed to delete object",
					"operation", "delete", "resource_id", resourceID, "project_id", projectID, "key", *current.Key, "error", err)
				return storageError("delete object", err)
			}
		}

		current.Key = nil
		current.Size = 0
		current.Status = domain.ResourceStatusDeleted
		current.UpdatedBy = user.ID
		if err := s.resourceRepo.Update(ctx, tx, current); err != nil {
			return err
		}

		return s.quota.Recalculate(ctx, tx, project)
	})

	switch {
	case errors.Is(err, errAlreadyDeleted):
		deletesTotal.WithLabelValues(resultNoop).Inc()
		return nil
	case err != nil:
		deletesTotal.WithLabelValues(resultFailure).Inc()
		return err
	}

	deletesTotal.WithLabelValues(resultSuccess).Inc()
	slog.Info("resource deleted", "resource_id", resourceID, "project_id", projectID, "user_id", callerID)
	return nil
}

// NewPageRequest разбирает параметры листинга. sort задается как "поле" или "поле,asc|desc".
func NewPageRequest(page, size int, sort string) (domain.PageRequest, error) {
	req := domain.PageRequest{Page: page, Size: size, SortBy: defaultSort, SortDesc: true}
	if req.Page < 0 {
		req.Page = 0
	}
	if req.Size <= 0 {
		req.Size = defaultPageSize
	}
	if req.Size > maxPageSize {
		req.Size = maxPageSize
	}

	sort = strings.TrimSpace(sort)
	if sort == "" {
		return req, nil
	}

	field, direction, _ := strings.Cut(sort, ",")
	switch field = strings.TrimSpace(field); field {
	case "createdAt", "name", "size":
		req.SortBy = field
	default:
		return req, fmt.Errorf("%w: unsupported sort field %q", ErrValidation, field)
	}

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "desc":
		req.SortDesc = true
	case "asc":
		req.SortDesc = false
	default:
		return req, fmt.Errorf("%w: unsupported sort direction %q", ErrValidation, direction)
	}
	return req, nil
}

// GetProjectFiles возвращает страницу активных ресурсов проекта
func (s *FileService) GetProjectFiles(ctx context.Context, projectID, callerID int64, page domain.PageRequest) (*domain.ResourcePage, error) {
	if _, err := s.getUser(ctx, nil, callerID); err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrEntityNotFound, projectID)
		}
		return nil, err
	}

	items, total, err := s.resourceRepo.ListActive(ctx, projectID, page)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if page.Size > 0 {
		totalPages = int((total + int64(page.Size) - 1) / int64(page.Size))
	}

	return &domain.ResourcePage{
		Content:       items,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// BulkUpload загружает файлы по одному. Ошибка одного файла не прерывает остальные.
func (s *FileService) BulkUpload(ctx context.Context, projectID, callerID int64, files []domain.FileUpload, explicitRoles []string) ([]domain.UploadOutcome, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrValidation)
	}
	if len(files) > s.cfg.BulkUploadMaxFiles {
		return nil, fmt.Errorf("%w: %d files exceeds the maximum of %d per request",
			ErrValidation, len(files), s.cfg.BulkUploadMaxFiles)
	}

	outcomes := make([]domain.UploadOutcome, 0, len(files))
	for _, file := range files {
		res, err := s.UploadFile(ctx, projectID, callerID, file, explicitRoles)
		if err != nil {
			slog.Warn("bulk item failed", "project_id", projectID, "name", file.Name, "error", err)
			outcomes = append(outcomes, domain.UploadOutcome{
				Name:   file.Name,
				Status: domain.UploadStatusFailed,
				Error:  PublicMessage(err),
			})
			continue
		}
		outcomes = append(outcomes, domain.UploadOutcome{
			Name:     file.Name,
			Status:   domain.UploadStatusSuccess,
			Resource: res,
		})
	}
	return outcomes, nil
}

// GetQuotaInfo возвращает сведения о квоте проекта для существующего пользователя
func (s *FileService) GetQuotaInfo(ctx context.Context, projectID, callerID int64) (*domain.QuotaInfo, error) {
	if _, err := s.getUser(ctx, nil, callerID); err != nil {
		return nil, err
	}
	return s.quota.GetQuotaInfo(ctx, projectID)
}

func (s *FileService) getResource(ctx context.Context, resourceID, projectID int64) (*domain.Resource, error) {
	res, err := s.resourceRepo.GetByID(ctx, resourceID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: resource %d in project %d", ErrResourceNotFound, resourceID, projectID)
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return res, nil
}

// getUser читает пользователя; внутри блокировки проекта передается tx
func (s *FileService) getUser(ctx context.Context, tx *sqlx.Tx, userID int64) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	if tx != nil {
		user, err = s.userRepo.GetByIDTx(ctx, tx, userID)
	} else {
		user, err = s.userRepo.GetByID(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrEntityNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
