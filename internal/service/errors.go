package service

import (
	"errors"
	"fmt"
)

// Ошибки предметной области. Оборачиваются через %w в месте обнаружения.
var (
	ErrValidation           = errors.New("validation failed")
	ErrFileTooLarge         = errors.New("file is too large")
	ErrStorageLimitExceeded = errors.New("project storage limit exceeded")
	ErrEntityNotFound       = errors.New("entity not found")
	ErrResourceNotFound     = errors.New("resource not found")
	ErrAccessDenied         = errors.New("access denied")
	ErrNotActive            = errors.New("resource is not active")
	ErrStorageOperation     = errors.New("storage operation failed")

	// ErrRolesNotConfigured отличается от ErrAccessDenied, но errors.Is(err, ErrAccessDenied) для нее истинно.
	ErrRolesNotConfigured = fmt.Errorf("%w: resource has no allowed roles configured", ErrAccessDenied)
)

// storageError оборачивает отказ blob-хранилища контекстом операции
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageOperation, op, err)
}

var publicErrors = []error{
	ErrValidation,
	ErrFileTooLarge,
	ErrStorageLimitExceeded,
	ErrEntityNotFound,
	ErrResourceNotFound,
	ErrAccessDenied,
	ErrNotActive,
}

// PublicMessage возвращает текст ошибки, который можно показать клиенту.
// Для внутренних ошибок детали скрываются.
func PublicMessage(err error) string {
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return err.Error()
		}
	}
	return "internal server error"
}
