package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"filestorage/internal/auth"
	"filestorage/internal/service"
)

// Коды ошибок API
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeStorageLimitExceeded = "STORAGE_LIMIT_EXCEEDED"
	CodeEntityNotFound       = "ENTITY_NOT_FOUND"
	CodeResourceNotFound     = "RESOURCE_NOT_FOUND"
	CodeAccessDenied         = "ACCESS_DENIED"
	CodeRolesNotConfigured   = "ROLES_NOT_CONFIGURED"
	CodeResourceNotActive    = "RESOURCE_NOT_ACTIVE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInternalError        = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в формате {"error": {"code": "...", "message": "..."}}
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ. Детали внутренних ошибок остаются в логе.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, CodeUnauthorized, err.Error())
	case errors.Is(err, service.ErrValidation):
		WriteError(w, http.StatusBadRequest, CodeValidationError, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, err.Error())
	case errors.As(err, &maxBytesErr):
		WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, "request body is too large")
	case errors.Is(err, service.ErrStorageLimitExceeded):
		WriteError(w, http.StatusInsufficientStorage, CodeStorageLimitExceeded, err.Error())
	case errors.Is(err, service.ErrEntityNotFound):
		WriteError(w, http.StatusNotFound, CodeEntityNotFound, err.Error())
	case errors.Is(err, service.ErrResourceNotFound):
		WriteError(w, http.StatusNotFound, CodeResourceNotFound, err.Error())
	case errors.Is(err, service.ErrRolesNotConfigured):
		WriteError(w, http.StatusForbidden, CodeRolesNotConfigured, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		WriteError(w, http.StatusForbidden, CodeAccessDenied, err.Error())
	case errors.Is(err, service.ErrNotActive):
		WriteError(w, http.StatusBadRequest, CodeResourceNotActive, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
