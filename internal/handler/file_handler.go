package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"filestorage/internal/auth"
	"filestorage/internal/config"
	"filestorage/internal/domain"
	"filestorage/internal/service"
)

const (
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
)

type FileHandler struct {
	fileService *service.FileService
	maxBody     int64
}

func NewFileHandler(fileService *service.FileService, cfg config.FilesConfig) *FileHandler {
	files := int64(cfg.BulkUploadMaxFiles)
	if files < 1 {
		files = 1
	}
	return &FileHandler{
		fileService: fileService,
		maxBody:     cfg.MaxFileSize*files + multipartOverhead,
	}
}

type uploadResponse struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Size       int64               `json:"size"`
	Type       domain.ResourceType `json:"type"`
	UploadedAt time.Time           `json:"uploadedAt"`
}

type bulkItemResponse struct {
	Name     string              `json:"name"`
	Status   domain.UploadStatus `json:"status"`
	Resource *uploadResponse     `json:"resource,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func newUploadResponse(res *domain.Resource) *uploadResponse {
	return &uploadResponse{
		ID:         res.ID,
		Name:       res.Name,
		Size:       res.Size,
		Type:       res.Type,
		UploadedAt: res.CreatedAt,
	}
}

// UploadFile принимает multipart с полем file и необязательным allowedRoles
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	callerID, projectID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	if err := h.parseMultipart(w, r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		WriteError(w, http.StatusBadRequest, CodeValidationError, "file is required")
		return
	}

	file, upload, err := openUpload(headers[0])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer file.Close()

	res, err := h.fileService.UploadFile(r.Context(), projectID, callerID, upload, allowedRoles(r.MultipartForm))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUploadResponse(res))
}

// BulkUpload принимает multipart с повторяющимся полем files
func (h *FileHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	callerID, projectID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	if err := h.parseMultipart(w, r); err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	uploads := make([]domain.FileUpload, 0, len(headers))
	for _, header := range headers {
		file, upload, err := openUpload(header)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		defer file.Close()
		uploads = append(uploads, upload)
	}

	outcomes, err := h.fileService.BulkUpload(r.Context(), projectID, callerID, uploads, allowedRoles(r.MultipartForm))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]bulkItemResponse, len(outcomes))
	for i, o := range outcomes {
		resp[i] = bulkItemResponse{Name: o.Name, Status: o.Status, Error: o.Error}
		if o.Resource != nil {
			resp[i].Resource = newUploadResponse(o.Resource)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// DownloadFile отдает содержимое ресурса потоком
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	callerID, projectID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	resourceID, ok := pathID(w, r, "resourceId")
	if !ok {
		return
	}

	download, err := h.fileService.DownloadFile(r.Context(), resourceID, projectID, callerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer download.Body.Close()

	res := download.Resource

	// Подготавливаем имя файла для Content-Disposition
	encodedFileName := url.PathEscape(res.Name)
	asciiName := strings.ReplaceAll(res.Name, `"`, `\"`)
	contentDisposition := fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, asciiName, encodedFileName)

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(res.Size, 10))
	w.Header().Set("Content-Disposition", contentDisposition)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, download.Body); err != nil {
		slog.Error("failed to stream resource",
			"resource_id", res.ID, "project_id", projectID, "error", err)
	}
}

// GetPresignedURL выдает временную ссылку на скачивание
func (h *FileHandler) GetPresignedURL(w http.ResponseWriter, r *http.Request) {
	callerID, projectID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	resourceID, ok := pathID(w, r, "resourceId")
	if !ok {
		return
	}

	presigned, err := h.fileService.GeneratePresignedURL(r.Context(), resourceID, projectID, callerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presigned)
}

func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	callerID, projectID, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	resourceID, ok := pathID(w, r, "resourceId")
	if !ok {
		return
	}

	if err := h.fileService.DeleteFile(r.Context(), resourceID, projectID, callerID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFiles возвращает страницу активных ресурсов. Параметры: page, size, sort=поле[,asc|desc].
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	callerID, projectID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	pageNum, err := queryInt(q, "page")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	size, err := queryInt(q, "size")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	page, err := service.NewPageRequest(pageNum, size, q.Get("sort"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.fileService.GetProjectFiles(r.Context(), projectID, callerID, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// requestScope извлекает вызывающего и проект; при ошибке ответ уже записан
func (h *FileHandler) requestScope(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	callerID, err := auth.CallerID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return 0, 0, false
	}
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return 0, 0, false
	}
	return callerID, projectID, true
}

func (h *FileHandler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return fmt.Errorf("%w: invalid multipart request: %v", service.ErrValidation, err)
	}
	return nil
}

func openUpload(header *multipart.FileHeader) (multipart.File, domain.FileUpload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, domain.FileUpload{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	return file, domain.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, nil
}

// allowedRoles собирает роли из повторяющегося поля или списка через запятую
func allowedRoles(form *multipart.Form) []string {
	var roles []string
	for _, v := range form.Value["allowedRoles"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				roles = append(roles, part)
			}
		}
	}
	return roles
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, CodeValidationError, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

func queryInt(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", service.ErrValidation, name)
	}
	return v, nil
}
