package domain

import (
	"io"
	"strings"
	"time"
)

type ResourceStatus string

const (
	ResourceStatusActive  ResourceStatus = "ACTIVE"
	ResourceStatusDeleted ResourceStatus = "DELETED"
)

type ResourceType string

const (
	ResourceTypeImage    ResourceType = "IMAGE"
	ResourceTypeVideo    ResourceType = "VIDEO"
	ResourceTypeAudio    ResourceType = "AUDIO"
	ResourceTypeDocument ResourceType = "DOCUMENT"
	ResourceTypeArchive  ResourceType = "ARCHIVE"
	ResourceTypeOther    ResourceType = "OTHER"
)

type Resource struct {
	ID           int64          `json:"id" db:"id"`
	ProjectID    int64          `json:"projectId" db:"project_id"`
	Name         string         `json:"name" db:"name"`
	Key          *string        `json:"-" db:"storage_key"`
	ContentType  string         `json:"contentType" db:"content_type"`
	Size         int64          `json:"size" db:"size"`
	Type         ResourceType   `json:"type" db:"type"`
	Status       ResourceStatus `json:"status" db:"status"`
	AllowedRoles Roles          `json:"allowedRoles" db:"allowed_roles"`
	CreatedBy    int64          `json:"createdBy" db:"created_by"`
	UpdatedBy    int64          `json:"updatedBy" db:"updated_by"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// IsActive сообщает, доступен ли ресурс для скачивания.
func (r *Resource) IsActive() bool {
	return r.Status == ResourceStatusActive
}

// ResourceSummary используется в листинге: вместо пользователя только его никнейм.
type ResourceSummary struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Size        int64        `json:"size" db:"size"`
	Type        ResourceType `json:"type" db:"type"`
	ContentType string       `json:"contentType" db:"content_type"`
	CreatedBy   string       `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
}

type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

type FileDownload struct {
	Resource *Resource
	Body     io.ReadCloser
}

type PresignedURL struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}

type UploadStatus string

const (
	UploadStatusSuccess UploadStatus = "SUCCESS"
	UploadStatusFailed  UploadStatus = "FAILED"
)

type UploadOutcome struct {
	Name     string       `json:"name"`
	Status   UploadStatus `json:"status"`
	Resource *Resource    `json:"-"`
	Error    string       `json:"error,omitempty"`
}

type PageRequest struct {
	Page     int
	Size     int
	SortBy   string
	SortDesc bool
}

type ResourcePage struct {
	Content       []ResourceSummary `json:"content"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
}

var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument",
	"application/vnd.ms-",
	"application/vnd.oasis.opendocument",
	"application/rtf",
	"application/json",
	"application/xml",
}

var archiveTypes = []string{
	"application/zip",
	"application/x-tar",
	"application/gzip",
	"application/x-gzip",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
	"application/vnd.rar",
	"application/x-bzip2",
	"application/x-xz",
}

// ResourceTypeOf определяет категорию ресурса по MIME-типу.
func ResourceTypeOf(contentType string) ResourceType {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch {
	case strings.HasPrefix(ct, "image/"):
		return ResourceTypeImage
	case strings.HasPrefix(ct, "video/"):
		return ResourceTypeVideo
	case strings.HasPrefix(ct, "audio/"):
		return ResourceTypeAudio
	case strings.HasPrefix(ct, "text/"):
		return ResourceTypeDocument
	}
	for _, prefix := range archiveTypes {
		if strings.HasPrefix(ct, prefix) {
			return ResourceTypeArchive
		}
	}
	for _, prefix := range documentTypes {
		if strings.HasPrefix(ct, prefix) {
			return ResourceTypeDocument
		}
	}
	return ResourceTypeOther
}
