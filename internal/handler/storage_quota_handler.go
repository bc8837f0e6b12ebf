package handler

import (
	"net/http"

	"filestorage/internal/auth"
	"filestorage/internal/service"
)

type StorageQuotaHandler struct {
	fileService *service.FileService
}

func NewStorageQuotaHandler(fileService *service.FileService) *StorageQuotaHandler {
	return &StorageQuotaHandler{
		fileService: fileService,
	}
}

func (h *StorageQuotaHandler) GetQuotaInfo(w http.ResponseWriter, r *http.Request) {
	callerID, err := auth.CallerID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}

	quotaInfo, err := h.fileService.GetQuotaInfo(r.Context(), projectID, callerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotaInfo)
}
