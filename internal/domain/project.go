package domain

import "time"

type Project struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	StorageSize    int64     `json:"storageSize" db:"storage_size"`
	MaxStorageSize int64     `json:"maxStorageSize" db:"max_storage_size"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// Available возвращает оставшийся объем квоты проекта.
func (p *Project) Available() int64 {
	if p.StorageSize >= p.MaxStorageSize {
		return 0
	}
	return p.MaxStorageSize - p.StorageSize
}

type QuotaInfo struct {
	ProjectID      int64   `json:"projectId"`
	TotalSpace     int64   `json:"totalSpace"`
	UsedSpace      int64   `json:"usedSpace"`
	AvailableSpace int64   `json:"availableSpace"`
	UsagePercent   float64 `json:"usagePercent"`
}

// NewQuotaInfo собирает сведения о квоте по состоянию проекта.
func NewQuotaInfo(p *Project) QuotaInfo {
	info := QuotaInfo{
		ProjectID:      p.ID,
		TotalSpace:     p.MaxStorageSize,
		UsedSpace:      p.StorageSize,
		AvailableSpace: p.Available(),
	}
	if p.MaxStorageSize > 0 {
		info.UsagePercent = float64(p.StorageSize) / float64(p.MaxStorageSize) * 100
	}
	return info
}
