package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filestorage_uploads_total",
			Help: "Количество загрузок ресурсов по результату",
		},
		[]string{"result"},
	)

	uploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filestorage_uploaded_bytes_total",
			Help: "Объем успешно загруженных данных в байтах",
		},
	)

	deletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filestorage_deletes_total",
			Help: "Количество удалений ресурсов по результату",
		},
		[]string{"result"},
	)

	quotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filestorage_quota_rejections_total",
			Help: "Количество загрузок, отклоненных из-за квоты проекта",
		},
	)

	// orphanedBlobsTotal растет, когда компенсирующее удаление объекта не удалось.
	orphanedBlobsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filestorage_orphaned_blobs_total",
			Help: "Количество объектов, оставшихся в хранилище без метаданных",
		},
	)
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultNoop    = "noop"
)
