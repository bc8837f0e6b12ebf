package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filestorage/internal/auth"
)

type RouterOptions struct {
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
	// Health обслуживает /healthz, если задан
	Health http.Handler
}

// NewRouter собирает HTTP-маршруты сервиса
func NewRouter(files *FileHandler, quota *StorageQuotaHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.UserIDHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	if opts.Health != nil {
		r.Handle("/healthz", opts.Health)
	}

	r.Route("/api/v1/projects/{projectId}", func(r chi.Router) {
		r.Get("/quota", quota.GetQuotaInfo)

		r.Route("/resources", func(r chi.Router) {
			r.Get("/", files.ListFiles)
			r.Post("/", files.UploadFile)
			r.Post("/bulk", files.BulkUpload)

			r.Route("/{resourceId}", func(r chi.Router) {
				r.Delete("/", files.DeleteFile)
				r.Get("/download", files.DownloadFile)
				r.Get("/url", files.GetPresignedURL)
			})
		})
	})

	return r
}
