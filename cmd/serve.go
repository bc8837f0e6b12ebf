package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"filestorage/internal/config"
	"filestorage/internal/handler"
	"filestorage/internal/health"
	"filestorage/internal/repository"
	"filestorage/internal/service"
	"filestorage/internal/storage"
	"filestorage/internal/storage/memory"
	"filestorage/internal/storage/minio"
	"filestorage/internal/storage/s3"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), appConfig)
	},
}

// newStorage создает blob-хранилище выбранного провайдера
func newStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Provider {
	case config.ProviderS3:
		return s3.NewClient(ctx, &s3.Config{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Bucket:          cfg.Bucket,
			UsePathStyle:    cfg.UsePathStyle,
		})
	case config.ProviderMinio:
		return minio.NewClient(ctx, &minio.Config{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Bucket:          cfg.Bucket,
			UseSSL:          cfg.UseSSL,
			UsePathStyle:    cfg.UsePathStyle,
			CreateBucket:    cfg.CreateBucket,
		})
	case config.ProviderMemory:
		slog.Warn("using in-memory blob storage, objects are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(cfg.Database); err != nil {
		return err
	}

	store, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	// Репозитории и сервисы
	projectRepo := repository.NewProjectRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	userRepo := repository.NewUserRepository(db)

	quotaService := service.NewStorageQuotaService(projectRepo, resourceRepo)
	fileService := service.NewFileService(
		projectRepo,
		resourceRepo,
		userRepo,
		store,
		service.NewPermissionService(),
		quotaService,
		service.NewKeyGenerator(cfg.Files.KeySuffixLength),
		cfg.Files,
	)

	// gRPC health
	healthService := health.New(health.DefaultInterval,
		health.Check{Name: "database", Probe: projectRepo.Ping},
		health.Check{Name: "storage", Probe: store.Ping},
	)
	grpcServer := grpc.NewServer()
	healthService.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	conn, err := grpc.NewClient("localhost:"+cfg.Server.GRPCPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to create health client: %w", err)
	}
	defer conn.Close()

	router := handler.NewRouter(
		handler.NewFileHandler(fileService, cfg.Files),
		handler.NewStorageQuotaHandler(fileService),
		handler.RouterOptions{
			RequestTimeout:     cfg.Server.RequestTimeout,
			CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
			Health:             health.Gateway(conn),
		},
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		slog.Info("starting gRPC server", "port", cfg.Server.GRPCPort)
		return grpcServer.Serve(lis)
	})

	eg.Go(func() error {
		slog.Info("starting HTTP server", "port", cfg.Server.Port)
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		return healthService.Run(egCtx)
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced to shutdown", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	err = eg.Wait()
	slog.Info("server exited")
	return err
}
