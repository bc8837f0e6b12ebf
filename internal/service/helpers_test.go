package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"filestorage/internal/config"
	"filestorage/internal/domain"
	"filestorage/internal/repository"
	"filestorage/internal/repository/sqlitetest"
	"filestorage/internal/service"
	"filestorage/internal/storage/memory"
)

type env struct {
	db        *sqlx.DB
	store     *memory.Storage
	projects  *repository.ProjectRepository
	resources *repository.ResourceRepository
	users     *repository.UserRepository
	quota     *service.StorageQuotaService
	files     *service.FileService

	project   *domain.Project
	owner     *domain.User
	manager   *domain.User
	developer *domain.User
	viewer    *domain.User
}

func testFilesConfig() config.FilesConfig {
	return config.FilesConfig{
		MaxFileSize:        1 << 20,
		BlockedExtensions:  []string{"exe", "bat", "sh"},
		PresignedURLExpiry: 600,
		BulkUploadMaxFiles: 3,
		KeySuffixLength:    8,
		DefaultContentType: "application/octet-stream",
	}
}

func newEnv(t *testing.T, quota int64) *env {
	t.Helper()
	ctx := context.Background()
	db := sqlitetest.New(t)

	e := &env{
		db:        db,
		store:     memory.New(),
		projects:  repository.NewProjectRepository(db),
		resources: repository.NewResourceRepository(db),
		users:     repository.NewUserRepository(db),
	}
	e.quota = service.NewStorageQuotaService(e.projects, e.resources)
	cfg := testFilesConfig()
	e.files = service.NewFileService(
		e.projects, e.resources, e.users, e.store,
		service.NewPermissionService(), e.quota, service.NewKeyGenerator(cfg.KeySuffixLength), cfg,
	)

	var err error
	e.project, err = e.quota.CreateProject(ctx, "apollo", quota)
	require.NoError(t, err)

	e.owner = e.createUser(t, "owner", domain.RoleOwner)
	e.manager = e.createUser(t, "manager", domain.RoleManager)
	e.developer = e.createUser(t, "developer", domain.RoleDeveloper)
	e.viewer = e.createUser(t, "viewer", domain.RoleViewer)
	return e
}

func (e *env) createUser(t *testing.T, name string, roles ...domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Username: name + "@example.com", Nickname: name, Roles: roles}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) storageSize(t *testing.T) int64 {
	t.Helper()
	p, err := e.projects.GetByID(context.Background(), e.project.ID)
	require.NoError(t, err)
	return p.StorageSize
}

func fileOf(name string, data []byte) domain.FileUpload {
	return domain.FileUpload{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	}
}

func upload(t *testing.T, e *env, caller *domain.User, name string, data []byte, roles ...string) *domain.Resource {
	t.Helper()
	res, err := e.files.UploadFile(context.Background(), e.project.ID, caller.ID, fileOf(name, data), roles)
	require.NoError(t, err)
	return res
}
