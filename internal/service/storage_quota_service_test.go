package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filestorage/internal/domain"
	"filestorage/internal/service"
)

func TestWithProjectLockUnknownProject(t *testing.T) {
	e := newEnv(t, 1000)
	called := false
	err := e.quota.WithProjectLock(context.Background(), 999, func(*sqlx.Tx, *domain.Project) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, service.ErrEntityNotFound)
	assert.False(t, called)
}

func TestWithProjectLockRollsBackOnError(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()
	boom := errors.New("boom")

	err := e.quota.WithProjectLock(ctx, e.project.ID, func(tx *sqlx.Tx, p *domain.Project) error {
		_, err := e.projects.UpdateStorageSize(ctx, tx, p.ID, 777)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, e.storageSize(t))
}

func TestCheckLimit(t *testing.T) {
	e := newEnv(t, 1000)
	p := &domain.Project{ID: 1, StorageSize: 400, MaxStorageSize: 1000}

	assert.NoError(t, e.quota.CheckLimit(p, 600))
	assert.ErrorIs(t, e.quota.CheckLimit(p, 601), service.ErrStorageLimitExceeded)

	drifted := &domain.Project{ID: 2, StorageSize: 1200, MaxStorageSize: 1000}
	assert.ErrorIs(t, e.quota.CheckLimit(drifted, 1), service.ErrStorageLimitExceeded)
}

func TestRecalculateHealsDrift(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()
	upload(t, e, e.developer, "a.txt", []byte("0123456789"))

	_, err := e.projects.UpdateStorageSize(ctx, e.db, e.project.ID, 999)
	require.NoError(t, err)

	err = e.quota.WithProjectLock(ctx, e.project.ID, func(tx *sqlx.Tx, p *domain.Project) error {
		assert.Equal(t, int64(999), p.StorageSize)
		if err := e.quota.Recalculate(ctx, tx, p); err != nil {
			return err
		}
		assert.Equal(t, int64(10), p.StorageSize)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), e.storageSize(t))
}

func TestQuotaInfoAndLimit(t *testing.T) {
	e := newEnv(t, 1000)
	ctx := context.Background()
	upload(t, e, e.developer, "a.txt", make250())

	info, err := e.quota.GetQuotaInfo(ctx, e.project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), info.UsedSpace)
	assert.Equal(t, int64(750), info.AvailableSpace)
	assert.InDelta(t, 25.0, info.UsagePercent, 0.01)

	require.NoError(t, e.quota.UpdateQuotaLimit(ctx, e.project.ID, 500))
	info, err = e.quota.GetQuotaInfo(ctx, e.project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), info.TotalSpace)

	assert.ErrorIs(t, e.quota.UpdateQuotaLimit(ctx, e.project.ID, -1), service.ErrValidation)
	assert.ErrorIs(t, e.quota.UpdateQuotaLimit(ctx, 999, 10), service.ErrEntityNotFound)

	_, err = e.quota.GetQuotaInfo(ctx, 999)
	assert.ErrorIs(t, err, service.ErrEntityNotFound)
}

func TestCreateProjectValidation(t *testing.T) {
	e := newEnv(t, 1000)
	_, err := e.quota.CreateProject(context.Background(), "", 10)
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = e.quota.CreateProject(context.Background(), "x", -10)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func make250() []byte {
	b := make([]byte, 250)
	for i := range b {
		b[i] = 'a'
	}
	return b
}
