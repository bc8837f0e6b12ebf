package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceTypeOf(t *testing.T) {
	cases := map[string]ResourceType{
		"image/png":                 ResourceTypeImage,
		"video/mp4":                 ResourceTypeVideo,
		"audio/mpeg":                ResourceTypeAudio,
		"text/plain; charset=utf-8": ResourceTypeDocument,
		"application/pdf":           ResourceTypeDocument,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ResourceTypeDocument,
		"application/json":            ResourceTypeDocument,
		"application/zip":             ResourceTypeArchive,
		"application/x-7z-compressed": ResourceTypeArchive,
		"application/octet-stream":    ResourceTypeOther,
		"":                            ResourceTypeOther,
	}
	for ct, want := range cases {
		assert.Equal(t, want, ResourceTypeOf(ct), ct)
	}
}

func TestRolesScanAndValue(t *testing.T) {
	var rs Roles
	require.NoError(t, rs.Scan("OWNER, DEVELOPER,,"))
	assert.Equal(t, Roles{RoleOwner, RoleDeveloper}, rs)

	require.NoError(t, rs.Scan([]byte("VIEWER")))
	assert.Equal(t, Roles{RoleViewer}, rs)

	v, err := Roles{RoleManager, RoleTester}.Value()
	require.NoError(t, err)
	assert.Equal(t, "MANAGER,TESTER", v)

	require.NoError(t, rs.Scan(nil))
	assert.Empty(t, rs)

	assert.Error(t, rs.Scan(42))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" developer ")
	assert.True(t, ok)
	assert.Equal(t, RoleDeveloper, r)

	_, ok = ParseRole("ADMIN")
	assert.False(t, ok)
}

func TestRolesIntersects(t *testing.T) {
	a := Roles{RoleDeveloper, RoleTester}
	assert.True(t, a.Intersects(Roles{RoleViewer, RoleTester}))
	assert.False(t, a.Intersects(Roles{RoleViewer}))
	assert.False(t, a.Intersects(nil))
}

func TestQuotaInfo(t *testing.T) {
	info := NewQuotaInfo(&Project{ID: 3, StorageSize: 250, MaxStorageSize: 1000})
	assert.Equal(t, int64(750), info.AvailableSpace)
	assert.InDelta(t, 25.0, info.UsagePercent, 0.001)

	over := NewQuotaInfo(&Project{StorageSize: 10, MaxStorageSize: 0})
	assert.Zero(t, over.AvailableSpace)
	assert.Zero(t, over.UsagePercent)
}
