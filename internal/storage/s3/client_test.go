package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	conf := &Config{AccessKeyID: "id", SecretAccessKey: "secret", Bucket: "resources"}
	require.NoError(t, conf.Validate())

	conf.Bucket = ""
	assert.EqualError(t, conf.Validate(), "Bucket is required")

	conf = &Config{SecretAccessKey: "secret", Bucket: "resources"}
	assert.EqualError(t, conf.Validate(), "AccessKeyID is required")
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(context.Background(), nil)
	require.Error(t, err)

	_, err = NewClient(context.Background(), &Config{AccessKeyID: "id"})
	require.Error(t, err)
}
