package provider_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/provider"
)

func TestSettings(t *testing.T) {
	t.Parallel()

	s := provider.Settings{
		"region":  "eu-west-1",
		"retries": 3,
		"limit":   float64(10), // JSON-decoded numbers arrive as float64
		"secure":  true,
		"timeout": "1m30s",
		"broken":  "not-a-duration",
		"empty":   "",
	}

	assert.Equal(t, "eu-west-1", s.String("region", "us-east-1"))
	assert.Equal(t, "us-east-1", s.String("missing", "us-east-1"))
	assert.Equal(t, "fallback", s.String("empty", "fallback"))

	assert.Equal(t, 3, s.Int("retries", 1))
	assert.Equal(t, 10, s.Int("limit", 1))
	assert.Equal(t, 1, s.Int("missing", 1))

	assert.True(t, s.Bool("secure", false))
	assert.False(t, s.Bool("missing", false))

	assert.Equal(t, 90*time.Second, s.Duration("timeout", time.Second))
	assert.Equal(t, time.Second, s.Duration("broken", time.Second))
	assert.Equal(t, time.Second, s.Duration("missing", time.Second))

	var nilSettings provider.Settings
	assert.Equal(t, "fallback", nilSettings.String("anything", "fallback"))
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	t.Run("parses a defaults file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "providers.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
sandbox: false
providers:
  email:
    backend: postmark
    settings:
      server_token: tok-123
      sender: noreply@example.com
  storage:
    backend: s3
    settings:
      bucket: uploads
      region: eu-west-1
`), 0o600))

		d, err := provider.LoadDefaults(path)
		require.NoError(t, err)
		assert.False(t, d.Sandbox)

		email, ok := d.Providers[provider.CapabilityEmail]
		require.True(t, ok)
		assert.Equal(t, "postmark", email.Backend)
		assert.Equal(t, "tok-123", email.Settings.String("server_token", ""))

		storage, ok := d.Providers[provider.CapabilityStorage]
		require.True(t, ok)
		assert.Equal(t, "s3", storage.Backend)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := provider.LoadDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("providers: [not a map"), 0o600))

		_, err := provider.LoadDefaults(path)
		assert.ErrorIs(t, err, provider.ErrInvalidConfig)
	})

	t.Run("empty file still yields a usable defaults struct", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		d, err := provider.LoadDefaults(path)
		require.NoError(t, err)
		require.NotNil(t, d.Providers)
	})
}
