package storage_test

import (
	"testing"

	"chatkit/src/config"
	"chatkit/src/models"
	"chatkit/src/services/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	k := storage.Keys{Prefix: "acme"}
	assert.Equal(t, "acme-data", k.Data())
	assert.Equal(t, "acme-theme", k.Theme())
}

func TestOpen(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendPebble, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			s, err := storage.Open(backend, t.TempDir())
			require.NoError(t, err)
			defer s.Close()
			require.NoError(t, s.Set("k", "v"))
			v, ok, err := s.Get("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", v)
		})
	}

	_, err := storage.Open("redis", t.TempDir())
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}
