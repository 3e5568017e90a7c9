package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBackend(t *testing.T) {
	cfg, err := ResolveBackend(BackendProfileProduction, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://road2royalty-backend.onrender.com", cfg.BaseURL)
	assert.True(t, cfg.Sleeps)

	cfg, err = ResolveBackend(BackendProfileLocal, map[BackendProfile]string{
		BackendProfileLocal: "http://127.0.0.1:9000",
		BackendProfileLAN:   "http://10.0.0.5:8000",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.BaseURL)
	assert.False(t, cfg.Sleeps)

	_, err = ResolveBackend("staging", nil)
	assert.ErrorContains(t, err, "known: [lan local production]")
}
