package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/services"
)

func newSettings(t *testing.T) *services.SettingsService {
	t.Helper()
	return services.NewSettingsService(memory.NewConfigStore())
}

func TestConfigCmd_ShowDefaults(t *testing.T) {
	withServices(t, nil, nil, newSettings(t))

	out, err := runCommand(t, "config")

	require.NoError(t, err)
	assert.Contains(t, out, "[Sync]")
	assert.Contains(t, out, "Scope: (not set)")
	assert.Contains(t, out, "Namespace: "+domain.DefaultNamespace)
	assert.Contains(t, out, "Token: (not set)")
	assert.Contains(t, out, "Data dir: (default)")
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "scope is required")
}

func TestConfigCmd_SetThenShow(t *testing.T) {
	settings := newSettings(t)
	withServices(t, nil, nil, settings)

	out, err := runCommand(t, "config", "set", "sync.scope", "ws-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Set sync.scope")

	_, err = runCommand(t, "config", "set", "remote.token", "secret-token-value")
	require.NoError(t, err)

	out, err = runCommand(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Scope: ws-1")
	assert.Contains(t, out, "Token: secr...alue")
	assert.NotContains(t, out, "secret-token-value")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigCmd_SetRejectsBadValues(t *testing.T) {
	withServices(t, nil, nil, newSettings(t))

	_, err := runCommand(t, "config", "set", "sync.max_attempts", "many")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = runCommand(t, "config", "set", "no.such.key", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown setting")
}

func TestConfigCmd_Keys(t *testing.T) {
	withServices(t, nil, nil, newSettings(t))

	out, err := runCommand(t, "config", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "sync.debounce_ms\n")
	assert.Contains(t, out, "remote.base_url\n")
}

func TestConfigCmd_ServiceNotConfigured(t *testing.T) {
	withServices(t, nil, nil, nil)

	for _, args := range [][]string{{"config"}, {"config", "set", "a.b", "c"}, {"config", "keys"}} {
		_, err := runCommand(t, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"123456789", "1234...6789"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, maskAPIKey(tt.key))
	}
}
