package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/boardsync/internal/logger"
)

func TestRootCmd_GlobalFlags(t *testing.T) {
	verbose := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config-dir"))
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"status", "queue", "history", "flush", "retry", "create", "rename", "delete", "watch", "config", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestSetup_BootstrapsServices(t *testing.T) {
	withServices(t, nil, nil, nil)

	var got Options
	cleaned := false
	engine := newMockEngine()
	SetBootstrap(func(_ context.Context, opts Options) (*Services, func(), error) {
		got = opts
		return &Services{Engine: engine, History: &mockHistory{}}, func() { cleaned = true }, nil
	})

	out, err := runCommand(t, "status", "--config-dir", "/tmp/boardsync-test")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:")
	assert.Equal(t, "/tmp/boardsync-test", got.ConfigDir)
	assert.False(t, got.SettingsOnly)
	assert.Same(t, engine, syncEngine)

	teardown()
	assert.True(t, cleaned)
}

func TestSetup_SettingsOnlyCommands(t *testing.T) {
	withServices(t, nil, nil, nil)

	var got Options
	SetBootstrap(func(_ context.Context, opts Options) (*Services, func(), error) {
		got = opts
		return &Services{Settings: newSettings(t)}, nil, nil
	})

	_, err := runCommand(t, "config", "keys")
	require.NoError(t, err)
	assert.True(t, got.SettingsOnly)
	teardown()
}

func TestSetup_InspectCommandsAreReadOnly(t *testing.T) {
	tests := []struct {
		args     []string
		readOnly bool
	}{
		{[]string{"status"}, true},
		{[]string{"queue"}, true},
		{[]string{"history"}, true},
		{[]string{"flush"}, false},
		{[]string{"retry"}, false},
		{[]string{"rename", "c1", "New name"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			withServices(t, nil, nil, nil)

			var got Options
			SetBootstrap(func(_ context.Context, opts Options) (*Services, func(), error) {
				got = opts
				return &Services{Engine: newMockEngine(), History: &mockHistory{}}, nil, nil
			})

			_, err := runCommand(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.readOnly, got.ReadOnly)
			assert.False(t, got.SettingsOnly)
			teardown()
		})
	}
}

func TestSetup_VersionSkipsBootstrap(t *testing.T) {
	withServices(t, nil, nil, nil)

	called := false
	SetBootstrap(func(context.Context, Options) (*Services, func(), error) {
		called = true
		return nil, nil, errors.New("should not run")
	})

	_, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.False(t, called)
}

func TestSetup_BootstrapError(t *testing.T) {
	withServices(t, nil, nil, nil)
	SetBootstrap(func(context.Context, Options) (*Services, func(), error) {
		return nil, nil, errors.New("no scope configured")
	})

	_, err := runCommand(t, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scope configured")
}

func TestSetup_VerboseFlag(t *testing.T) {
	withServices(t, newMockEngine(), nil, nil)
	defer logger.SetVerbose(false)

	_, err := runCommand(t, "status", "-v")
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}
