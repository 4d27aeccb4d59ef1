package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetsync/internal/config"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger("debug", "json", &buf)
	require.NoError(t, err)

	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"component":"app"`)

	_, err = SetupLogger("loud", "text", &buf)
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BUDGETSYNC_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BUDGETSYNC_TEST_VALUE") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("BUDGETSYNC_TEST_VALUE"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db.sqlite")
	require.NoError(t, os.WriteFile(db, nil, 0o600))

	v := viper.New()
	config.Defaults(v)
	v.Set(config.EnvActualBudgetPath, db)
	v.Set(config.KeyDryRun, true)

	cfg, err := LoadAndValidateConfig(v, nil)
	require.NoError(t, err)
	assert.True(t, cfg.UseLocalBudget())
	assert.True(t, cfg.DryRun)

	v = viper.New()
	config.Defaults(v)
	v.Set(config.EnvActualServerURL, "")
	v.Set(config.EnvActualPassword, "")
	v.Set(config.EnvActualFile, "")
	v.Set(config.EnvActualBudgetPath, "")
	v.Set(config.EnvGoogleSheetID, "")
	_, err = LoadAndValidateConfig(v, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestShutdownContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := ShutdownContext(parent, nil)
	defer stop()

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
