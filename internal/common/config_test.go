package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "receipts.db", cfg.Store.DSN)
	assert.Equal(t, 3*time.Second, cfg.Store.DialTimeout)
	assert.Equal(t, "https://api.together.xyz/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "meta-llama/Llama-Vision-Free", cfg.LLM.Model)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, "receipts.xlsx", cfg.Export.Output)
	assert.Equal(t, []string{"./inbox"}, cfg.Watch.Roots)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAMLAndEnv(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  dsn: postgres://localhost/receipts
pipeline:
  workers: 4
log:
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("RECEIPTS_PIPELINE_WORKERS", "8")
	t.Setenv("RECEIPTS_LLM_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/receipts", cfg.Store.DSN)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "console", cfg.Log.Format)
	// defaults still apply for unset values
	assert.Equal(t, 64, cfg.Pipeline.QueueSize)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	chdirTemp(t)

	_, err := Load("nope.yaml")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Store.Driver = "mysql"
	cfg.Pipeline.Workers = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "store.driver")
	assert.Contains(t, appErr.Message, "pipeline.workers")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestContextIDs(t *testing.T) {
	ctx := WithDocumentID(WithRequestID(t.Context(), "req-1"), "doc-1")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "doc-1", DocumentIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(t.Context()))
}

func TestDatabaseError(t *testing.T) {
	assert.NoError(t, DatabaseError("get", nil))

	err := DatabaseError("get price", os.ErrClosed)
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Contains(t, err.Error(), "get price")
}
