package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	calls := 0
	var logged []error
	err := Retry(context.Background(), time.Millisecond, 5, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, func(err error) { logged = append(logged, err) })
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, logged, 2)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Retry(context.Background(), time.Millisecond, 3, func(context.Context) error {
		calls++
		return boom
	}, func(error) {})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, time.Hour, 3, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	}, func(error) {})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "down")
	assert.Equal(t, 1, calls)
}

func TestRetryRejectsBadWait(t *testing.T) {
	err := Retry(context.Background(), 0, 3, func(context.Context) error {
		t.Fatal("action must not run")
		return nil
	}, func(error) {})
	assert.Error(t, err)
}

func TestEnvironmentVariablesReportsMissing(t *testing.T) {
	assert.NoError(t, TestEnvironmentVariables("STARKNET_RPC_URL", "http://localhost:5050"))

	err := TestEnvironmentVariables("STARKNET_RPC_URL", "", "VRF_SECRET_KEY", "0x1", "VRF_ACCOUNT_ADDRESS", "")
	assert.EqualError(t, err, "missing STARKNET_RPC_URL,VRF_ACCOUNT_ADDRESS environment variable(s)")

	assert.Error(t, TestEnvironmentVariables("ODD"))
}

func TestSetLogger(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	for env, level := range map[string]log.Level{"debug": log.DebugLevel, "info": log.InfoLevel, "": log.WarnLevel} {
		SetLogger(env)
		assert.Equal(t, level, log.GetLevel(), env)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VRF_TEST_LOADED=yes\nVRF_TEST_KEPT=file\n"), 0o600))
	t.Setenv("VRF_TEST_KEPT", "shell")
	t.Setenv("VRF_TEST_LOADED", "")
	require.NoError(t, os.Unsetenv("VRF_TEST_LOADED"))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "yes", os.Getenv("VRF_TEST_LOADED"))
	assert.Equal(t, "shell", os.Getenv("VRF_TEST_KEPT"))

	assert.Equal(t, "flag", FlagOrEnv("flag", "VRF_TEST_KEPT"))
	assert.Equal(t, "shell", FlagOrEnv("", "VRF_TEST_KEPT"))
}
