package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharleen10/todolist/internal/config"
	"github.com/Sharleen10/todolist/internal/logging"
)

func resolveWith(t *testing.T, args ...string) *config.Config {
	t.Helper()
	v := viper.New()
	require.NoError(t, newRootCmd(v).ParseFlags(args))
	cfg, err := resolveConfig(v)
	require.NoError(t, err)
	return cfg
}

func TestResolveConfig_Layers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todolist.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\nstore:\n  driver: memory\n"), 0o644))

	t.Setenv("TODOLIST_STORE", "")
	t.Setenv("TODOLIST_ADDR", "")
	t.Setenv("PORT", "")

	t.Run("file only", func(t *testing.T) {
		cfg := resolveWith(t, "--config", path)
		assert.Equal(t, ":7000", cfg.Server.Addr)
		assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("TODOLIST_ADDR", ":7100")
		cfg := resolveWith(t, "--config", path)
		assert.Equal(t, ":7100", cfg.Server.Addr)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("TODOLIST_ADDR", ":7100")
		cfg := resolveWith(t, "--config", path, "--addr", ":7200", "--store", "sqlite", "--data-dir", "/tmp/x")
		assert.Equal(t, ":7200", cfg.Server.Addr)
		assert.Equal(t, config.StoreSQLite, cfg.Store.Driver)
		assert.Equal(t, "/tmp/x/tasks.db", cfg.Store.SQLitePath)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := resolveWith(t)
		assert.Equal(t, ":5000", cfg.Server.Addr)
		assert.Equal(t, config.StoreFile, cfg.Store.Driver)
	})
}

func TestResolveConfig_RejectsUnknownStore(t *testing.T) {
	t.Setenv("TODOLIST_STORE", "")
	v := viper.New()
	require.NoError(t, newRootCmd(v).ParseFlags([]string{"--store", "redis"}))

	_, err := resolveConfig(v)
	assert.ErrorContains(t, err, "unknown driver")
}

func TestServe_HealthAndGracefulShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.StoreMemory

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, ln, logging.Discard()) }()

	var res *http.Response
	require.Eventually(t, func() bool {
		res, err = http.Get(base + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	_ = res.Body.Close()

	res, err = http.Post(base+"/api/tasks", "application/json", strings.NewReader(`{"title":"Buy milk"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	var created map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.EqualValues(t, 1, created["id"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
