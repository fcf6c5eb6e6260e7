package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, baseURL string) {
	t.Helper()
	content := "gateway:\n  base_url: " + baseURL + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "https://gw-one.example.com")

	var mu sync.Mutex
	var reloaded []*Config
	watcher, err := NewWatcher(path, func(cfg *Config) {
		mu.Lock()
		reloaded = append(reloaded, cfg)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	watcher.debounceDur = 50 * time.Millisecond

	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	writeConfig(t, path, "https://gw-two.example.com")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) > 0
	}, 3*time.Second, 20*time.Millisecond, "watcher never reloaded")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "https://gw-two.example.com", reloaded[len(reloaded)-1].Gateway.BaseURL)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "https://gw.example.com")

	var mu sync.Mutex
	count := 0
	watcher, err := NewWatcher(path, func(*Config) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	watcher.debounceDur = 50 * time.Millisecond

	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))

	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count)
}

func TestWatcher_InvalidReloadKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "https://gw.example.com")

	var mu sync.Mutex
	count := 0
	watcher, err := NewWatcher(path, func(*Config) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	watcher.debounceDur = 50 * time.Millisecond

	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	// An invalid backend fails Validate; the callback must not fire.
	require.NoError(t, os.WriteFile(path, []byte("tokens:\n  backend: etcd\n"), 0644))

	time.Sleep(400 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "https://gw.example.com")

	watcher, err := NewWatcher(path, func(*Config) {}, nil)
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background()))

	watcher.Stop()
	assert.NotPanics(t, watcher.Stop)
}
