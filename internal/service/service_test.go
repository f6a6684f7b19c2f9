package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xdrip-watch/internal/config"
	"xdrip-watch/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCompanionService_RejectsUnknownSourceMode(t *testing.T) {
	cfg := &config.CompanionConfig{}
	cfg.Companion.SourceMode = "carrier-pigeon"

	_, err := NewCompanionService(cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source mode")
}

func TestNewCompanionService_NightscoutRequiresURL(t *testing.T) {
	cfg := &config.CompanionConfig{}
	cfg.Companion.SourceMode = SourceModeNightscout

	_, err := NewCompanionService(cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NIGHTSCOUT_URL")
}

func TestLoadSettings(t *testing.T) {
	store, err := loadSettings("", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, settings.Default(), store.Get())

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unit: mmol\nchart_type: widget\n"), 0o644))
	store, err = loadSettings(path, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, store.Get().IsMgDl())
	assert.Equal(t, "widget", store.Get().Chart().Name)

	_, err = loadSettings(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	assert.Error(t, err)
}

func TestWatchSettings_AppliesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unit: mgdl\n"), 0o644))

	store := settings.NewStore(nil)
	changed := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watchSettings(ctx, path, store, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, zap.NewNop())

	// 等待 watcher 就绪后重复写入，直到观察到变化
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("unit: mmol\n"), 0o644)
		return !store.Get().IsMgDl()
	}, 3*time.Second, 50*time.Millisecond)
	<-changed
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
