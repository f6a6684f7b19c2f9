package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xdrip-watch/internal/chart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, "unit: mmol\nthresholds:\n  high: 200\n")

	s, err := Load(path)
	require.NoError(t, err)

	assert.False(t, s.IsMgDl())
	assert.Equal(t, 200.0, s.Thresholds.High)
	assert.Equal(t, 60.0, s.Thresholds.UrgentLow)
	assert.Equal(t, 250.0, s.Thresholds.UrgentHigh)
	assert.Equal(t, chart.Watch, s.Chart())
	assert.Equal(t, 12.0, s.HistoryHours)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad yaml":   "unit: [",
		"bad unit":   "unit: furlongs\n",
		"bad chart":  "chart_type: radar\n",
		"bad limits": "thresholds:\n  low: 300\n",
		"bad hours":  "history_hours: 0\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".yaml")
		writeFile(t, path, content)
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	s := NewStore(nil)
	assert.Equal(t, Default(), s.Get())

	next := Default()
	next.ChartType = chart.Extended.Name
	s.Set(next)
	assert.Equal(t, chart.Extended, s.Get().Chart())
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, "unit: mgdl\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Settings, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(s *Settings) {
			select {
			case changes <- s:
			default:
			}
		}, zap.NewNop())
	}()

	// 等待 watcher 就绪后再写入
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "unit: mmol\nchart_type: widget\n")

	// 截断与写入可能产生多次事件，取到最终内容为止
	deadline := time.After(5 * time.Second)
	for observed := false; !observed; {
		select {
		case s := <-changes:
			if !s.IsMgDl() {
				assert.Equal(t, chart.Widget, s.Chart())
				observed = true
			}
		case <-deadline:
			t.Fatal("settings change not observed")
		}
	}

	cancel()
	require.NoError(t, <-done)
}

// saveAtomically 先写临时文件再 rename 覆盖，模拟编辑器的原子保存
func saveAtomically(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	writeFile(t, tmp, content)
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatch_ReloadsAfterAtomicSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, "unit: mgdl\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Settings, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(s *Settings) {
			select {
			case changes <- s:
			default:
			}
		}, zap.NewNop())
	}()

	time.Sleep(100 * time.Millisecond)

	// 每次保存都必须被观察到，替换 inode 后监听不能失效
	for i, unit := range []string{UnitMmol, UnitMgDl, UnitMmol} {
		saveAtomically(t, path, "unit: "+unit+"\n")

		deadline := time.After(5 * time.Second)
		for observed := false; !observed; {
			select {
			case s := <-changes:
				observed = s.Unit == unit
			case <-deadline:
				t.Fatalf("save %d (unit=%s) not observed", i+1, unit)
			}
		}
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_IgnoresOtherFilesAndUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	writeFile(t, path, "unit: mgdl\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Settings, 16)
	go func() {
		_ = Watch(ctx, path, func(s *Settings) { changes <- s }, zap.NewNop())
	}()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "other.yaml"), "unit: mmol\n")
	writeFile(t, path, "unit: mgdl\n")

	select {
	case s := <-changes:
		t.Fatalf("unexpected reload: %+v", s)
	case <-time.After(300 * time.Millisecond):
	}
}
