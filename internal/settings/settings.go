// Package settings 加载用户显示设置（阈值、单位、图表类型），支持热更新。
package settings

import (
	"fmt"
	"os"
	"sync"

	"xdrip-watch/internal/chart"
	"xdrip-watch/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	UnitMgDl = "mgdl"
	UnitMmol = "mmol"
)

// Settings 用户设置；阈值始终以 mg/dL 保存
type Settings struct {
	Unit       string              `yaml:"unit"`
	Thresholds models.ThresholdSet `yaml:"thresholds"`
	ChartType  string              `yaml:"chart_type"`
	// HistoryHours 下发给手表的历史时长
	HistoryHours float64 `yaml:"history_hours"`
}

// Default 默认设置
func Default() *Settings {
	return &Settings{
		Unit: UnitMgDl,
		Thresholds: models.ThresholdSet{
			UrgentLow:  60,
			Low:        80,
			High:       180,
			UrgentHigh: 250,
		},
		ChartType:    chart.Watch.Name,
		HistoryHours: 12,
	}
}

// IsMgDl 是否使用 mg/dL
func (s *Settings) IsMgDl() bool {
	return s.Unit != UnitMmol
}

// Chart 对应的图表类型，未知名称回落到 watch
func (s *Settings) Chart() chart.Type {
	if ct, ok := chart.TypeByName(s.ChartType); ok {
		return ct
	}
	return chart.Watch
}

// Load 读取 YAML 设置文件；缺省字段使用默认值
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("settings: %s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.Unit != UnitMgDl && s.Unit != UnitMmol {
		return fmt.Errorf("unknown unit %q", s.Unit)
	}
	if _, ok := chart.TypeByName(s.ChartType); !ok {
		return fmt.Errorf("unknown chart_type %q", s.ChartType)
	}
	if s.HistoryHours <= 0 {
		return fmt.Errorf("history_hours must be positive, got %v", s.HistoryHours)
	}
	return s.Thresholds.Validate()
}

// Store 并发安全的当前设置
type Store struct {
	mu  sync.RWMutex
	cur *Settings
}

// NewStore 以初始设置创建 Store；nil 时使用默认值
func NewStore(initial *Settings) *Store {
	if initial == nil {
		initial = Default()
	}
	return &Store{cur: initial}
}

// Get 当前设置（只读，勿修改）
func (s *Store) Get() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Set 替换当前设置
func (s *Store) Set(next *Settings) {
	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()
}
