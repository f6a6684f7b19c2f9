package models

import (
	"errors"
	"sort"
	"time"
)

// ErrSeriesLengthMismatch values 与 dates 长度不一致
var ErrSeriesLengthMismatch = errors.New("glucose series: values and dates differ in length")

// Reading 单条血糖读数（mg/dL）
type Reading struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	// Trend Nightscout 方向名，如 "Flat"、"SingleUp"
	Trend string `json:"trend,omitempty"`
}

// Series 血糖序列：两个等长的平行序列，顺序由调用方决定（通常最新在前）
type Series struct {
	Values []float64
	Dates  []time.Time
}

// NewSeries 由读数构造序列，保持读数原有顺序
func NewSeries(readings []Reading) Series {
	s := Series{
		Values: make([]float64, 0, len(readings)),
		Dates:  make([]time.Time, 0, len(readings)),
	}
	for _, r := range readings {
		s.Values = append(s.Values, r.Value)
		s.Dates = append(s.Dates, r.Timestamp)
	}
	return s
}

// Validate 检查 len(Values) == len(Dates)
func (s Series) Validate() error {
	if len(s.Values) != len(s.Dates) {
		return ErrSeriesLengthMismatch
	}
	return nil
}

// Len 返回可配对的元素数量
func (s Series) Len() int {
	return min(len(s.Values), len(s.Dates))
}

// Readings 按索引配对转换为读数
func (s Series) Readings() []Reading {
	n := s.Len()
	out := make([]Reading, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Reading{Value: s.Values[i], Timestamp: s.Dates[i]})
	}
	return out
}

// Clone 深拷贝
func (s Series) Clone() Series {
	return Series{
		Values: append([]float64(nil), s.Values...),
		Dates:  append([]time.Time(nil), s.Dates...),
	}
}

// SortNewestFirst 按时间倒序排列读数（原地）
func SortNewestFirst(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})
}
