package chart

import (
	"slices"
	"time"

	"xdrip-watch/internal/models"
)

const (
	// 无读数时 y 轴的默认上下界（mg/dL）
	defaultDomainMin = 40
	defaultDomainMax = 400
	domainPadding    = 6

	// 占位点：固定 x 轴范围，不显示
	phantomValue       = 100
	phantomTrailingGap = 5 * time.Minute
)

// RuleKind 阈值线类型
type RuleKind string

const (
	RuleUrgent RuleKind = "urgent"
	RuleLimit  RuleKind = "limit"
)

// Domain y 轴范围（闭区间）
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains 判断 v 是否落在范围内
func (d Domain) Contains(v float64) bool {
	return v >= d.Min && v <= d.Max
}

// RuleLine 水平阈值线
type RuleLine struct {
	Value float64  `json:"value"`
	Kind  RuleKind `json:"kind"`
}

// Point 图表上的一个点；Phantom 点仅用于撑开 x 轴
type Point struct {
	Timestamp time.Time   `json:"timestamp"`
	Value     float64     `json:"value"`
	Band      models.Band `json:"band,omitempty"`
	Phantom   bool        `json:"phantom,omitempty"`
}

// Model 一次渲染所需的全部图表数据，每次调用重新计算
type Model struct {
	Type   string      `json:"type"`
	Domain Domain      `json:"domain"`
	Rules  []RuleLine  `json:"rules"`
	Points []Point     `json:"points"`
	Ticks  []time.Time `json:"ticks"`
}

// YDomain 计算 y 轴范围：覆盖所有读数与两条 urgent 线，上下各留 6
func YDomain(values []float64, t models.ThresholdSet) Domain {
	lo, hi := float64(defaultDomainMin), float64(defaultDomainMax)
	if len(values) > 0 {
		lo, hi = slices.Min(values), slices.Max(values)
	}
	return Domain{
		Min: min(lo, t.UrgentLow) - domainPadding,
		Max: max(hi, t.UrgentHigh) + domainPadding,
	}
}

// RuleLines 返回落在 domain 内的阈值线
func RuleLines(d Domain, t models.ThresholdSet) []RuleLine {
	candidates := []RuleLine{
		{Value: t.UrgentLow, Kind: RuleUrgent},
		{Value: t.UrgentHigh, Kind: RuleUrgent},
		{Value: t.Low, Kind: RuleLimit},
		{Value: t.High, Kind: RuleLimit},
	}
	rules := make([]RuleLine, 0, len(candidates))
	for _, r := range candidates {
		if d.Contains(r.Value) {
			rules = append(rules, r)
		}
	}
	return rules
}

// Build 由完整序列生成图表模型
func Build(s models.Series, t models.ThresholdSet, ct Type, now time.Time) Model {
	lookback := ct.Lookback()
	window := FilterWindow(s, lookback, now)
	domain := YDomain(window.Values, t)

	points := make([]Point, 0, window.Len()+2)
	points = append(points, Point{Timestamp: now.Add(-lookback), Value: phantomValue, Phantom: true})
	for i := 0; i < window.Len(); i++ {
		points = append(points, Point{
			Timestamp: window.Dates[i],
			Value:     window.Values[i],
			Band:      t.Classify(window.Values[i]),
		})
	}
	points = append(points, Point{Timestamp: now.Add(phantomTrailingGap), Value: phantomValue, Phantom: true})

	return Model{
		Type:   ct.Name,
		Domain: domain,
		Rules:  RuleLines(domain, t),
		Points: points,
		Ticks:  AxisTicks(window.Dates, lookback, ct.IntervalBetweenAxisValues, now),
	}
}
