package chart

import "time"

// Type 图表类型：显示多少小时、坐标轴刻度间隔（小时）
type Type struct {
	Name                      string  `json:"name"`
	HoursToShow               float64 `json:"hours_to_show"`
	IntervalBetweenAxisValues int     `json:"interval_between_axis_values"`
}

var (
	// Watch 表盘主图
	Watch = Type{Name: "watch", HoursToShow: 4, IntervalBetweenAxisValues: 1}
	// Widget 小组件
	Widget = Type{Name: "widget", HoursToShow: 6, IntervalBetweenAxisValues: 1}
	// Extended 12 小时全量（手机端下发的全部数据）
	Extended = Type{Name: "extended", HoursToShow: 12, IntervalBetweenAxisValues: 2}
)

var types = map[string]Type{
	Watch.Name:    Watch,
	Widget.Name:   Widget,
	Extended.Name: Extended,
}

// TypeByName 按名称查找图表类型
func TypeByName(name string) (Type, bool) {
	t, ok := types[name]
	return t, ok
}

// Lookback 回看时长
func (t Type) Lookback() time.Duration {
	return time.Duration(t.HoursToShow * float64(time.Hour))
}
