package display

// 趋势序号：1 最快上升 ... 7 最快下降，其它值表示无趋势
var trendArrows = map[int]string{
	1: "\u2191\u2191",
	2: "\u2191",
	3: "\u2197",
	4: "\u2192",
	5: "\u2198",
	6: "\u2193",
	7: "\u2193\u2193",
}

var trendOrdinals = map[string]int{
	"DoubleUp":      1,
	"SingleUp":      2,
	"FortyFiveUp":   3,
	"Flat":          4,
	"FortyFiveDown": 5,
	"SingleDown":    6,
	"DoubleDown":    7,
}

// TrendArrow 趋势序号对应的箭头，未知序号返回空串
func TrendArrow(slopeOrdinal int) string {
	return trendArrows[slopeOrdinal]
}

// SlopeOrdinal Nightscout 方向名 -> 趋势序号，未知方向返回 0
func SlopeOrdinal(direction string) int {
	return trendOrdinals[direction]
}
