// Package display 负责手表端显示用的格式化与派生值：单位换算、变化量、趋势箭头、传感器进度。
package display

import "strconv"

// MgDlToMmol mg/dL -> mmol/L 换算系数
const MgDlToMmol = 0.0555

const (
	UnitMgDl = "mg/dL"
	UnitMmol = "mmol/L"
)

// UnitString 返回用户所选单位的显示名
func UnitString(isMgDl bool) string {
	if isMgDl {
		return UnitMgDl
	}
	return UnitMmol
}

// ToUserUnit 将 mg/dL 数值换算为用户单位
func ToUserUnit(mgdl float64, isMgDl bool) float64 {
	if isMgDl {
		return mgdl
	}
	return mgdl * MgDlToMmol
}

// FormatValue 按用户单位格式化：mg/dL 取整，mmol/L 保留一位小数
func FormatValue(mgdl float64, isMgDl bool) string {
	if isMgDl {
		return strconv.FormatFloat(mgdl, 'f', 0, 64)
	}
	return strconv.FormatFloat(mgdl*MgDlToMmol, 'f', 1, 64)
}

// FormatDelta 格式化变化量（输入为 mg/dL）。
// 接近 0 的值统一显示为 "+0" / "+0.0"（Nightscout 约定），避免出现 "-0"；
// 正值加 "+"，负值保留格式化结果中的 "-"。
// mmol/L 的死区按换算后的值判断（|d·0.0555| < 0.1），而不是原始 mg/dL 值，
// 因此 1.5 mg/dL 显示为 "+0.0"，也不会出现 "-0.0"。
func FormatDelta(deltaMgDl float64, isMgDl bool) string {
	if isMgDl {
		if deltaMgDl > -1 && deltaMgDl < 1 {
			return "+0"
		}
	} else {
		mmol := deltaMgDl * MgDlToMmol
		if mmol > -0.1 && mmol < 0.1 {
			return "+0.0"
		}
	}

	value := FormatValue(deltaMgDl, isMgDl)
	if deltaMgDl > 0 {
		return "+" + value
	}
	return value
}
