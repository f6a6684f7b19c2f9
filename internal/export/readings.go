// Package export 生成血糖读数的 Excel 导出文件。
package export

import (
	"bytes"
	"fmt"

	"xdrip-watch/internal/display"
	"xdrip-watch/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Readings"

// ReadingsHeader 导出表头
var ReadingsHeader = []string{
	"Time",
	"Value",
	"Unit",
	"Band",
	"Trend",
}

// Options 导出选项
type Options struct {
	IsMgDl     bool
	Thresholds models.ThresholdSet
	TimeFormat string // 默认 2006-01-02 15:04
}

// Readings 生成读数导出 Excel 文件；数值按用户单位显示，分级按 mg/dL 阈值计算
func Readings(readings []models.Reading, opts Options) ([]byte, error) {
	if opts.TimeFormat == "" {
		opts.TimeFormat = "2006-01-02 15:04"
	}

	f := excelize.NewFile()
	// WriteTo 需要文件保持打开，出错路径上手动 Close

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ReadingsHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{20, 10, 10, 10, 16}
	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	unit := display.UnitString(opts.IsMgDl)
	for i, rd := range readings {
		row := []interface{}{
			rd.Timestamp.Format(opts.TimeFormat),
			display.FormatValue(rd.Value, opts.IsMgDl),
			unit,
			string(opts.Thresholds.Classify(rd.Value)),
			rd.Trend,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2) // 第1行是表头
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}
