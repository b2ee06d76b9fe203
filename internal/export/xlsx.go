package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
)

// ContentTypeXLSX is the media type of a workbook download.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "设备清单"

var columnWidths = []float64{18, 10, 24, 18, 12, 14, 12, 12, 12, 10, 12, 12, 10, 40}

// Workbook renders assets as a single-sheet XLSX file.
func Workbook(assets []models.Asset) ([]byte, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet(sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(sheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for rowIdx, record := range Records(assets) {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &record); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", rowIdx+1, err)
		}
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
