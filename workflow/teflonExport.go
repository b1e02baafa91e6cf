package workflow

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var teflonExportHeaders = []string{
	"MoldId", "Name", "Status", "RequestedBy", "Handler",
	"RequestedDate", "ExpectedDate", "ReceivedDate", "Supplier", "Notes",
}

// BuildTeflonStatusWorkbook renders the given view rows into an xlsx
// workbook for the export download and the ops export tool.
func BuildTeflonStatusWorkbook(rows []*TeflonState) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Sheet1"
	if _, err := f.NewSheet(sheetName); err != nil {
		return nil, err
	}

	col := 'A'
	for _, h := range teflonExportHeaders {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	for i, row := range rows {
		rowNo := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+rowNo, row.MoldId)
		f.SetCellValue(sheetName, "B"+rowNo, row.MoldName)
		f.SetCellValue(sheetName, "C"+rowNo, row.StatusLabel)
		f.SetCellValue(sheetName, "D"+rowNo, row.RequestedByName)
		f.SetCellValue(sheetName, "E"+rowNo, row.HandledByName)
		f.SetCellValue(sheetName, "F"+rowNo, row.RequestedDate)
		f.SetCellValue(sheetName, "G"+rowNo, row.ExpectedDate)
		f.SetCellValue(sheetName, "H"+rowNo, row.ReceivedDate)
		f.SetCellValue(sheetName, "I"+rowNo, row.SupplierName)
		f.SetCellValue(sheetName, "J"+rowNo, row.Notes)
	}

	return f, nil
}
