package xlsx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"salesheet/internal/catalog"
	"salesheet/internal/core"
	"salesheet/internal/sheets"
)

const (
	templateEntryRows   = 100
	templateSummaryDays = 30
	chartsSheet         = "Charts & Reports"
)

var entryColumnWidths = []float64{12, 20, 15, 12, 12, 15, 15, 15}

// CreateTemplate writes a blank data-entry workbook: a validated Sales Entry
// sheet with total formulas, formula-driven Daily Summary and Product Analysis
// sheets and an instructions sheet. Summary dates cover templateSummaryDays
// days starting at start.
func CreateTemplate(path string, cat *catalog.Catalog, start core.Date) error {
	f := excelize.NewFile()
	defer f.Close()

	steps := []func() error{
		func() error { return templateSalesEntry(f, cat) },
		func() error { return templateDailySummary(f, start) },
		func() error { return templateProductAnalysis(f, cat) },
		func() error { return templateCharts(f) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("build template: %w", err)
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("build template: %w", err)
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create template directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save template %s: %w", path, err)
	}
	return nil
}

func templateSalesEntry(f *excelize.File, cat *catalog.Catalog) error {
	sheet := sheets.SalesEntrySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := make([]any, len(sheets.SalesEntryHeaders))
	for i, h := range sheets.SalesEntryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", style); err != nil {
		return err
	}
	for i, w := range entryColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	last := templateEntryRows + 1
	for row := 2; row <= last; row++ {
		formula := fmt.Sprintf(`IF(D%d="","",ROUND(D%d*E%d,2))`, row, row, row)
		if err := f.SetCellFormula(sheet, fmt.Sprintf("F%d", row), formula); err != nil {
			return err
		}
	}

	var categories []string
	for _, c := range cat.Categories() {
		categories = append(categories, string(c))
	}
	var payments []string
	for _, p := range cat.PaymentMethods() {
		payments = append(payments, string(p))
	}
	var customers []string
	for _, c := range cat.CustomerTypes() {
		customers = append(customers, string(c))
	}
	lists := []struct {
		col    string
		values []string
	}{
		{"C", categories},
		{"G", payments},
		{"H", customers},
	}
	for _, l := range lists {
		dv := excelize.NewDataValidation(true)
		dv.SetSqref(fmt.Sprintf("%s2:%s%d", l.col, l.col, last))
		if err := dv.SetDropList(l.values); err != nil {
			return err
		}
		if err := f.AddDataValidation(sheet, dv); err != nil {
			return err
		}
	}

	qty := excelize.NewDataValidation(true)
	qty.SetSqref(fmt.Sprintf("D2:D%d", last))
	if err := qty.SetRange(1, 1000, excelize.DataValidationTypeWhole, excelize.DataValidationOperatorBetween); err != nil {
		return err
	}
	return f.AddDataValidation(sheet, qty)
}

func templateDailySummary(f *excelize.File, start core.Date) error {
	sheet := sheets.DailySummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := titleRow(f, sheet, "Daily Sales Summary", "F"); err != nil {
		return err
	}
	if err := subHeaderRow(f, sheet, sheets.DailySummaryHeaders, "D9E1F2"); err != nil {
		return err
	}
	for i := 0; i < templateSummaryDays; i++ {
		row := i + 4
		day := start.AddDate(0, 0, i).Format(core.DateLayout)
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), day); err != nil {
			return err
		}
		formulas := map[string]string{
			"B": fmt.Sprintf(`SUMIF('Sales Entry'!A:A,A%d,'Sales Entry'!F:F)`, row),
			"C": fmt.Sprintf(`COUNTIF('Sales Entry'!A:A,A%d)`, row),
			"D": fmt.Sprintf(`IF(C%d>0,ROUND(B%d/C%d,2),0)`, row, row, row),
			"E": fmt.Sprintf(`SUMIF('Sales Entry'!A:A,A%d,'Sales Entry'!D:D)`, row),
		}
		for col, formula := range formulas {
			if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", col, row), formula); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheet, "A", "F", 18)
}

func templateProductAnalysis(f *excelize.File, cat *catalog.Catalog) error {
	sheet := sheets.ProductAnalysisSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := titleRow(f, sheet, "Product Performance Analysis", "G"); err != nil {
		return err
	}
	if err := subHeaderRow(f, sheet, sheets.ProductAnalysisHeaders, "E2EFDA"); err != nil {
		return err
	}
	row := 4
	for _, c := range cat.Categories() {
		for _, p := range cat.Products(c) {
			if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p); err != nil {
				return err
			}
			formulas := map[string]string{
				"B": fmt.Sprintf(`SUMIF('Sales Entry'!B:B,A%d,'Sales Entry'!D:D)`, row),
				"C": fmt.Sprintf(`SUMIF('Sales Entry'!B:B,A%d,'Sales Entry'!F:F)`, row),
				"G": fmt.Sprintf(`COUNTIF('Sales Entry'!B:B,A%d)`, row),
				"D": fmt.Sprintf(`IF(G%d>0,ROUND(C%d/G%d,2),0)`, row, row, row),
			}
			for col, formula := range formulas {
				if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", col, row), formula); err != nil {
					return err
				}
			}
			row++
		}
	}
	return f.SetColWidth(sheet, "A", "G", 16)
}

func templateCharts(f *excelize.File) error {
	if _, err := f.NewSheet(chartsSheet); err != nil {
		return err
	}
	if err := titleRow(f, chartsSheet, "Sales Charts and Visualizations", "H"); err != nil {
		return err
	}
	lines := []string{
		"Chart Instructions:",
		"1. Run `salesheet analyze` to generate charts and the text report",
		"2. Insert pivot charts for dynamic analysis",
		"3. View trend analysis in the visualizations folder",
	}
	for i, l := range lines {
		if err := f.SetCellValue(chartsSheet, fmt.Sprintf("A%d", i+3), l); err != nil {
			return err
		}
	}
	return nil
}

func titleRow(f *excelize.File, sheet, title, lastCol string) error {
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", "A1", style)
}

// subHeaderRow writes column headers on row 3, below the title.
func subHeaderRow(f *excelize.File, sheet string, headers []string, fill string) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A3", &row); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 3)
	return f.SetCellStyle(sheet, "A3", last, style)
}
