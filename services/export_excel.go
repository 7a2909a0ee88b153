package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	excelHeaderRow    = 5
	excelFirstDataRow = 6
	excelNumFmtMoney  = 4 // #,##0.00
)

// Summary labels written below the data rows.
const (
	SummaryGrandTotal = "Grand Total"
	SummaryOverheads  = "Total Overheads"
	SummaryProfit     = "Total Profit"
)

// ExportToSpreadsheet encodes the forest as an xlsx workbook.
func ExportToSpreadsheet(forest Forest, cols ColumnSet, meta ExportMeta) ([]byte, error) {
	return GenerateSpreadsheet(BuildExportData(forest, cols, meta))
}

// GenerateSpreadsheet creates an Excel file from the given ExportData and
// returns the file contents as a byte slice.
func GenerateSpreadsheet(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := sheetNameFor(data.Title)

	// Rename default sheet.
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	// "#" and "Description" always come first, then the visible columns.
	lastColNum := 2 + len(data.Columns)
	lastCol, err := excelize.ColumnNumberToName(lastColNum)
	if err != nil {
		return nil, fmt.Errorf("last column: %w", err)
	}

	// Set column widths.
	if err := f.SetColWidth(sheetName, "A", "A", 8); err != nil {
		return nil, fmt.Errorf("set col width A: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 44); err != nil {
		return nil, fmt.Errorf("set col width B: %w", err)
	}
	if lastColNum > 2 {
		if err := f.SetColWidth(sheetName, "C", lastCol, 15); err != nil {
			return nil, fmt.Errorf("set value col widths: %w", err)
		}
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	// ── Header Rows (1-4) ───────────────────────────────────────────────

	mergedLine := func(row int, value string, style int) error {
		first := fmt.Sprintf("A%d", row)
		last := fmt.Sprintf("%s%d", lastCol, row)
		if lastCol != "A" {
			if err := f.MergeCell(sheetName, first, last); err != nil {
				return fmt.Errorf("merge row %d: %w", row, err)
			}
		}
		f.SetCellValue(sheetName, first, value)
		return f.SetCellStyle(sheetName, first, last, style)
	}

	if err := mergedLine(1, sanitizeExcelCell(data.Title), styles.title); err != nil {
		return nil, err
	}
	if data.Reference != "" {
		if err := mergedLine(2, "Ref: "+sanitizeExcelCell(data.Reference), styles.subtitle); err != nil {
			return nil, err
		}
	}
	if err := mergedLine(3, "Generated: "+data.GeneratedAt.Format("02 Jan 2006 15:04"), styles.subtitle); err != nil {
		return nil, err
	}
	if !data.Filter.IsZero() {
		if err := mergedLine(4, sanitizeExcelCell(describeFilter(data.Filter)), styles.subtitle); err != nil {
			return nil, err
		}
	}

	// ── Column Headers ──────────────────────────────────────────────────

	headers := []string{"#", "Description"}
	for _, c := range data.Columns {
		headers = append(headers, c.Label())
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, excelHeaderRow)
		f.SetCellValue(sheetName, cell, h)
	}
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", excelHeaderRow), fmt.Sprintf("%s%d", lastCol, excelHeaderRow), styles.header)

	// ── Data Rows ───────────────────────────────────────────────────────

	row := excelFirstDataRow
	for _, r := range data.Rows {
		textStyle, numStyle := styles.subText, styles.subNumber
		if r.Level == LevelStructure {
			textStyle, numStyle = styles.mainText, styles.mainNumber
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.Index)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), sanitizeExcelCell(indentName(r.Name, r.Level)))
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), textStyle)

		for i, c := range data.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+3, row)
			style := numStyle
			switch {
			case !r.Shows(c):
				style = textStyle
			case c == ColUnit:
				f.SetCellValue(sheetName, cell, sanitizeExcelCell(r.Unit))
				style = textStyle
			default:
				f.SetCellValue(sheetName, cell, r.Value(c))
			}
			f.SetCellStyle(sheetName, cell, cell, style)
		}
		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	// Skip a blank row.
	row++

	summary := []struct {
		label string
		value float64
	}{
		{SummaryGrandTotal, data.GrandTotal()},
		{SummaryOverheads, data.Totals.Overheads},
		{SummaryProfit, data.Totals.Profit},
	}
	for _, s := range summary {
		label := fmt.Sprintf("B%d", row)
		value := fmt.Sprintf("C%d", row)
		f.SetCellValue(sheetName, label, s.label)
		f.SetCellStyle(sheetName, label, label, styles.summaryLabel)
		f.SetCellValue(sheetName, value, s.value)
		f.SetCellStyle(sheetName, value, value, styles.summaryValue)
		row++
	}

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

type sheetStyles struct {
	title, subtitle, header    int
	mainText, mainNumber       int
	subText, subNumber         int
	summaryLabel, summaryValue int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	moneyFmt := excelNumFmtMoney

	defs := []struct {
		name  string
		dst   *int
		style *excelize.Style
	}{
		{"title", &s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{"subtitle", &s.subtitle, &excelize.Style{Font: &excelize.Font{Size: 11}}},
		{"header", &s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{"main text", &s.mainText, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: thinBorders()}},
		{"main number", &s.mainNumber, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: thinBorders(), NumFmt: moneyFmt}},
		{"sub text", &s.subText, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{"sub number", &s.subNumber, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), NumFmt: moneyFmt}},
		{"summary label", &s.summaryLabel, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{"summary value", &s.summaryValue, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, NumFmt: moneyFmt}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return s, nil
}

// sheetNameFor turns a title into a valid sheet name (max 31 chars, no
// []:*?/\ characters). An empty title yields "Estimate".
func sheetNameFor(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")

	runes := []rune(name)
	if len(runes) > 31 {
		name = string(runes[:31])
	}
	if name == "" {
		name = "Estimate"
	}
	return name
}

// describeFilter renders a one-line description of an active filter.
func describeFilter(flt Filter) string {
	var parts []string
	if s := strings.TrimSpace(flt.Search); s != "" {
		parts = append(parts, fmt.Sprintf("search %q", s))
	}
	if flt.Status != "" && flt.Status != StatusAll {
		parts = append(parts, "status "+flt.Status)
	}
	return "Filtered by " + strings.Join(parts, ", ")
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// unsanitizeExcelCell reverses sanitizeExcelCell.
func unsanitizeExcelCell(s string) string {
	if len(s) < 2 || s[0] != '\'' {
		return s
	}
	switch s[1] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return s[1:]
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
