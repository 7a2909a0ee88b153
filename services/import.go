package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Import field keys.
const (
	importIndex    = "index"
	importName     = "name"
	importQuantity = "quantity"
	importUnit     = "unit"
	importUnitCost = "unit_cost"
	importStatus   = "status"
)

// headerScanRows is how far down a sheet the header row is looked for, so a
// workbook produced by GenerateSpreadsheet can be imported as is.
const headerScanRows = 10

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportRow is one parsed line of an import file. Index is the dotted
// position ("1", "1.2", "1.2.3") and encodes both level and parent.
type ImportRow struct {
	Row      int     `json:"row"`
	Index    string  `json:"index"`
	Level    int     `json:"level"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	UnitCost float64 `json:"unit_cost,omitempty"`
	Status   string  `json:"status,omitempty"`
}

// ImportedRow is a row that was stored.
type ImportedRow struct {
	Row   int    `json:"row"`
	Index string `json:"index"`
	ID    string `json:"id"`
}

// ImportFailure is the row an import stopped at.
type ImportFailure struct {
	Row     int    `json:"row"`
	Index   string `json:"index"`
	Message string `json:"message"`
}

// ImportResult reports how far a sequential import got.
type ImportResult struct {
	Total        int            `json:"total"`
	Created      []ImportedRow  `json:"created"`
	Failed       *ImportFailure `json:"failed,omitempty"`
	NotAttempted int            `json:"not_attempted"`
}

// OK reports whether every row was created.
func (r ImportResult) OK() bool {
	return r.Failed == nil && len(r.Created) == r.Total
}

// item turns the row into a record under the parent created for its index.
func (row ImportRow) item(projectID string, ids map[string]string) (EstimateItem, error) {
	level, parentIndex, _, ok := ParseIndex(row.Index)
	if !ok {
		return EstimateItem{}, fmt.Errorf("%w: index %q", ErrInvalidLevel, row.Index)
	}
	if _, dup := ids[row.Index]; dup {
		return EstimateItem{}, fmt.Errorf("%w: index %s appears twice", ErrInvalidItem, row.Index)
	}

	item := EstimateItem{ProjectID: projectID, Name: row.Name, Level: level}
	if level > LevelStructure {
		parentID, ok := ids[parentIndex]
		if !ok {
			return EstimateItem{}, fmt.Errorf("%w: no row with index %s before row %d", ErrParentNotFound, parentIndex, row.Row)
		}
		item.ParentID = parentID
	}
	if level == LevelItem {
		item.Quantity = row.Quantity
		item.Unit = row.Unit
		item.UnitCost = row.UnitCost
		item.Status = row.Status
	}
	return item, nil
}

// ParseImportFile reads a .csv or .xlsx estimate. Structural problems with
// the file are returned as an error; problems with individual rows are
// returned as validation errors.
func ParseImportFile(r io.Reader, fileName string) ([]ImportRow, []ValidationError, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		rows, err = parseCSV(r)
	case ".xlsx":
		rows, err = parseExcel(r)
	default:
		return nil, nil, fmt.Errorf("%w: must be .csv or .xlsx", ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, nil, err
	}

	headerAt, keys := findHeader(rows)
	if headerAt < 0 {
		return nil, nil, fmt.Errorf("no header row with %q and %q columns found", "#", "Description")
	}

	var (
		parsed []ImportRow
		errs   []ValidationError
	)
	for i := headerAt + 1; i < len(rows); i++ {
		rowNum := i + 1
		data := make(map[string]string, len(keys))
		for colIdx, key := range keys {
			if key == "" || colIdx >= len(rows[i]) {
				continue
			}
			data[key] = strings.TrimSpace(rows[i][colIdx])
		}
		// The data block ends at the first row without an index.
		if data[importIndex] == "" {
			break
		}

		row, rowErrs := parseImportRow(rowNum, data)
		errs = append(errs, rowErrs...)
		parsed = append(parsed, row)
	}

	if len(parsed) == 0 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return parsed, errs, nil
}

func parseImportRow(rowNum int, data map[string]string) (ImportRow, []ValidationError) {
	var errs []ValidationError
	fail := func(field, msg string) {
		errs = append(errs, ValidationError{Row: rowNum, Field: field, Message: msg})
	}

	row := ImportRow{
		Row:   rowNum,
		Index: data[importIndex],
		Name:  unsanitizeExcelCell(strings.TrimSpace(data[importName])),
		Unit:  data[importUnit],
	}

	level, _, _, ok := ParseIndex(row.Index)
	if !ok {
		fail("#", fmt.Sprintf("index %q must look like 1, 1.2 or 1.2.3", row.Index))
	}
	row.Level = level
	if row.Name == "" {
		fail("Description", "Description is required")
	}

	var err error
	if row.Quantity, err = parseNumber(data[importQuantity]); err != nil {
		fail("Qty", err.Error())
	}
	if row.UnitCost, err = parseNumber(data[importUnitCost]); err != nil {
		fail("Rate", err.Error())
	}

	if s := strings.ToLower(data[importStatus]); s != "" {
		if !ValidStatus(s) {
			fail("Status", fmt.Sprintf("status must be one of %s", strings.Join(StatusOptions, ", ")))
		}
		row.Status = s
	}
	return row, errs
}

// parseNumber accepts plain and thousands-grouped numbers. Empty is zero.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

// findHeader returns the position of the first row naming both an index and
// a description column, with the field key of every column.
func findHeader(rows [][]string) (int, []string) {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		keys := make([]string, len(rows[i]))
		seen := make(map[string]bool)
		for j, h := range rows[i] {
			key := HeaderAliases[normaliseHeader(h)]
			if key != "" && !seen[key] {
				keys[j] = key
				seen[key] = true
			}
		}
		if seen[importIndex] && seen[importName] {
			return i, keys
		}
	}
	return -1, nil
}

func normaliseHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	// Strip trailing " *" that the template adds for required fields
	h = strings.TrimSuffix(h, "*")
	return strings.TrimSpace(h)
}

// parseCSV reads every record of a CSV file.
func parseCSV(file io.Reader) ([][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows, nil
}

// parseExcel reads every row of the first sheet of an xlsx file. Numbers
// are read unformatted.
func parseExcel(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows, nil
}

// GenerateImportTemplate creates a downloadable .xlsx template with an
// example estimate and drop-downs for unit and status.
func GenerateImportTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Estimate"
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	requiredHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	optionalHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	headers := []struct {
		label    string
		required bool
		width    float64
	}{
		{"#", true, 10},
		{"Description", true, 44},
		{"Qty", false, 12},
		{"Unit", false, 10},
		{"Rate", false, 14},
		{"Status", false, 14},
	}
	for i, h := range headers {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		cell := colName + "1"
		label, style := h.label, optionalHeaderStyle
		if h.required {
			label, style = h.label+" *", requiredHeaderStyle
		}
		f.SetCellValue(sheetName, cell, label)
		f.SetCellStyle(sheetName, cell, cell, style)
		f.SetColWidth(sheetName, colName, colName, h.width)
	}

	examples := [][]any{
		{"1", "Substructure"},
		{"1.1", "Excavation"},
		{"1.1.1", "Excavate foundation trenches", 24, "m3", 850, StatusDraft},
		{"1.1.2", "Cart away surplus material", 18, "m3", 400, StatusDraft},
		{"2", "Superstructure"},
		{"2.1", "Walling"},
		{"2.1.1", "200mm machine-cut stone walling", 120, "m2", 1650, StatusDraft},
	}
	for i, ex := range examples {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheetName, cell, &ex)
	}

	unitDV := excelize.NewDataValidation(true)
	unitDV.Sqref = "D2:D1048576"
	unitDV.SetDropList(UnitOptions)
	f.AddDataValidation(sheetName, unitDV)

	statusDV := excelize.NewDataValidation(true)
	statusDV.Sqref = "F2:F1048576"
	statusDV.SetDropList(StatusOptions)
	f.AddDataValidation(sheetName, statusDV)

	// Freeze header row
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	addInstructionsSheet(f)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return buf.Bytes(), nil
}

// addInstructionsSheet adds a sheet explaining the columns.
func addInstructionsSheet(f *excelize.File) {
	instSheet := "Instructions"
	f.NewSheet(instSheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	f.SetCellValue(instSheet, "A1", "Estimate Import - Instructions")
	f.SetCellStyle(instSheet, "A1", "A1", titleStyle)

	lines := []string{
		"# is the position of the row: 1 for a structure, 1.2 for an element, 1.2.3 for an item.",
		"A row must come after the row its index points to (1.2 after 1, 1.2.3 after 1.2).",
		"Qty, Unit, Rate and Status are read for items (three-part index) only.",
		"Amounts are calculated as Qty x Rate and do not need to be entered.",
		"Reading stops at the first row with an empty #.",
	}
	for i, l := range lines {
		f.SetCellValue(instSheet, fmt.Sprintf("A%d", i+3), l)
	}
	f.SetColWidth(instSheet, "A", "A", 90)
}
