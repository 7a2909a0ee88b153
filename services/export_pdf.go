package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Grid widths of the document table. Every visible value column takes
// pdfValueWidth units; the grid grows with the column count.
const (
	pdfIndexWidth = 2
	pdfDescWidth  = 8
	pdfValueWidth = 2
)

// ExportToDocument encodes the forest as a paginated PDF.
func ExportToDocument(forest Forest, cols ColumnSet, meta ExportMeta) ([]byte, error) {
	return GenerateDocument(BuildExportData(forest, cols, meta))
}

// pdfGridSize returns the grid sum used for a document with n value columns.
func pdfGridSize(n int) int {
	return pdfIndexWidth + pdfDescWidth + n*pdfValueWidth
}

// GenerateDocument creates a PDF document from estimate export data using
// maroto/v2. It returns the raw PDF bytes or an error.
func GenerateDocument(data ExportData) ([]byte, error) {
	grid := pdfGridSize(len(data.Columns))

	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithMaxGridSize(grid).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	// --- Header Section ---
	addHeader(m, data, grid)

	// --- Table Header ---
	addTableHeader(m, data.Columns)

	// --- Table Body ---
	for _, r := range data.Rows {
		addTableRow(m, r, data.Columns)
	}

	// --- Summary Section ---
	addSummary(m, data, grid)

	// Generate PDF bytes
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the project name, reference, generation time and active
// filter to the PDF.
func addHeader(m core.Maroto, data ExportData, grid int) {
	half := grid / 2
	grey := &props.Color{Red: 80, Green: 80, Blue: 80}

	m.AddRows(
		row.New(12).Add(
			col.New(grid).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	reference := ""
	if data.Reference != "" {
		reference = fmt.Sprintf("Reference: %s", data.Reference)
	}
	m.AddRows(
		row.New(8).Add(
			col.New(half).Add(
				text.New(reference, props.Text{Size: 9, Align: align.Left, Color: grey}),
			),
			col.New(grid-half).Add(
				text.New(fmt.Sprintf("Generated: %s", data.GeneratedAt.Format("02 Jan 2006 15:04")), props.Text{
					Size:  9,
					Align: align.Right,
					Color: grey,
				}),
			),
		),
	)

	if !data.Filter.IsZero() {
		m.AddRows(
			row.New(6).Add(
				col.New(grid).Add(
					text.New(describeFilter(data.Filter), props.Text{Size: 8, Align: align.Left, Color: grey}),
				),
			),
		)
	}

	// Spacer
	m.AddRows(row.New(4))
}

// addTableHeader adds the column header row for the estimate table.
func addTableHeader(m core.Maroto, cols ColumnSet) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	cells := []core.Col{
		col.New(pdfIndexWidth).Add(text.New("#", headerText)).WithStyle(&headerCell),
		col.New(pdfDescWidth).Add(text.New("Description", headerTextLeft)).WithStyle(&headerCell),
	}
	for _, c := range cols {
		cells = append(cells, col.New(pdfValueWidth).Add(text.New(c.Label(), headerText)).WithStyle(&headerCell))
	}

	m.AddRows(row.New(8).Add(cells...))
}

// addTableRow adds a single data row to the estimate table, styled by level.
func addTableRow(m core.Maroto, r RowRecord, cols ColumnSet) {
	// Determine text style and background based on level.
	var cellStyle *props.Cell
	var textSize float64 = 7
	var textStyle fontstyle.Type = fontstyle.Normal

	switch r.Level {
	case LevelStructure:
		// Structure: bold, white background (no cell style needed).
		textStyle = fontstyle.Bold
		textSize = 8
	case LevelElement:
		bg := &props.Color{Red: 245, Green: 245, Blue: 245}
		cellStyle = &props.Cell{BackgroundColor: bg}
	case LevelItem:
		bg := &props.Color{Red: 235, Green: 235, Blue: 235}
		cellStyle = &props.Cell{BackgroundColor: bg}
	}

	baseText := props.Text{
		Size:  textSize,
		Style: textStyle,
		Align: align.Center,
	}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	cells := []core.Col{
		col.New(pdfIndexWidth).Add(text.New(r.Index, baseText)),
		col.New(pdfDescWidth).Add(text.New(indentName(r.Name, r.Level), leftText)),
	}
	for _, c := range cols {
		style := rightText
		if c == ColUnit {
			style = baseText
		}
		cells = append(cells, col.New(pdfValueWidth).Add(text.New(CellText(r, c), style)))
	}

	// Apply background style if needed.
	if cellStyle != nil {
		for i := range cells {
			cells[i] = cells[i].WithStyle(cellStyle)
		}
	}

	m.AddRows(row.New(7).Add(cells...))
}

// addSummary adds the grand total, overheads and profit at the bottom of
// the PDF.
func addSummary(m core.Maroto, data ExportData, grid int) {
	// Spacer before summary
	m.AddRows(row.New(6))

	summaryBg := &props.Color{Red: 240, Green: 240, Blue: 240}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	labelStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	valueStyle := labelStyle

	valueWidth := grid / 3
	lines := []struct {
		label string
		value float64
	}{
		{SummaryGrandTotal, data.GrandTotal()},
		{SummaryOverheads, data.Totals.Overheads},
		{SummaryProfit, data.Totals.Profit},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(grid-valueWidth).Add(
					text.New(l.label, labelStyle),
				).WithStyle(summaryCell),
				col.New(valueWidth).Add(
					text.New(FormatAmount(l.value, data.Currency), valueStyle),
				).WithStyle(summaryCell),
			),
		)
	}
}
