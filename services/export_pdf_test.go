package services

import (
	"testing"
)

func TestGenerateDocument_Basic(t *testing.T) {
	result, err := GenerateDocument(sampleExportData(NewColumnSet(ColQuantity, ColUnit, ColRate, ColAmount)))
	if err != nil {
		t.Fatalf("GenerateDocument() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateDocument() returned empty bytes")
	}
	// PDF files start with %PDF
	if len(result) > 4 && string(result[:5]) != "%PDF-" {
		t.Errorf("result does not start with PDF header, got %q", string(result[:5]))
	}
}

func TestGenerateDocument_FooterMatchesTotals(t *testing.T) {
	data := sampleExportData(NewColumnSet(ColAmount))
	b, err := GenerateDocument(data)
	if err != nil {
		t.Fatalf("GenerateDocument() error = %v", err)
	}
	runs, err := documentText(b)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		label string
		want  string
	}{
		{SummaryGrandTotal, "KES 750.00"},
		{SummaryOverheads, FormatAmount(data.Totals.Overheads, "KES")},
		{SummaryProfit, FormatAmount(data.Totals.Profit, "KES")},
	}
	for _, tt := range tests {
		got, ok := valueAfter(runs, tt.label)
		if !ok {
			t.Errorf("no %q line in document", tt.label)
			continue
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestGenerateDocument_EmptyItems(t *testing.T) {
	result, err := GenerateDocument(ExportData{Title: "Empty Estimate", Rows: []RowRecord{}})
	if err != nil {
		t.Fatalf("GenerateDocument() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateDocument() returned empty bytes")
	}
}

func TestGenerateDocument_AllColumnsFiltered(t *testing.T) {
	forest := FilterTree(BuildTree(sampleItems(), DefaultRates()), Filter{Status: StatusApproved})
	result, err := ExportToDocument(forest, NewColumnSet(AllColumns...), ExportMeta{
		Title:    "Approved only",
		Currency: "KES",
		Filter:   Filter{Status: StatusApproved},
	})
	if err != nil {
		t.Fatalf("ExportToDocument() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("ExportToDocument() returned empty bytes")
	}
}

func TestPDFGridSize(t *testing.T) {
	tests := []struct {
		cols int
		want int
	}{
		{0, 10},
		{1, 12},
		{len(AllColumns), 30},
	}
	for _, tt := range tests {
		if got := pdfGridSize(tt.cols); got != tt.want {
			t.Errorf("pdfGridSize(%d) = %d, want %d", tt.cols, got, tt.want)
		}
	}
}
