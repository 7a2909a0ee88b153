// Package services holds the estimate aggregation engine: tree building,
// cost rollup, filtering, indexing and the spreadsheet/document exporters.
package services

import (
	"fmt"
	"math"
)

// Rates are the cost-category shares applied to a leaf amount. They are
// independent business constants and are not required to sum to 1.
type Rates struct {
	Material  float64 `yaml:"material" json:"material"`
	Labour    float64 `yaml:"labour" json:"labour"`
	Equipment float64 `yaml:"equipment" json:"equipment"`
	Overheads float64 `yaml:"overheads" json:"overheads"`
	Profit    float64 `yaml:"profit" json:"profit"`
	VAT       float64 `yaml:"vat" json:"vat"`
}

// DefaultRates returns the standard category split.
func DefaultRates() Rates {
	return Rates{
		Material:  0.40,
		Labour:    0.30,
		Equipment: 0.20,
		Overheads: 0.05,
		Profit:    0.05,
		VAT:       0.16,
	}
}

// Validate rejects negative or non-finite shares.
func (r Rates) Validate() error {
	shares := []struct {
		name string
		v    float64
	}{
		{"material", r.Material},
		{"labour", r.Labour},
		{"equipment", r.Equipment},
		{"overheads", r.Overheads},
		{"profit", r.Profit},
		{"vat", r.VAT},
	}
	for _, s := range shares {
		if math.IsNaN(s.v) || math.IsInf(s.v, 0) || s.v < 0 {
			return fmt.Errorf("rate %s must be a finite non-negative number, got %v", s.name, s.v)
		}
	}
	return nil
}

// Breakdown is a derived amount together with its category values.
type Breakdown struct {
	Amount    float64 `json:"amount"`
	Material  float64 `json:"material"`
	Labour    float64 `json:"labour"`
	Equipment float64 `json:"equipment"`
	Overheads float64 `json:"overheads"`
	Profit    float64 `json:"profit"`
	VAT       float64 `json:"vat"`
}

// Add returns the element-wise sum of b and o.
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		Amount:    b.Amount + o.Amount,
		Material:  b.Material + o.Material,
		Labour:    b.Labour + o.Labour,
		Equipment: b.Equipment + o.Equipment,
		Overheads: b.Overheads + o.Overheads,
		Profit:    b.Profit + o.Profit,
		VAT:       b.VAT + o.VAT,
	}
}

// CalcLeafAmount returns quantity × unit cost. NaN inputs count as zero.
func CalcLeafAmount(quantity, unitCost float64) float64 {
	if math.IsNaN(quantity) || math.IsNaN(unitCost) {
		return 0
	}
	return quantity * unitCost
}

// CalcLeafBreakdown splits a leaf amount into its categories.
func CalcLeafBreakdown(amount float64, r Rates) Breakdown {
	return Breakdown{
		Amount:    amount,
		Material:  amount * r.Material,
		Labour:    amount * r.Labour,
		Equipment: amount * r.Equipment,
		Overheads: amount * r.Overheads,
		Profit:    amount * r.Profit,
		VAT:       amount * r.VAT,
	}
}

// SumBreakdowns adds the given breakdowns together.
func SumBreakdowns(parts []Breakdown) Breakdown {
	var sum Breakdown
	for _, p := range parts {
		sum = sum.Add(p)
	}
	return sum
}
