// Package config loads the optional estimate.yaml that tunes the estimator.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"bqestimator/services"
)

// EnvPath names the environment variable that overrides DefaultPath.
const EnvPath = "ESTIMATE_CONFIG"

// DefaultPath returns $ESTIMATE_CONFIG, or ./estimate.yaml when unset.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p
	}
	return "estimate.yaml"
}

// File mirrors estimate.yaml. Every key is optional; omitted rates keep
// their built-in value.
type File struct {
	Rates       RateOverrides `yaml:"rates"`
	Columns     []string      `yaml:"columns"`
	Currency    string        `yaml:"currency"`
	TitlePrefix string        `yaml:"title_prefix"`
}

// RateOverrides holds the category shares present in the file.
type RateOverrides struct {
	Material  *float64 `yaml:"material"`
	Labour    *float64 `yaml:"labour"`
	Equipment *float64 `yaml:"equipment"`
	Overheads *float64 `yaml:"overheads"`
	Profit    *float64 `yaml:"profit"`
	VAT       *float64 `yaml:"vat"`
}

func (o RateOverrides) apply(r services.Rates) services.Rates {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Material, o.Material)
	set(&r.Labour, o.Labour)
	set(&r.Equipment, o.Equipment)
	set(&r.Overheads, o.Overheads)
	set(&r.Profit, o.Profit)
	set(&r.VAT, o.VAT)
	return r
}

// Load reads path and returns the estimator options. A missing file yields
// the defaults; a file that cannot be parsed or holds invalid values is an
// error.
func Load(path string) (services.EstimatorOptions, error) {
	opts := services.DefaultEstimatorOptions()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes estimate.yaml contents.
func Parse(data []byte) (services.EstimatorOptions, error) {
	opts := services.DefaultEstimatorOptions()

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return opts, fmt.Errorf("parse estimate config: %w", err)
	}

	rates := f.Rates.apply(opts.Rates)
	if err := rates.Validate(); err != nil {
		return opts, fmt.Errorf("estimate config: %w", err)
	}
	opts.Rates = rates

	if len(f.Columns) > 0 {
		cols, err := services.ParseColumns(strings.Join(f.Columns, ","), opts.Columns)
		if err != nil {
			return opts, fmt.Errorf("estimate config: %w", err)
		}
		opts.Columns = cols
	}
	opts.Currency = strings.TrimSpace(f.Currency)
	opts.TitlePrefix = strings.TrimSpace(f.TitlePrefix)
	return opts, nil
}
