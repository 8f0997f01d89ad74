// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rating

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// GridLimits are the aggregate limits priced by the submission premium grid.
var GridLimits = []int64{1_000_000, 2_000_000, 3_000_000, 5_000_000}

// Tables holds the rating factors used to produce an annual premium for a
// hazard class, revenue band, limit, and retention. Values load from YAML
// with built-in defaults when no file is configured.
type Tables struct {
	BaseRatePerMillion map[int]int64     `yaml:"base_rate_per_million"`
	LimitFactors       map[int64]float64 `yaml:"limit_factors"`
	RetentionCredits   map[int64]float64 `yaml:"retention_credits"`
	RevenueBands       []RevenueBand     `yaml:"revenue_bands"`
}

// RevenueBand scales premium by annual revenue. Bands are matched in order;
// the last band with UpTo == 0 is the open-ended tail.
type RevenueBand struct {
	UpTo   int64   `yaml:"up_to"`
	Factor float64 `yaml:"factor"`
}

// DefaultTables returns the built-in rating plan.
func DefaultTables() Tables {
	return Tables{
		BaseRatePerMillion: map[int]int64{
			1: 1800,
			2: 2600,
			3: 3600,
			4: 5200,
			5: 7500,
		},
		LimitFactors: map[int64]float64{
			1_000_000:  1.0,
			2_000_000:  1.8,
			3_000_000:  2.5,
			5_000_000:  3.6,
			10_000_000: 5.5,
		},
		RetentionCredits: map[int64]float64{
			10_000:  0.0,
			25_000:  0.05,
			50_000:  0.10,
			100_000: 0.15,
			250_000: 0.22,
			500_000: 0.30,
		},
		RevenueBands: []RevenueBand{
			{UpTo: 25_000_000, Factor: 1.0},
			{UpTo: 100_000_000, Factor: 1.6},
			{UpTo: 500_000_000, Factor: 2.5},
			{UpTo: 0, Factor: 4.0},
		},
	}
}

// LoadTables reads the rating plan from a YAML file, or returns the
// defaults when path is empty. A partial file overrides only the sections
// it provides.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read rating config: %w", err)
	}

	var fileTables Tables
	if err := yaml.Unmarshal(raw, &fileTables); err != nil {
		return Tables{}, fmt.Errorf("parse rating config: %w", err)
	}

	if len(fileTables.BaseRatePerMillion) > 0 {
		tables.BaseRatePerMillion = fileTables.BaseRatePerMillion
	}
	if len(fileTables.LimitFactors) > 0 {
		tables.LimitFactors = fileTables.LimitFactors
	}
	if len(fileTables.RetentionCredits) > 0 {
		tables.RetentionCredits = fileTables.RetentionCredits
	}
	if len(fileTables.RevenueBands) > 0 {
		tables.RevenueBands = fileTables.RevenueBands
	}

	return tables, nil
}

// AnnualPremium rates one program configuration. controlAdjustment is a
// signed fraction (-0.25 .. +0.25 in practice) applied last.
func (t Tables) AnnualPremium(hazard int, revenue, limit, retention int64, controlAdjustment float64) int64 {
	base := t.baseRate(hazard)
	premium := float64(base) *
		t.limitFactor(limit) *
		t.revenueFactor(revenue) *
		(1 - t.retentionCredit(retention)) *
		(1 + controlAdjustment)

	if premium < 0 {
		premium = 0
	}
	return int64(math.Round(premium))
}

func (t Tables) baseRate(hazard int) int64 {
	if hazard < 1 {
		hazard = 1
	}
	if hazard > 5 {
		hazard = 5
	}
	if rate, ok := t.BaseRatePerMillion[hazard]; ok {
		return rate
	}
	return t.BaseRatePerMillion[3]
}

// limitFactor uses the exact table entry when present, otherwise scales
// linearly on millions of limit.
func (t Tables) limitFactor(limit int64) float64 {
	if f, ok := t.LimitFactors[limit]; ok {
		return f
	}
	return float64(limit) / 1_000_000
}

// retentionCredit uses the largest table retention not exceeding the
// requested one.
func (t Tables) retentionCredit(retention int64) float64 {
	credit := 0.0
	var best int64 = -1
	for r, c := range t.RetentionCredits {
		if r <= retention && r > best {
			best = r
			credit = c
		}
	}
	return credit
}

func (t Tables) revenueFactor(revenue int64) float64 {
	tail := 1.0
	for _, band := range t.RevenueBands {
		if band.UpTo == 0 {
			tail = band.Factor
			continue
		}
		if revenue <= band.UpTo {
			return band.Factor
		}
	}
	return tail
}

// HazardClass maps a NAICS code to a 1-5 hazard class. Unknown or missing
// codes fall to class 3.
func HazardClass(naicsCode string) int {
	if len(naicsCode) < 2 {
		return 3
	}
	switch naicsCode[:2] {
	case "51", "52", "54": // information, finance, professional services
		return 4
	case "62": // healthcare
		return 5
	case "22", "48", "49": // utilities, transport
		return 4
	case "44", "45", "72": // retail, hospitality
		return 3
	case "23", "31", "32", "33": // construction, manufacturing
		return 2
	case "11", "21": // agriculture, mining
		return 1
	}
	return 3
}
