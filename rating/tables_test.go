// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rating

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAnnualPremiumDefaults(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name       string
		hazard     int
		revenue    int64
		limit      int64
		retention  int64
		adjustment float64
		expected   int64
	}{
		// 3600 * 1.0 * 1.0 * 1.0 * 1.0
		{"baseline class 3", 3, 20_000_000, 1_000_000, 10_000, 0, 3600},
		// 3600 * 1.8 * 1.6 * 0.95
		{"mid-market 2M", 3, 50_000_000, 2_000_000, 25_000, 0, 9850},
		// 7500 * 3.6 * 2.5 * 0.90 * 1.10
		{"healthcare 5M with debit", 5, 400_000_000, 5_000_000, 50_000, 0.10, 66825},
		// 1800 * 1.0 * 1.0 * 1.0 * 0.80
		{"class 1 with credit", 1, 10_000_000, 1_000_000, 10_000, -0.20, 1440},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tables.AnnualPremium(tt.hazard, tt.revenue, tt.limit, tt.retention, tt.adjustment)
			if got != tt.expected {
				t.Errorf("AnnualPremium() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestAnnualPremiumClampsHazard(t *testing.T) {
	tables := DefaultTables()

	low := tables.AnnualPremium(0, 10_000_000, 1_000_000, 10_000, 0)
	if low != tables.AnnualPremium(1, 10_000_000, 1_000_000, 10_000, 0) {
		t.Errorf("hazard below 1 should clamp to 1, got %d", low)
	}

	high := tables.AnnualPremium(9, 10_000_000, 1_000_000, 10_000, 0)
	if high != tables.AnnualPremium(5, 10_000_000, 1_000_000, 10_000, 0) {
		t.Errorf("hazard above 5 should clamp to 5, got %d", high)
	}
}

func TestLimitFactorFallback(t *testing.T) {
	tables := DefaultTables()

	// 4M has no table entry; it scales linearly on millions.
	got := tables.AnnualPremium(3, 10_000_000, 4_000_000, 10_000, 0)
	if got != 14400 { // 3600 * 4.0
		t.Errorf("AnnualPremium(4M) = %d, want 14400", got)
	}
}

func TestRetentionCreditStepsDown(t *testing.T) {
	tables := DefaultTables()

	// 75k retention takes the 50k credit tier.
	at50 := tables.AnnualPremium(3, 10_000_000, 1_000_000, 50_000, 0)
	at75 := tables.AnnualPremium(3, 10_000_000, 1_000_000, 75_000, 0)
	if at50 != at75 {
		t.Errorf("75k retention should price like 50k: %d vs %d", at75, at50)
	}
}

func TestHazardClass(t *testing.T) {
	tests := []struct {
		naics    string
		expected int
	}{
		{"541511", 4},
		{"52", 4},
		{"622110", 5},
		{"445110", 3},
		{"332710", 2},
		{"111150", 1},
		{"999999", 3},
		{"", 3},
		{"5", 3},
	}

	for _, tt := range tests {
		if got := HazardClass(tt.naics); got != tt.expected {
			t.Errorf("HazardClass(%q) = %d, want %d", tt.naics, got, tt.expected)
		}
	}
}

func TestLoadTablesDefaults(t *testing.T) {
	tables, err := LoadTables("")
	if err != nil {
		t.Fatalf("LoadTables() error: %v", err)
	}
	if tables.BaseRatePerMillion[3] != 3600 {
		t.Errorf("default base rate = %d, want 3600", tables.BaseRatePerMillion[3])
	}
}

func TestLoadTablesPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rating.yaml")
	content := []byte("base_rate_per_million:\n  1: 2000\n  2: 2800\n  3: 4000\n  4: 5600\n  5: 8000\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables() error: %v", err)
	}
	if tables.BaseRatePerMillion[3] != 4000 {
		t.Errorf("overridden base rate = %d, want 4000", tables.BaseRatePerMillion[3])
	}
	// Untouched sections keep the defaults.
	if tables.LimitFactors[2_000_000] != 1.8 {
		t.Errorf("limit factor = %g, want 1.8", tables.LimitFactors[2_000_000])
	}
}

func TestLoadTablesMissingFile(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
