// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rating

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hartline/uwportal/format"
	"github.com/hartline/uwportal/models"
)

// DateLayout is the wire format for all dates in endorsement payloads.
const DateLayout = "2006-01-02"

// Endorsement types
const (
	TypeExtension      = "extension"
	TypeNameChange     = "name_change"
	TypeAddressChange  = "address_change"
	TypeReinstatement  = "reinstatement"
	TypeCancellation   = "cancellation"
	TypeERP            = "erp"
	TypeCoverageChange = "coverage_change"
	TypeOther          = "other"
)

// ValidType reports whether t names a known endorsement type.
func ValidType(t string) bool {
	switch t {
	case TypeExtension, TypeNameChange, TypeAddressChange, TypeReinstatement,
		TypeCancellation, TypeERP, TypeCoverageChange, TypeOther:
		return true
	}
	return false
}

// erpDurations maps the duration enum to its display label.
var erpDurations = map[string]string{
	"1yr":       "1 Year",
	"2yr":       "2 Years",
	"3yr":       "3 Years",
	"4yr":       "4 Years",
	"5yr":       "5 Years",
	"6yr":       "6 Years",
	"unlimited": "Unlimited",
}

// ValidationError is a field-specific pre-submit failure. The message is
// surfaced verbatim to the caller before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Input is the tagged variant fed to Compute. Exactly one detail block is
// consulted, selected by Type. AnnualRate is the policy's annual premium for
// date-based types, or the user-entered incremental annual premium for
// coverage_change and other.
type Input struct {
	Type             string
	EffectiveDate    time.Time
	PolicyExpiration time.Time
	AnnualRate       int64
	FlatOverride     *int64

	Extension     *models.ExtensionDetails
	NameChange    *models.NameChangeDetails
	AddressChange *models.AddressChangeDetails
	Reinstatement *models.ReinstatementDetails
	Cancellation  *models.CancellationDetails
	ERP           *models.ERPDetails
	Coverage      *models.CoverageDetails
	Other         *models.OtherDetails
}

// Computed is the result of pricing an endorsement.
//
// PremiumChange is the amount stored on the endorsement (flat override
// applied when present). ComputedPremium is the formula figure, kept for
// reference display. CancellationReturn is the bundled ERP cancellation
// return premium, always <= 0, tracked separately so the ERP premium itself
// stays independent of dates.
type Computed struct {
	PremiumChange      int64
	ComputedPremium    int64
	CancellationReturn int64
	Description        string
	DaysBasis          int
}

// DaysBetween counts whole calendar days between two dates, ignoring
// time-of-day. Both dates are normalized to midnight UTC first, so the
// count is immune to DST offsets in local calendar math.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// ProRata scales an annual rate over a day count: round(rate * days / 365).
func ProRata(annualRate int64, days int) int64 {
	return int64(math.Round(float64(annualRate) * float64(days) / 365.0))
}

// Compute validates the input for its endorsement type and returns the
// signed premium change plus the generated description. The switch is
// exhaustive over the eight types; an unknown type is an error, not a
// fallthrough.
func Compute(in Input) (Computed, error) {
	var out Computed
	var err error

	switch in.Type {
	case TypeExtension:
		out, err = computeExtension(in)
	case TypeNameChange:
		out, err = computeNameChange(in)
	case TypeAddressChange:
		out, err = computeAddressChange(in)
	case TypeReinstatement:
		out, err = computeReinstatement(in)
	case TypeCancellation:
		out, err = computeCancellation(in)
	case TypeERP:
		out, err = computeERP(in)
	case TypeCoverageChange:
		out, err = computeCoverageChange(in)
	case TypeOther:
		out, err = computeOther(in)
	default:
		return Computed{}, invalid("type", "Unknown endorsement type")
	}
	if err != nil {
		return Computed{}, err
	}

	out.PremiumChange = out.ComputedPremium
	// Address changes never carry premium, even with an override.
	if in.FlatOverride != nil && in.Type != TypeAddressChange {
		out.PremiumChange = *in.FlatOverride
	}

	return out, nil
}

func computeExtension(in Input) (Computed, error) {
	if in.Extension == nil {
		return Computed{}, invalid("extension", "Extension details are required")
	}
	newExp, err := time.Parse(DateLayout, in.Extension.NewExpirationDate)
	if err != nil {
		return Computed{}, invalid("new_expiration_date", "New expiration date must be YYYY-MM-DD")
	}
	days := DaysBetween(in.PolicyExpiration, newExp)
	if days <= 0 {
		return Computed{}, invalid("new_expiration_date", "New expiration date must be after current expiration")
	}

	return Computed{
		ComputedPremium: ProRata(in.AnnualRate, days),
		Description:     "Policy extended to " + format.Date(newExp),
		DaysBasis:       days,
	}, nil
}

func computeNameChange(in Input) (Computed, error) {
	if in.NameChange == nil || strings.TrimSpace(in.NameChange.NewName) == "" {
		return Computed{}, invalid("new_name", "New insured name is required")
	}

	return Computed{
		Description: "Named insured changed to " + strings.TrimSpace(in.NameChange.NewName),
	}, nil
}

func computeAddressChange(in Input) (Computed, error) {
	a := in.AddressChange
	if a == nil || a.Street == "" || a.City == "" || a.State == "" || a.Zip == "" {
		return Computed{}, invalid("address_change", "All new address fields are required")
	}

	return Computed{
		Description: fmt.Sprintf("Address changed to %s, %s, %s %s", a.Street, a.City, a.State, a.Zip),
	}, nil
}

func computeReinstatement(in Input) (Computed, error) {
	if in.Reinstatement == nil {
		return Computed{}, invalid("reinstatement", "Reinstatement details are required")
	}
	if in.Reinstatement.LapseDays < 0 {
		return Computed{}, invalid("lapse_days", "Lapse days must be zero or greater")
	}

	return Computed{
		Description: fmt.Sprintf("Policy reinstatement (%d day lapse)", in.Reinstatement.LapseDays),
	}, nil
}

func computeCancellation(in Input) (Computed, error) {
	if in.Cancellation == nil {
		return Computed{}, invalid("cancellation", "Cancellation details are required")
	}
	ret, days, err := cancellationReturn(in.Cancellation, in.PolicyExpiration, in.AnnualRate)
	if err != nil {
		return Computed{}, err
	}

	return Computed{
		ComputedPremium: ret,
		Description:     "Policy cancelled - " + in.Cancellation.Reason,
		DaysBasis:       days,
	}, nil
}

// cancellationReturn prices the unearned premium for a cancellation: the
// pro-rata share of the days between the new (earlier) expiration and the
// current expiration, negated. Zero days remaining prices to zero.
func cancellationReturn(c *models.CancellationDetails, policyExpiration time.Time, annualRate int64) (int64, int, error) {
	if strings.TrimSpace(c.Reason) == "" {
		return 0, 0, invalid("reason", "Cancellation reason is required")
	}
	newExp, err := time.Parse(DateLayout, c.NewExpirationDate)
	if err != nil {
		return 0, 0, invalid("new_expiration_date", "New expiration date must be YYYY-MM-DD")
	}
	days := DaysBetween(newExp, policyExpiration)
	if days < 0 {
		return 0, 0, invalid("new_expiration_date", "New expiration date must be before current expiration")
	}

	return -ProRata(annualRate, days), days, nil
}

func computeERP(in Input) (Computed, error) {
	e := in.ERP
	if e == nil {
		return Computed{}, invalid("erp", "ERP details are required")
	}
	label, ok := erpDurations[e.Duration]
	if !ok {
		return Computed{}, invalid("duration", "ERP duration is invalid")
	}
	if e.Percentage <= 0 {
		return Computed{}, invalid("percentage", "ERP percentage must be greater than zero")
	}

	out := Computed{
		ComputedPremium: int64(math.Round(float64(in.AnnualRate) * e.Percentage / 100.0)),
		Description:     fmt.Sprintf("Extended Reporting Period - %s (%g%%)", label, e.Percentage),
	}

	// A bundled cancellation prices its own pro-rata return premium; the
	// ERP charge itself stays date-independent.
	if e.Cancellation != nil {
		ret, days, err := cancellationReturn(e.Cancellation, in.PolicyExpiration, in.AnnualRate)
		if err != nil {
			return Computed{}, err
		}
		out.CancellationReturn = ret
		out.DaysBasis = days
	}

	return out, nil
}

func computeCoverageChange(in Input) (Computed, error) {
	c := in.Coverage
	if c == nil {
		return Computed{}, invalid("coverage_change", "Coverage change details are required")
	}

	changes := coverageChanges(c)
	if len(changes) == 0 {
		return Computed{}, invalid("coverage_change", "No coverage changes specified")
	}

	days := DaysBetween(in.EffectiveDate, in.PolicyExpiration)
	if days < 0 {
		return Computed{}, invalid("effective_date", "Effective date must be before policy expiration")
	}

	return Computed{
		ComputedPremium: ProRata(in.AnnualRate, days),
		Description:     summarizeChanges(changes),
		DaysBasis:       days,
	}, nil
}

func computeOther(in Input) (Computed, error) {
	if in.Other == nil || strings.TrimSpace(in.Other.Description) == "" {
		return Computed{}, invalid("description", "Description is required")
	}

	var computed int64
	days := 0
	if in.AnnualRate != 0 {
		days = DaysBetween(in.EffectiveDate, in.PolicyExpiration)
		if days < 0 {
			return Computed{}, invalid("effective_date", "Effective date must be before policy expiration")
		}
		computed = ProRata(in.AnnualRate, days)
	}

	return Computed{
		ComputedPremium: computed,
		Description:     strings.TrimSpace(in.Other.Description),
		DaysBasis:       days,
	}, nil
}

// coverageChanges lists the individual diffs of a coverage change.
func coverageChanges(c *models.CoverageDetails) []string {
	var changes []string
	if c.NewLimit != c.CurrentLimit {
		changes = append(changes, fmt.Sprintf("Limit %s -> %s",
			format.CompactCurrency(c.CurrentLimit), format.CompactCurrency(c.NewLimit)))
	}
	if c.NewRetention != c.CurrentRetention {
		changes = append(changes, fmt.Sprintf("Retention %s -> %s",
			format.CompactCurrency(c.CurrentRetention), format.CompactCurrency(c.NewRetention)))
	}
	for _, cov := range c.AddedCoverages {
		changes = append(changes, "Added "+cov)
	}
	for _, cov := range c.RemovedCoverages {
		changes = append(changes, "Removed "+cov)
	}
	return changes
}

// summarizeChanges shows the first two diffs and counts the rest.
func summarizeChanges(changes []string) string {
	if len(changes) <= 2 {
		return strings.Join(changes, "; ")
	}
	return strings.Join(changes[:2], "; ") + fmt.Sprintf(" +%d more", len(changes)-2)
}
