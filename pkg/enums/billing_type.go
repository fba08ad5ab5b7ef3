package enums

import "fmt"

// BillingType decides how the platform charges a tenant on each sale.
type BillingType string

const (
	// BillingTypeCommission deducts a percentage of each successful sale.
	BillingTypeCommission BillingType = "commission"
	// BillingTypeFlat charges via subscription only; no per-sale fee.
	BillingTypeFlat BillingType = "flat"
)

var validBillingTypes = []BillingType{
	BillingTypeCommission,
	BillingTypeFlat,
}

// String implements fmt.Stringer.
func (b BillingType) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingType.
func (b BillingType) IsValid() bool {
	for _, candidate := range validBillingTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingType converts raw input into a BillingType.
func ParseBillingType(value string) (BillingType, error) {
	for _, candidate := range validBillingTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing type %q", value)
}
