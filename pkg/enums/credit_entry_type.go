package enums

import "fmt"

// CreditEntryType classifies a signed SMS-credit ledger entry.
type CreditEntryType string

const (
	CreditEntryTypeDeposit      CreditEntryType = "deposit"
	CreditEntryTypeUsage        CreditEntryType = "usage"
	CreditEntryTypeRefund       CreditEntryType = "refund"
	CreditEntryTypeSubscription CreditEntryType = "subscription"
)

var validCreditEntryTypes = []CreditEntryType{
	CreditEntryTypeDeposit,
	CreditEntryTypeUsage,
	CreditEntryTypeRefund,
	CreditEntryTypeSubscription,
}

// String implements fmt.Stringer.
func (t CreditEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known CreditEntryType.
func (t CreditEntryType) IsValid() bool {
	for _, candidate := range validCreditEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCreditEntryType converts raw input into a CreditEntryType.
func ParseCreditEntryType(value string) (CreditEntryType, error) {
	for _, candidate := range validCreditEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid credit entry type %q", value)
}
