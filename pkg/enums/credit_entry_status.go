package enums

import "fmt"

// CreditEntryStatus tracks settlement of a ledger entry. Usage and refund
// entries are written as success; only gateway-backed deposits pass through
// pending.
type CreditEntryStatus string

const (
	CreditEntryStatusPending CreditEntryStatus = "pending"
	CreditEntryStatusSuccess CreditEntryStatus = "success"
	CreditEntryStatusFailed  CreditEntryStatus = "failed"
)

var validCreditEntryStatuses = []CreditEntryStatus{
	CreditEntryStatusPending,
	CreditEntryStatusSuccess,
	CreditEntryStatusFailed,
}

// String implements fmt.Stringer.
func (s CreditEntryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CreditEntryStatus.
func (s CreditEntryStatus) IsValid() bool {
	for _, candidate := range validCreditEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCreditEntryStatus converts raw input into a CreditEntryStatus.
func ParseCreditEntryStatus(value string) (CreditEntryStatus, error) {
	for _, candidate := range validCreditEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid credit entry status %q", value)
}
