package enums

import "fmt"

// DonationStatus tracks the lifecycle of a donation listing.
// The wire values are shared with the web client and must not change.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "Pending"
	DonationStatusInProcess DonationStatus = "In Process"
	DonationStatusCompleted DonationStatus = "Completed"
	DonationStatusRejected  DonationStatus = "Rejected"
)

var validDonationStatuses = []DonationStatus{
	DonationStatusPending,
	DonationStatusInProcess,
	DonationStatusCompleted,
	DonationStatusRejected,
}

// String implements fmt.Stringer.
func (s DonationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DonationStatus.
func (s DonationStatus) IsValid() bool {
	for _, candidate := range validDonationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave this status.
func (s DonationStatus) IsTerminal() bool {
	return s == DonationStatusCompleted || s == DonationStatusRejected
}

// ParseDonationStatus converts raw input into a DonationStatus.
// "InProcess" and "in_process" are accepted as aliases for "In Process".
func ParseDonationStatus(value string) (DonationStatus, error) {
	for _, candidate := range validDonationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	switch value {
	case "InProcess", "in_process", "in-process":
		return DonationStatusInProcess, nil
	}
	return "", fmt.Errorf("invalid donation status %q", value)
}
