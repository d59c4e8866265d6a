package enums

import "fmt"

// SyncStatus tracks an integration sync attempt.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

var validSyncStatuses = []SyncStatus{
	SyncStatusPending,
	SyncStatusSuccess,
	SyncStatusFailed,
}

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncStatus.
func (s SyncStatus) IsValid() bool {
	for _, candidate := range validSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncStatus converts raw input into a SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, error) {
	for _, candidate := range validSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync status %q", value)
}

// SyncTarget names the external system a sync row is destined for.
type SyncTarget string

const (
	SyncTargetAggregator SyncTarget = "aggregator"
	SyncTargetFiscal     SyncTarget = "fiscal"
	SyncTargetERP        SyncTarget = "erp"
)

var validSyncTargets = []SyncTarget{
	SyncTargetAggregator,
	SyncTargetFiscal,
	SyncTargetERP,
}

// String implements fmt.Stringer.
func (s SyncTarget) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncTarget.
func (s SyncTarget) IsValid() bool {
	for _, candidate := range validSyncTargets {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncTarget converts raw input into a SyncTarget.
func ParseSyncTarget(value string) (SyncTarget, error) {
	for _, candidate := range validSyncTargets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync target %q", value)
}
