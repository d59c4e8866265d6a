package enums

import "fmt"

// OperationType classifies immutable warehouse operation log entries.
type OperationType string

const (
	OperationTypeReceipt    OperationType = "receipt"
	OperationTypeWithdrawal OperationType = "withdrawal"
	OperationTypeTransfer   OperationType = "transfer"
	OperationTypeAdjustment OperationType = "adjustment"
)

var validOperationTypes = []OperationType{
	OperationTypeReceipt,
	OperationTypeWithdrawal,
	OperationTypeTransfer,
	OperationTypeAdjustment,
}

// String implements fmt.Stringer.
func (o OperationType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OperationType.
func (o OperationType) IsValid() bool {
	for _, candidate := range validOperationTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOperationType converts raw input into an OperationType.
func ParseOperationType(value string) (OperationType, error) {
	for _, candidate := range validOperationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operation type %q", value)
}
