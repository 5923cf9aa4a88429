package entity

import (
	"fmt"
	"strings"

	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/shopspring/decimal"
)

// AllocationMethod selects how a total is distributed across targets
type AllocationMethod string

// Allocation methods
const (
	MethodEqual      AllocationMethod = "equal"
	MethodSpecific   AllocationMethod = "specific"
	MethodPercentage AllocationMethod = "percentage"
)

// ParseAllocationMethod accepts a method name in any case
func ParseAllocationMethod(s string) (AllocationMethod, error) {
	switch m := AllocationMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodEqual, MethodSpecific, MethodPercentage:
		return m, nil
	default:
		return "", fmt.Errorf("invalid allocation method: %q", s)
	}
}

// Valid reports whether m is one of the known methods
func (m AllocationMethod) Valid() bool {
	switch m {
	case MethodEqual, MethodSpecific, MethodPercentage:
		return true
	}
	return false
}

// AssetAllocation is one target's share of the expense total.
// Percentage is only set under the percentage method.
type AssetAllocation struct {
	TargetID   TargetID         `json:"target_id"`
	Amount     money.Money      `json:"amount"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

// AllocationSet holds one allocation per target, in input target order
type AllocationSet []AssetAllocation

// Clone returns a deep copy so callers can edit without touching the original
func (s AllocationSet) Clone() AllocationSet {
	if s == nil {
		return nil
	}
	out := make(AllocationSet, len(s))
	for i, a := range s {
		out[i] = a
		if a.Percentage != nil {
			p := *a.Percentage
			out[i].Percentage = &p
		}
	}
	return out
}

// Index returns the position of the target in the set, or -1
func (s AllocationSet) Index(id TargetID) int {
	for i, a := range s {
		if a.TargetID == id {
			return i
		}
	}
	return -1
}

// Targets returns the target ids in set order
func (s AllocationSet) Targets() []TargetID {
	ids := make([]TargetID, len(s))
	for i, a := range s {
		ids[i] = a.TargetID
	}
	return ids
}

// PartialAllocation is a caller-supplied value for one target.
// Nil fields keep the seeded value.
type PartialAllocation struct {
	TargetID   TargetID         `json:"target_id"`
	Amount     *money.Money     `json:"amount,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}
