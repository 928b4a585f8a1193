package billing

import (
	"github.com/shopspring/decimal"
)

// BytesPerMB is the divisor used to convert byte sizes to storage megabytes (MiB)
const BytesPerMB int64 = 1024 * 1024

// UsageSnapshot holds a tenant's resource counts at check time. It is computed on every
// check and never cached.
type UsageSnapshot struct {
	Projects           int64           `json:"projects"`
	TeamMembers        int64           `json:"teamMembers"`
	AISuggestionsToday int64           `json:"aiSuggestionsToday"`
	StorageMB          decimal.Decimal `json:"storageMB"`
}

// BytesToMB converts a byte count into megabytes without rounding
func BytesToMB(bytes int64) decimal.Decimal {
	return decimal.NewFromInt(bytes).Div(decimal.NewFromInt(BytesPerMB))
}

// LimitDecision is the outcome of a limit check. A denial is a normal decision, not an error.
type LimitDecision struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	UpgradeRequired PlanID `json:"upgradeRequired,omitempty"`
	Note            string `json:"note,omitempty"`
}

// Allow returns an allowing decision
func Allow() *LimitDecision {
	return &LimitDecision{Allowed: true}
}

// Deny returns a denying decision carrying the reason and the suggested upgrade
func Deny(reason string, upgrade PlanID) *LimitDecision {
	return &LimitDecision{
		Allowed:         false,
		Reason:          reason,
		UpgradeRequired: upgrade,
	}
}

// CountExceeded reports whether a count-based limit blocks one more resource
func CountExceeded(limit, current int64) bool {
	return !IsUnlimited(limit) && current >= limit
}

// StorageExceeded reports whether adding incomingBytes to currentMB would go over limitMB
func StorageExceeded(limitMB int64, currentMB decimal.Decimal, incomingBytes int64) bool {
	if IsUnlimited(limitMB) {
		return false
	}
	projected := currentMB.Add(BytesToMB(incomingBytes))
	return projected.GreaterThan(decimal.NewFromInt(limitMB))
}
