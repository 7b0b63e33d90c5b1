package dice

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RollResult holds the audit trail for rolling a set of dice counts.
//
// Postcondition: Total == sum(Subtotals).
type RollResult struct {
	// Spent is the dice that were actually rolled.
	Spent Counts
	// Subtotals holds the per-denomination sums, zero where Spent is zero.
	Subtotals [NumDenominations]int
	// Total is the grand total across all denominations.
	Total int
}

// String renders the combat-log breakdown in ascending denomination order,
// e.g. "1d4(3) + 2d6(7) = 10". An empty roll renders as " = 0".
func (r RollResult) String() string {
	var parts []string
	for i, n := range r.Spent {
		if n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%dd%d(%d)", n, Faces[i], r.Subtotals[i]))
	}
	return strings.Join(parts, " + ") + fmt.Sprintf(" = %d", r.Total)
}

// Roll rolls every die in counts: for each denomination, count independent
// uniform draws over [1, face].
//
// Precondition: src must be non-nil; every count must be >= 0.
func Roll(counts Counts, src Source) RollResult {
	result := RollResult{Spent: counts}
	for i, n := range counts {
		for j := 0; j < n; j++ {
			result.Subtotals[i] += src.Intn(Faces[i]) + 1
		}
		result.Total += result.Subtotals[i]
	}
	return result
}

// SpendRoll deducts up to requested from pool (clamping per denomination)
// and rolls whatever was actually spent. This is the shared mechanic behind
// every dice-spend combat action.
//
// Postcondition: remaining == pool minus the rolled dice; never fails.
func SpendRoll(pool, requested Counts, src Source) (RollResult, Counts) {
	spent, remaining := pool.Spend(requested)
	return Roll(spent, src), remaining
}

// Roller wraps a Source and logger so every roll leaves a debug-level
// audit record.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll rolls counts and logs the breakdown at debug level.
func (r *Roller) Roll(counts Counts) RollResult {
	result := Roll(counts, r.src)
	r.logger.Debug("dice roll",
		zap.Ints("spent", counts[:]),
		zap.String("breakdown", result.String()),
		zap.Int("total", result.Total),
	)
	return result
}
