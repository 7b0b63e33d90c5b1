// Package dice provides the dice-count ledger that doubles as the game's
// currency and combat-roll resource, plus the randomness abstraction used by
// every generator in the engine.
package dice

// NumDenominations is the number of dice denominations tracked by a ledger.
const NumDenominations = 6

// Faces maps denomination index to die face count: d4, d6, d8, d10, d12, d20.
var Faces = [NumDenominations]int{4, 6, 8, 10, 12, 20}

// Costs maps denomination index to its generation cost, used by the random
// item and enemy budget loops.
var Costs = [NumDenominations]int{2, 3, 4, 5, 6, 10}

// Status is the outcome code for ledger conversion operations, reported
// as-is to the caller of the split/fuse API.
type Status int

const (
	// StatusOK indicates the conversion succeeded.
	StatusOK Status = 0
	// StatusInsufficient indicates the ledger held too few dice.
	StatusInsufficient Status = 1
	// StatusNotConvertible indicates the denominations cannot be converted
	// in the requested direction (split requires strictly higher to lower;
	// the top denomination cannot be fused further).
	StatusNotConvertible Status = 2
	// StatusInvalidDenomination indicates a denomination index outside [0,5].
	StatusInvalidDenomination Status = 3
)

// splitRates[from][to] is the number of dice of denomination to produced per
// die of denomination from. Fixed game data, not derived from face values.
var splitRates = [NumDenominations][]int{
	{},
	{1},
	{2, 1},
	{2, 1, 1},
	{3, 2, 1, 1},
	{5, 3, 2, 2, 1},
}

// d4Values[i] is the value of one die of denomination i expressed in d4s,
// per the split table. Used to reason about conversion value, never gameplay.
var d4Values = [NumDenominations]int{1, 1, 2, 2, 3, 5}

// Counts is a ledger of dice per denomination, indexed d4..d20.
//
// Invariant: every count is >= 0.
type Counts [NumDenominations]int

// IsZero reports whether the ledger holds no dice at all.
func (c Counts) IsZero() bool {
	for _, n := range c {
		if n != 0 {
			return false
		}
	}
	return true
}

// Add returns the element-wise sum of c and other.
func (c Counts) Add(other Counts) Counts {
	for i, n := range other {
		c[i] += n
	}
	return c
}

// D4Value returns the total ledger value normalized to d4s via the split
// table. Splitting never increases this value.
func (c Counts) D4Value() int {
	total := 0
	for i, n := range c {
		total += n * d4Values[i]
	}
	return total
}

// Split converts amount dice of denomination from into dice of the strictly
// lower denomination to, at the fixed table rate.
//
// Postcondition: on any status other than StatusOK the ledger is unchanged.
func (c *Counts) Split(from, to, amount int) Status {
	if from < 0 || from >= NumDenominations || to < 0 || to >= NumDenominations {
		return StatusInvalidDenomination
	}
	if from <= to {
		return StatusNotConvertible
	}
	if amount < 0 || c[from] < amount {
		return StatusInsufficient
	}
	c[from] -= amount
	c[to] += amount * splitRates[from][to]
	return StatusOK
}

// Fuse combines dice of denomination from into the denomination above it,
// always at 2:1. amount is the number of higher dice to create.
//
// Postcondition: on any status other than StatusOK the ledger is unchanged.
func (c *Counts) Fuse(from, amount int) Status {
	if from < 0 || from >= NumDenominations {
		return StatusInvalidDenomination
	}
	if from == NumDenominations-1 {
		return StatusNotConvertible
	}
	if amount < 0 || c[from] < amount*2 {
		return StatusInsufficient
	}
	c[from] -= amount * 2
	c[from+1] += amount
	return StatusOK
}

// Spend deducts up to requested dice from the pool, clamping each
// denomination to what the pool actually holds. It never fails.
//
// Postcondition: spent[i] == min(c[i], requested[i]) and
// remaining[i] == c[i] - spent[i] for every denomination.
func (c Counts) Spend(requested Counts) (spent, remaining Counts) {
	for i := range c {
		s := requested[i]
		if s > c[i] {
			s = c[i]
		}
		if s < 0 {
			s = 0
		}
		spent[i] = s
		remaining[i] = c[i] - s
	}
	return spent, remaining
}

// Clamp limits each denomination of c to the ceiling given by limit.
// Used to cap a requested combat spend at an equipment profile.
func (c Counts) Clamp(limit Counts) Counts {
	for i := range c {
		if c[i] > limit[i] {
			c[i] = limit[i]
		}
		if c[i] < 0 {
			c[i] = 0
		}
	}
	return c
}
