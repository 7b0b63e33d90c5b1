package battle

import (
	"fmt"

	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/item"
)

// Enemy holds the full state of a battle's opposing side.
//
// Invariant: Pool never exceeds Value in any denomination.
type Enemy struct {
	Name    string
	HP      int
	MaxHP   int
	Speed   int
	Defense int
	// Guard is the one-turn defense buffer, reset at the start of each
	// enemy turn.
	Guard int
	// Value is the dice the enemy was generated with; awarded in full to
	// the player on defeat.
	Value dice.Counts
	// Pool is what remains of Value to spend on attacks and defends.
	Pool dice.Counts
	// Spend is the per-turn spending budget.
	Spend dice.Counts
}

// GenerateEnemy rolls a random enemy for the given dungeon floor.
//
// Enemy level is uniform in [floor*10-9, floor*10+5]. A randomized stat
// budget is split across HP, defense, and speed by three normalized random
// weights; the dice value pool is drawn greedily against the enemy level
// and the per-turn spend budget against a quarter of it.
//
// Precondition: floor >= 1; src must be non-nil.
func GenerateEnemy(floor int, bestiary Bestiary, src dice.Source) *Enemy {
	level := dice.Between(src, floor*10-9, floor*10+5)

	healthW := float64(dice.Between(src, 20, 100))
	defenseW := float64(dice.Between(src, 0, 50))
	speedW := float64(dice.Between(src, 20, 100))
	total := healthW + defenseW + speedW

	budget := float64(dice.Between(src, int(float64(level)*0.9), int(float64(level)*1.1)) + 10)
	hp := int(budget * healthW / total)
	if hp < 1 {
		hp = 1
	}
	speed := int(budget * speedW / total)
	if speed < 1 {
		// a speed of zero would never earn a turn or roll a chase die
		speed = 1
	}

	value := item.RollBudget(dice.Counts{}, level, src)
	spend := item.RollBudget(dice.Counts{1, 1, 1, 1, 1, 1}, level/4, src)

	return &Enemy{
		Name:    fmt.Sprintf("Lvl. %d %s", level, bestiary.Pick(src)),
		HP:      hp,
		MaxHP:   hp,
		Speed:   speed,
		Defense: int(budget * defenseW / total),
		Value:   value,
		Pool:    value,
		Spend:   spend,
	}
}
