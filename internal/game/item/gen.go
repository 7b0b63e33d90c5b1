package item

import (
	"fmt"

	"github.com/avheur/dicedelve/internal/game/dice"
)

// RollBudget draws random denominations until budget is exhausted, starting
// from seed. The budget is checked before each draw, not after, so the last
// draw may overshoot by up to one die's cost. Generated gear thus runs
// slightly above its nominal level.
func RollBudget(seed dice.Counts, budget int, src dice.Source) dice.Counts {
	counts := seed
	for budget > 0 {
		d := src.Intn(dice.NumDenominations)
		budget -= dice.Costs[d]
		counts[d]++
	}
	return counts
}

// Generate creates a random item for the given dungeon floor.
//
// Item level is uniform in [floor*10-5, floor*10+5]; the kind is uniform
// over weapon/shield/armor.
//
// Precondition: floor >= 1; src must be non-nil.
func Generate(floor int, names NameTable, src dice.Source) Item {
	level := dice.Between(src, floor*10-5, floor*10+5)
	kind := Kind(src.Intn(3))

	switch kind {
	case KindWeapon:
		return generateWeapon(level, names, src)
	case KindShield:
		return generateShield(level, names, src)
	default:
		return generateArmor(level, names, src)
	}
}

// generateWeapon rolls base attack, then spends the rest of the level
// budget on attack dice. Base attack costs double its value out of the
// budget; every weapon gets at least one d4.
func generateWeapon(level int, names NameTable, src dice.Source) Item {
	attack := dice.Between(src, 0, level/6) + 1
	budget := RollBudget(dice.Counts{1, 0, 0, 0, 0, 0}, level/3-attack*2, src)

	it := Item{
		Kind:   KindWeapon,
		Level:  level,
		Weapon: Weapon{Attack: attack, Budget: budget},
	}
	if src.Intn(2) == 1 {
		it.Weapon.TwoHanded = true
		it.Weapon.Attack = int(float64(attack) * 2.5)
		it.Name = fmt.Sprintf("Lvl. %d %s", level, names.WeaponTwoHanded)
	} else {
		it.Name = fmt.Sprintf("Lvl. %d %s", level, names.WeaponOneHanded)
	}
	return it
}

func generateShield(level int, names NameTable, src dice.Source) Item {
	return Item{
		Kind:   KindShield,
		Name:   fmt.Sprintf("Lvl. %d %s", level, names.Shield),
		Level:  level,
		Shield: Shield{Budget: RollBudget(dice.Counts{1, 0, 0, 0, 0, 0}, level/5-2, src)},
	}
}

// generateArmor splits a randomized stat budget across health, defense,
// and speed using three normalized random weights.
func generateArmor(level int, names NameTable, src dice.Source) Item {
	healthW := float64(dice.Between(src, 20, 100))
	defenseW := float64(dice.Between(src, 20, 100))
	speedW := float64(dice.Between(src, 20, 100))
	total := healthW + defenseW + speedW

	budget := float64(dice.Between(src, int(float64(level)*0.8), int(float64(level)*1.2)) + 10)
	return Item{
		Kind:  KindArmor,
		Name:  fmt.Sprintf("Lvl. %d %s", level, names.Armor),
		Level: level,
		Armor: Armor{
			Health:  int(budget * healthW / total),
			Defense: int(budget * defenseW / total),
			Speed:   int(budget * speedW / total),
		},
	}
}
