// Package item defines the equipment model: a tagged union over weapons,
// shields, and armor, plus the procedural generator that creates loot.
package item

import "github.com/avheur/dicedelve/internal/game/dice"

// Kind identifies which payload of an Item is populated.
type Kind int

const (
	// KindWeapon items carry an attack stat and an attack dice profile.
	KindWeapon Kind = 0
	// KindShield items carry a defense dice profile.
	KindShield Kind = 1
	// KindArmor items carry flat health/defense/speed stats.
	KindArmor Kind = 2
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindWeapon:
		return "weapon"
	case KindShield:
		return "shield"
	case KindArmor:
		return "armor"
	default:
		return "unknown"
	}
}

// Weapon is the payload for KindWeapon items.
type Weapon struct {
	// Attack is the flat damage added to every attack roll.
	Attack int
	// Budget is the maximum dice spendable per attack.
	Budget dice.Counts
	// TwoHanded weapons occupy both hands and roll 2.5x base attack.
	TwoHanded bool
}

// Shield is the payload for KindShield items.
type Shield struct {
	// Budget is the maximum dice spendable per defend action.
	Budget dice.Counts
}

// Armor is the payload for KindArmor items. All base combat stats come
// from equipped armor.
type Armor struct {
	Health  int
	Defense int
	Speed   int
}

// Item is one piece of equipment. Exactly the payload matching Kind is
// meaningful; the others stay zero.
//
// ID is assigned by the persistence layer; zero means unsaved.
type Item struct {
	ID    int64
	Kind  Kind
	Name  string
	Level int

	Weapon Weapon
	Shield Shield
	Armor  Armor
}
