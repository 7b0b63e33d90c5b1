// Package player defines the player record and the aggregation of
// equipped items into the combat stats a battle is fought with.
package player

import (
	"errors"
	"fmt"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/item"
)

// Base stats before equipment. An unarmed player still lands a single
// point of damage per attack.
const (
	BaseHealth    = 20
	BaseSpeed     = 10
	BaseDefense   = 0
	UnarmedAttack = 1
)

// MaxHands is the number of hand slots; a two-handed weapon fills both.
const MaxHands = 2

// ErrHandsFull is returned when a loadout needs more hand slots than the
// player has.
var ErrHandsFull = errors.New("not enough free hands")

// Player is the durable player record. The ledger is the town-side dice
// balance; items hang off it in the persistence layer.
type Player struct {
	ID     int64
	Name   string
	Ledger dice.Counts
}

// HandsRequired returns the hand slots an equipped item occupies.
func HandsRequired(it item.Item) int {
	switch it.Kind {
	case item.KindWeapon:
		if it.Weapon.TwoHanded {
			return 2
		}
		return 1
	case item.KindShield:
		return 1
	default:
		return 0
	}
}

// ValidateLoadout checks that the equipped set fits the player's hands.
//
// Postcondition: returns nil iff the summed hand requirement is at most
// MaxHands.
func ValidateLoadout(equipped []item.Item) error {
	hands := 0
	for _, it := range equipped {
		hands += HandsRequired(it)
	}
	if hands > MaxHands {
		return fmt.Errorf("equipping %d hand slots: %w", hands, ErrHandsFull)
	}
	return nil
}

// ComputeCombatant derives the battle-side stats from the equipped set.
// Armor stats stack additively on the base values, weapon attack values
// sum (replacing the unarmed point), and the attack and defend dice
// profiles are the summed weapon and shield budgets. Every battle starts
// at full derived HP.
//
// Precondition: the loadout has passed ValidateLoadout.
func ComputeCombatant(equipped []item.Item) battle.Combatant {
	pc := battle.Combatant{
		MaxHP:   BaseHealth,
		Speed:   BaseSpeed,
		Defense: BaseDefense,
	}
	attack := 0
	armed := false
	for _, it := range equipped {
		switch it.Kind {
		case item.KindWeapon:
			armed = true
			attack += it.Weapon.Attack
			pc.AttackBudget = pc.AttackBudget.Add(it.Weapon.Budget)
		case item.KindShield:
			pc.DefendBudget = pc.DefendBudget.Add(it.Shield.Budget)
		case item.KindArmor:
			pc.MaxHP += it.Armor.Health
			pc.Defense += it.Armor.Defense
			pc.Speed += it.Armor.Speed
		}
	}
	if !armed {
		attack = UnarmedAttack
	}
	pc.Attack = attack
	pc.HP = pc.MaxHP
	return pc
}
