// Package battle implements the turn-based combat engine: an initiative
// clock that schedules turns proportionally to speed, dice-spend actions
// for both sides, and the retreat, escape, and death transitions.
package battle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/avheur/dicedelve/internal/game/dice"
)

const (
	// InitiativeMax is the countdown each side starts its turn cycle from.
	InitiativeMax int64 = 1_000_000_000
	// EscapeSentinel marks the enemy counter when the enemy has fled.
	EscapeSentinel int64 = 2_000_000_000
)

// ErrOver is returned when an action is taken on a resolved battle.
var ErrOver = errors.New("battle already resolved")

// Outcome is the terminal (or non-terminal) result of a player action and
// the enemy turns it cascaded into.
type Outcome int

const (
	// OutcomeContinue means the battle goes on and it is the player's turn.
	OutcomeContinue Outcome = iota
	// OutcomeEnemyDefeated means the enemy died; its dice value has been
	// awarded to the player's ledger.
	OutcomeEnemyDefeated
	// OutcomeEnemyEscaped means the enemy fled; no reward.
	OutcomeEnemyEscaped
	// OutcomePlayerDefeated means the player's HP reached zero.
	OutcomePlayerDefeated
	// OutcomeRetreated means the player escaped the battle.
	OutcomeRetreated
)

// Combatant is the player's side of a battle: equipment-derived stats
// frozen at battle start, with HP counting down.
type Combatant struct {
	HP      int
	MaxHP   int
	Speed   int
	Defense int
	// Attack is the flat weapon damage added to every attack roll.
	Attack int
	// AttackBudget caps the dice spendable on one attack.
	AttackBudget dice.Counts
	// DefendBudget caps the dice spendable on one defend.
	DefendBudget dice.Counts
}

// Battle is the ephemeral state of one encounter. It is created when the
// player enters a monster or boss room and destroyed on any Outcome other
// than OutcomeContinue.
type Battle struct {
	ID   uuid.UUID
	Boss bool
	// ReturnPos is the packed pre-battle position, restored on a
	// successful player retreat.
	ReturnPos byte

	Player Combatant
	// PlayerGuard is the player's one-turn defense buffer from a Defend
	// action, reset when the player's next turn begins.
	PlayerGuard int

	PlayerInit int64
	EnemyInit  int64

	Enemy *Enemy
}

// Start creates a battle in the room the player just entered and rolls
// opening initiative. If the enemy wins the roll, its turns are simulated
// up to the first player turn and the returned log includes them.
//
// Precondition: floor >= 1; pc.Speed >= 1; src must be non-nil.
// Postcondition: unless the returned Outcome is terminal, it is the
// player's turn.
func Start(pc Combatant, floor int, boss bool, returnPos byte, bestiary Bestiary, src dice.Source) (*Battle, []string, Outcome) {
	b := &Battle{
		ID:         uuid.New(),
		Boss:       boss,
		ReturnPos:  returnPos,
		Player:     pc,
		PlayerInit: InitiativeMax,
		EnemyInit:  InitiativeMax,
		Enemy:      GenerateEnemy(floor, bestiary, src),
	}
	logs := []string{fmt.Sprintf("A %s stands in your way!", b.Enemy.Name)}
	if RollInitiative(pc.Speed, b.Enemy.Speed, src) {
		logs = append(logs, "You are quicker on the draw.")
		return b, logs, OutcomeContinue
	}
	logs = append(logs, fmt.Sprintf("The %s moves first!", b.Enemy.Name))
	b.EnemyInit = 0
	logs = append(logs, b.tickUntilPlayerTurn(src)...)
	return b, logs, b.outcome()
}

// Resolved reports whether the battle has reached a terminal state.
func (b *Battle) Resolved() bool {
	return b.Player.HP <= 0 || b.Enemy.HP <= 0 || b.EnemyInit == EscapeSentinel
}

// outcome maps the current state to the Outcome seen after a tick.
func (b *Battle) outcome() Outcome {
	switch {
	case b.Player.HP <= 0:
		return OutcomePlayerDefeated
	case b.Enemy.HP <= 0:
		return OutcomeEnemyDefeated
	case b.EnemyInit == EscapeSentinel:
		return OutcomeEnemyEscaped
	default:
		return OutcomeContinue
	}
}

// PlayerAttack spends dice from the player's ledger, clamped to the weapon
// profile, and resolves the damage against the enemy's guard, base defense,
// and HP, in that order. On a kill the enemy's full initial dice value is
// added to the ledger. Otherwise the clock advances to the next player turn.
//
// Precondition: it is the player's turn (the battle is unresolved).
func (b *Battle) PlayerAttack(requested dice.Counts, ledger *dice.Counts, src dice.Source) ([]string, Outcome, error) {
	if b.Resolved() {
		return nil, b.outcome(), ErrOver
	}
	roll, remaining := dice.SpendRoll(*ledger, requested.Clamp(b.Player.AttackBudget), src)
	*ledger = remaining

	dealt := applyDamage(roll.Total+b.Player.Attack, &b.Enemy.Guard, b.Enemy.Defense, &b.Enemy.HP)
	logs := []string{fmt.Sprintf("You attack: %s; the %s takes %d damage.", roll, b.Enemy.Name, dealt)}

	if b.Enemy.HP <= 0 {
		*ledger = ledger.Add(b.Enemy.Value)
		logs = append(logs, fmt.Sprintf("The %s falls. You scoop up its dice.", b.Enemy.Name))
		return logs, OutcomeEnemyDefeated, nil
	}
	b.PlayerInit = InitiativeMax
	logs = append(logs, b.tickUntilPlayerTurn(src)...)
	return logs, b.outcome(), nil
}

// PlayerDefend spends dice from the ledger, clamped to the shield profile,
// and sets the player's guard to the rolled total. The guard overwrites any
// previous value; it does not stack. The clock then advances.
//
// Precondition: it is the player's turn (the battle is unresolved).
func (b *Battle) PlayerDefend(requested dice.Counts, ledger *dice.Counts, src dice.Source) ([]string, Outcome, error) {
	if b.Resolved() {
		return nil, b.outcome(), ErrOver
	}
	roll, remaining := dice.SpendRoll(*ledger, requested.Clamp(b.Player.DefendBudget), src)
	*ledger = remaining
	b.PlayerGuard = roll.Total

	logs := []string{fmt.Sprintf("You raise your shield: %s guard.", roll)}
	b.PlayerInit = InitiativeMax
	logs = append(logs, b.tickUntilPlayerTurn(src)...)
	return logs, b.outcome(), nil
}

// PlayerRetreat runs the chase check against the enemy. On success the
// caller must seal the room and restore ReturnPos; on failure the enemy
// gets its turns as usual.
//
// Precondition: it is the player's turn (the battle is unresolved).
func (b *Battle) PlayerRetreat(src dice.Source) ([]string, Outcome, error) {
	if b.Resolved() {
		return nil, b.outcome(), ErrOver
	}
	ok, checkLog := AttemptRetreat(b.Player.Speed, b.Enemy.Speed, src)
	if ok {
		return []string{fmt.Sprintf("You slip away: %s.", checkLog)}, OutcomeRetreated, nil
	}
	logs := []string{fmt.Sprintf("The %s corners you: %s.", b.Enemy.Name, checkLog)}
	b.PlayerInit = InitiativeMax
	logs = append(logs, b.tickUntilPlayerTurn(src)...)
	return logs, b.outcome(), nil
}

// tickUntilPlayerTurn runs the initiative clock, resolving enemy turns as
// they come due, until the player's turn begins or the battle resolves.
//
// Each iteration advances both counters by step*speed, where step is the
// sooner side's ticks-to-zero, so exactly the due side(s) reach <= 0. When
// both are due, the side with the lower counter acts first and an exact tie
// goes to the enemy. The acting enemy's counter is restored by
// InitiativeMax; the player's counter keeps its earned progress until the
// action resets it.
//
// Postcondition: on return either the battle is resolved, or PlayerInit
// <= 0 and PlayerGuard has been reset for the new player turn.
func (b *Battle) tickUntilPlayerTurn(src dice.Source) []string {
	var logs []string
	for {
		if b.Resolved() {
			return logs
		}
		if b.PlayerInit <= 0 && (b.EnemyInit > 0 || b.PlayerInit < b.EnemyInit) {
			b.PlayerGuard = 0
			return logs
		}
		if b.EnemyInit <= 0 {
			logs = append(logs, b.enemyTurn(src)...)
			if b.EnemyInit != EscapeSentinel {
				b.EnemyInit += InitiativeMax
			}
			continue
		}
		pStep := ticksToZero(b.PlayerInit, b.Player.Speed)
		eStep := ticksToZero(b.EnemyInit, b.Enemy.Speed)
		step := pStep
		if eStep < step {
			step = eStep
		}
		b.PlayerInit -= step * int64(b.Player.Speed)
		b.EnemyInit -= step * int64(b.Enemy.Speed)
	}
}

// enemyTurn resolves one enemy action: flee when the pool is dry, defend
// half the time when bloodied, otherwise attack.
func (b *Battle) enemyTurn(src dice.Source) []string {
	e := b.Enemy
	e.Guard = 0

	if e.Pool.IsZero() {
		ok, checkLog := AttemptRetreat(e.Speed, b.Player.Speed, src)
		if ok {
			b.EnemyInit = EscapeSentinel
			return []string{fmt.Sprintf("Out of dice, the %s bolts: %s.", e.Name, checkLog)}
		}
		return []string{fmt.Sprintf("The %s tries to bolt but you block its path: %s.", e.Name, checkLog)}
	}

	if e.HP*2 <= e.MaxHP && src.Intn(2) == 1 {
		roll, remaining := dice.SpendRoll(e.Pool, e.Spend, src)
		e.Pool = remaining
		e.Guard = roll.Total
		return []string{fmt.Sprintf("The %s hunkers down: %s guard.", e.Name, roll)}
	}

	roll, remaining := dice.SpendRoll(e.Pool, e.Spend, src)
	e.Pool = remaining
	dealt := applyDamage(roll.Total, &b.PlayerGuard, b.Player.Defense, &b.Player.HP)
	return []string{fmt.Sprintf("The %s attacks: %s; you take %d damage.", e.Name, roll, dealt)}
}

// applyDamage resolves raw damage against a guard buffer, then flat
// defense, then HP. The guard absorbs first and is reduced toward zero;
// leftover absorption never carries over and damage never goes negative.
// Returns the damage actually dealt to HP.
func applyDamage(raw int, guard *int, defense int, hp *int) int {
	absorbed := raw
	if *guard < absorbed {
		absorbed = *guard
	}
	*guard -= absorbed
	dmg := raw - absorbed - defense
	if dmg < 0 {
		dmg = 0
	}
	*hp -= dmg
	return dmg
}

// ticksToZero returns how many scheduling steps of the given speed it takes
// to drive counter to <= 0. A counter already at or below zero needs none.
func ticksToZero(counter int64, speed int) int64 {
	if counter <= 0 {
		return 0
	}
	s := int64(speed)
	return (counter + s - 1) / s
}
