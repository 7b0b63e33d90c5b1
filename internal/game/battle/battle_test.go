package battle_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
)

// fixedSource always returns v % n, making every die roll its minimum when
// v == 0 and coin flips deterministic.
type fixedSource struct{ v int }

func (s fixedSource) Intn(n int) int { return s.v % n }

// dummyBattle builds a hand-rolled battle in a known state. Both sides are
// too tough to die so the clock can be observed in isolation.
func dummyBattle(playerSpeed, enemySpeed int) *battle.Battle {
	return &battle.Battle{
		Player: battle.Combatant{
			HP: 1000, MaxHP: 1000, Speed: playerSpeed, Defense: 1000,
		},
		PlayerInit: battle.InitiativeMax,
		EnemyInit:  battle.InitiativeMax,
		Enemy: &battle.Enemy{
			Name: "Dummy", HP: 1000, MaxHP: 1000, Speed: enemySpeed,
			Value: dice.Counts{1000, 0, 0, 0, 0, 0},
			Pool:  dice.Counts{1000, 0, 0, 0, 0, 0},
			Spend: dice.Counts{1, 0, 0, 0, 0, 0},
		},
	}
}

// countEnemyTurns runs n player attacks with no dice and counts the enemy
// actions interleaved by the clock.
func countEnemyTurns(t *testing.T, b *battle.Battle, n int) int {
	t.Helper()
	ledger := dice.Counts{}
	src := fixedSource{0}
	turns := 0
	for i := 0; i < n; i++ {
		logs, outcome, err := b.PlayerAttack(dice.Counts{}, &ledger, src)
		require.NoError(t, err)
		require.Equal(t, battle.OutcomeContinue, outcome)
		for _, line := range logs {
			if strings.Contains(line, "attacks:") {
				turns++
			}
		}
	}
	return turns
}

// TestClock_SpeedProportional verifies turn frequency tracks relative
// speed: a side twice as fast acts twice as often.
func TestClock_SpeedProportional(t *testing.T) {
	assert.Equal(t, 10, countEnemyTurns(t, dummyBattle(2, 1), 20),
		"enemy at half speed gets one turn per two player turns")
	assert.Equal(t, 40, countEnemyTurns(t, dummyBattle(1, 2), 20),
		"enemy at double speed gets two turns per player turn")
	assert.Equal(t, 20, countEnemyTurns(t, dummyBattle(3, 3), 20),
		"equal speeds alternate exactly")
}

// TestClock_Deterministic verifies identical state and seed replay the
// same battle.
func TestClock_Deterministic(t *testing.T) {
	runOnce := func() []string {
		b := dummyBattle(3, 2)
		ledger := dice.Counts{4, 0, 0, 0, 0, 0}
		src := dice.NewSeededSource(99)
		var all []string
		for i := 0; i < 10; i++ {
			logs, _, err := b.PlayerAttack(dice.Counts{1, 0, 0, 0, 0, 0}, &ledger, src)
			require.NoError(t, err)
			all = append(all, logs...)
		}
		return all
	}
	assert.Equal(t, runOnce(), runOnce())
}

// TestEnemyTurn_EmptyPoolFlees verifies an enemy whose dice pool is
// exhausted attempts to flee instead of attacking.
func TestEnemyTurn_EmptyPoolFlees(t *testing.T) {
	b := dummyBattle(1, 1)
	b.Enemy.Pool = dice.Counts{}
	ledger := dice.Counts{}

	logs, _, err := b.PlayerAttack(dice.Counts{}, &ledger, fixedSource{0})
	require.NoError(t, err)

	joined := strings.Join(logs, "\n")
	assert.Contains(t, joined, "bolt", "the enemy must attempt to flee")
	assert.NotContains(t, joined, "attacks:", "the enemy must not attack with an empty pool")
}

// TestEnemyTurn_FleeSucceeds verifies a successful flee resolves the
// battle with no reward and marks the escape sentinel.
func TestEnemyTurn_FleeSucceeds(t *testing.T) {
	b := dummyBattle(1, 5)
	b.Enemy.Pool = dice.Counts{}
	ledger := dice.Counts{}

	// All dice roll 1: escape 5d4 (5) beats chase 1d4 (1).
	_, outcome, err := b.PlayerAttack(dice.Counts{}, &ledger, fixedSource{0})
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeEnemyEscaped, outcome)
	assert.Equal(t, battle.EscapeSentinel, b.EnemyInit)
	assert.True(t, b.Resolved())
	assert.True(t, ledger.IsZero(), "an escaped enemy yields no reward")
}

// TestPlayerAttack_DamageOrdering verifies damage resolves against the
// enemy guard first, then base defense, then HP.
func TestPlayerAttack_DamageOrdering(t *testing.T) {
	b := dummyBattle(2, 1)
	b.Player.Attack = 10
	b.Player.AttackBudget = dice.Counts{0, 0, 0, 0, 0, 1}
	b.Enemy.Guard = 3
	b.Enemy.Defense = 2
	b.Enemy.HP = 20
	ledger := dice.Counts{0, 0, 0, 0, 0, 1}

	// The d20 rolls 1: raw 11, guard absorbs 3, defense eats 2, HP takes 6.
	logs, outcome, err := b.PlayerAttack(dice.Counts{0, 0, 0, 0, 0, 1}, &ledger, fixedSource{0})
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeContinue, outcome)
	assert.Equal(t, 0, b.Enemy.Guard)
	assert.Equal(t, 14, b.Enemy.HP)
	assert.Contains(t, logs[0], "takes 6 damage")
	assert.Equal(t, 0, ledger[5], "the spent die leaves the ledger")
}

// TestPlayerAttack_ClampsToProfileAndLedger verifies requested spend is
// capped by the weapon profile and then by what the ledger holds.
func TestPlayerAttack_ClampsToProfileAndLedger(t *testing.T) {
	b := dummyBattle(1, 1)
	b.Player.AttackBudget = dice.Counts{2, 1, 0, 0, 0, 0}
	ledger := dice.Counts{1, 5, 0, 0, 0, 9}

	_, _, err := b.PlayerAttack(dice.Counts{9, 9, 9, 9, 9, 9}, &ledger, fixedSource{0})
	require.NoError(t, err)
	assert.Equal(t, dice.Counts{0, 4, 0, 0, 0, 9}, ledger,
		"spend is min(requested, profile, ledger) per denomination")
}

// TestPlayerAttack_KillAwardsValue verifies defeating the enemy pays out
// its full initial dice value regardless of what it already spent.
func TestPlayerAttack_KillAwardsValue(t *testing.T) {
	b := dummyBattle(1, 1)
	b.Player.Attack = 3
	b.Player.AttackBudget = dice.Counts{1, 0, 0, 0, 0, 0}
	b.Enemy.HP = 1
	b.Enemy.Value = dice.Counts{0, 0, 0, 0, 0, 2}
	b.Enemy.Pool = dice.Counts{0, 0, 0, 0, 0, 1}
	ledger := dice.Counts{1, 0, 0, 0, 0, 0}

	logs, outcome, err := b.PlayerAttack(dice.Counts{1, 0, 0, 0, 0, 0}, &ledger, fixedSource{0})
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeEnemyDefeated, outcome)
	assert.Equal(t, dice.Counts{0, 0, 0, 0, 0, 2}, ledger)
	assert.Contains(t, strings.Join(logs, "\n"), "falls")

	_, _, err = b.PlayerAttack(dice.Counts{}, &ledger, fixedSource{0})
	assert.ErrorIs(t, err, battle.ErrOver, "a resolved battle accepts no actions")
}

// TestPlayerDefend_GuardAbsorbs verifies the defend buffer soaks the next
// enemy attack and never drives damage negative.
func TestPlayerDefend_GuardAbsorbs(t *testing.T) {
	b := dummyBattle(1, 1)
	b.Player.Defense = 0
	b.Player.DefendBudget = dice.Counts{0, 0, 0, 0, 0, 2}
	ledger := dice.Counts{0, 0, 0, 0, 0, 2}

	// Two d20s roll 1 each: guard 2. The enemy's 1d4 rolls 1, fully absorbed.
	logs, outcome, err := b.PlayerDefend(dice.Counts{0, 0, 0, 0, 0, 2}, &ledger, fixedSource{0})
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeContinue, outcome)
	assert.Equal(t, 1000, b.Player.HP, "the guard must absorb the hit")
	assert.Contains(t, strings.Join(logs, "\n"), "take 0 damage")
	assert.Equal(t, 0, b.PlayerGuard, "guard resets when the player's turn begins")
}

// TestPlayerRetreat verifies both branches of the chase check.
func TestPlayerRetreat(t *testing.T) {
	// Player speed 5 vs enemy 1: 5d4 (5) > 1d4 (1), escape succeeds.
	b := dummyBattle(5, 1)
	logs, outcome, err := b.PlayerRetreat(fixedSource{0})
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeRetreated, outcome)
	assert.Contains(t, logs[0], "5d4 (5) vs. 1d4 (1)")

	// Equal totals are not enough: the chase continues and the enemy acts.
	b = dummyBattle(1, 1)
	logs, outcome, err = b.PlayerRetreat(fixedSource{0})
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeContinue, outcome)
	assert.Contains(t, strings.Join(logs, "\n"), "corners you")
}

// TestEnemyTurn_DefendsWhenBloodied verifies the bloodied enemy spends its
// budget on guard instead of attacking when the coin lands on defend.
func TestEnemyTurn_DefendsWhenBloodied(t *testing.T) {
	b := dummyBattle(1, 1)
	b.Enemy.HP = 400 // at or below half of MaxHP 1000
	ledger := dice.Counts{}

	// Intn always returns 1: the defend coin comes up 1 and each d4 rolls 2.
	logs, _, err := b.PlayerAttack(dice.Counts{}, &ledger, fixedSource{1})
	require.NoError(t, err)
	joined := strings.Join(logs, "\n")
	assert.Contains(t, joined, "hunkers down")
	assert.NotContains(t, joined, "you take")
	assert.Equal(t, 2, b.Enemy.Guard, "guard equals the rolled total")
	assert.Equal(t, 999, b.Enemy.Pool[0], "the defend spend leaves the pool")
}

// TestStart_InitiativeBranches scans seeds to exercise both initiative
// outcomes and verifies the enemy-first branch simulates enemy turns
// before handing the player the turn.
func TestStart_InitiativeBranches(t *testing.T) {
	pc := battle.Combatant{HP: 500, MaxHP: 500, Speed: 20, Defense: 500}
	sawPlayerFirst, sawEnemyFirst := false, false
	for seed := int64(0); seed < 64 && !(sawPlayerFirst && sawEnemyFirst); seed++ {
		b, logs, outcome := battle.Start(pc, 1, false, 0, battle.DefaultBestiary(), dice.NewSeededSource(seed))
		require.NotNil(t, b)
		joined := strings.Join(logs, "\n")
		require.Contains(t, joined, "stands in your way")
		switch {
		case strings.Contains(joined, "quicker on the draw"):
			sawPlayerFirst = true
			assert.Equal(t, battle.OutcomeContinue, outcome)
		case strings.Contains(joined, "moves first"):
			sawEnemyFirst = true
			if outcome == battle.OutcomeContinue {
				assert.False(t, b.Resolved())
				assert.LessOrEqual(t, b.PlayerInit, int64(0),
					"after the opening enemy turns it must be the player's turn")
			}
		}
	}
	assert.True(t, sawPlayerFirst, "expected a player-first opening within 64 seeds")
	assert.True(t, sawEnemyFirst, "expected an enemy-first opening within 64 seeds")
}

// TestAttemptRetreat_LogFormat pins the chase-check log format.
func TestAttemptRetreat_LogFormat(t *testing.T) {
	ok, log := battle.AttemptRetreat(3, 2, fixedSource{0})
	assert.True(t, ok)
	assert.Equal(t, "3d4 (3) vs. 2d4 (2)", log)
}

// TestRollInitiative_TieFavorsPlayer verifies equal rolls go to the player.
func TestRollInitiative_TieFavorsPlayer(t *testing.T) {
	assert.True(t, battle.RollInitiative(4, 4, fixedSource{0}))
}
