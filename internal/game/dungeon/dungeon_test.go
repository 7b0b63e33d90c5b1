package dungeon_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/dungeon"
	"github.com/avheur/dicedelve/internal/game/item"
)

// fixedSource returns v mod n from every draw.
type fixedSource struct{ v int }

func (s fixedSource) Intn(n int) int { return s.v % n }

// fakeItems records the floors it was asked to generate loot for.
type fakeItems struct{ floors []int }

func (f *fakeItems) CreateItem(floor int) (item.Item, error) {
	f.floors = append(f.floors, floor)
	return item.Item{
		Kind:  item.KindShield,
		Name:  fmt.Sprintf("Lvl. %d Buckler", floor*10),
		Level: floor * 10,
	}, nil
}

func testEnv(src dice.Source, items dungeon.ItemSource) dungeon.Env {
	return dungeon.Env{Src: src, Items: items, Bestiary: battle.DefaultBestiary()}
}

// tankPC is fast and armored enough to survive any floor-1 opening.
func tankPC() battle.Combatant {
	return battle.Combatant{
		HP: 1000, MaxHP: 1000, Speed: 400, Defense: 1000, Attack: 5,
		AttackBudget: dice.Counts{9, 9, 9, 9, 9, 9},
		DefendBudget: dice.Counts{9, 9, 9, 9, 9, 9},
	}
}

// emptyDungeon builds a floor-1 dungeon of unexplored empty rooms with an
// explored entrance at 0,0, an exit at 9,9, and a boss at 5,5.
func emptyDungeon(pos dungeon.Position) *dungeon.Dungeon {
	var g dungeon.Grid
	g.Set(0, 0, dungeon.Room(dungeon.RoomEntrance).MarkExplored())
	g.Set(9, 9, dungeon.Room(dungeon.RoomExit))
	g.Set(5, 5, dungeon.Room(dungeon.RoomBoss))
	return &dungeon.Dungeon{PlayerID: 1, Floor: 1, Grid: g, Pos: pos}
}

func TestNew(t *testing.T) {
	d := dungeon.New(42, dice.NewSeededSource(1))

	assert.NotEqual(t, [16]byte{}, [16]byte(d.ID))
	assert.Equal(t, int64(42), d.PlayerID)
	assert.Equal(t, 1, d.Floor)
	assert.False(t, d.BossDefeated)
	assert.Nil(t, d.Battle)
	assert.Equal(t, dungeon.RoomEntrance, d.Grid.At(d.Pos.Row(), d.Pos.Col()).Type())
}

func TestMove_RejectsOutOfBounds(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))

	res, err := d.Move(dungeon.DirUp, tankPC(), testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveRejected, res.Status)
	assert.Equal(t, dungeon.NewPosition(0, 0), d.Pos)
}

func TestMove_RejectsUnknownDirection(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))

	res, err := d.Move(7, tankPC(), testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveRejected, res.Status)
	assert.Equal(t, dungeon.NewPosition(0, 0), d.Pos)
}

func TestMove_RejectsBlockedRoom(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))
	d.Grid.Set(0, 1, dungeon.Room(dungeon.RoomMonster).MarkExplored().MarkBlocked())

	res, err := d.Move(dungeon.DirRight, tankPC(), testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveRejected, res.Status)
	assert.Contains(t, res.Message, "sealed")
	assert.Equal(t, dungeon.NewPosition(0, 0), d.Pos)
}

func TestMove_RejectionNeverMutates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		g, _ := dungeon.Generate(dice.NewSeededSource(seed))

		row := rapid.IntRange(0, dungeon.Size-1).Draw(t, "row")
		col := rapid.IntRange(0, dungeon.Size-1).Draw(t, "col")
		dir := rapid.IntRange(dungeon.DirUp, dungeon.DirLeft).Draw(t, "dir")

		tRow, tCol := row, col
		switch dir {
		case dungeon.DirUp:
			tRow--
		case dungeon.DirRight:
			tCol++
		case dungeon.DirDown:
			tRow++
		case dungeon.DirLeft:
			tCol--
		}
		// In-bounds targets are sealed; out-of-bounds ones hit the wall.
		if tRow >= 0 && tRow < dungeon.Size && tCol >= 0 && tCol < dungeon.Size {
			g.Set(tRow, tCol, g.At(tRow, tCol).MarkBlocked())
		}

		d := dungeon.Dungeon{PlayerID: 1, Floor: 1, Grid: g, Pos: dungeon.NewPosition(row, col)}
		before := d
		items := &fakeItems{}

		res, err := d.Move(dir, tankPC(), testEnv(fixedSource{0}, items))
		require.NoError(t, err)
		assert.Equal(t, dungeon.MoveRejected, res.Status)
		assert.Equal(t, before.Grid, d.Grid, "grid untouched by a rejected move")
		assert.Equal(t, before.Pos, d.Pos, "position untouched by a rejected move")
		assert.Empty(t, items.floors, "no loot rolled on rejection")
	})
}

func TestMove_ExploredRoomIsSilent(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))
	d.Grid.Set(0, 1, dungeon.Room(dungeon.RoomEmpty).MarkExplored())
	items := &fakeItems{}

	res, err := d.Move(dungeon.DirRight, tankPC(), testEnv(fixedSource{0}, items))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveOK, res.Status)
	assert.False(t, res.BattleStarted)
	assert.Equal(t, dungeon.NewPosition(0, 1), d.Pos)
	assert.Empty(t, items.floors, "explored room must not re-trigger")
}

func TestMove_EmptyRoom(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))

	res, err := d.Move(dungeon.DirDown, tankPC(), testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveOK, res.Status)
	assert.True(t, d.Grid.At(1, 0).Explored())
	assert.Nil(t, d.Battle)
}

func TestMove_ItemRoomGeneratesLoot(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))
	d.Grid.Set(0, 1, dungeon.Room(dungeon.RoomItem))
	items := &fakeItems{}

	res, err := d.Move(dungeon.DirRight, tankPC(), testEnv(fixedSource{0}, items))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveOK, res.Status)
	assert.Equal(t, []int{1}, items.floors)
	assert.Contains(t, res.Message, "Buckler")
	assert.True(t, d.Grid.At(0, 1).Explored())
}

func TestMove_MonsterRoomStartsBattle(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))
	d.Grid.Set(0, 1, dungeon.Room(dungeon.RoomMonster))

	res, err := d.Move(dungeon.DirRight, tankPC(), testEnv(dice.NewSeededSource(11), &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveOK, res.Status)
	assert.True(t, res.BattleStarted)
	assert.Equal(t, battle.OutcomeContinue, res.Outcome)
	require.NotNil(t, d.Battle)
	assert.False(t, d.Battle.Boss)
	assert.Equal(t, byte(dungeon.NewPosition(0, 0)), d.Battle.ReturnPos)
	assert.Contains(t, res.Message, "stands in your way")
}

func TestMove_BossRoomStartsBossBattle(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(5, 4))

	res, err := d.Move(dungeon.DirRight, tankPC(), testEnv(dice.NewSeededSource(11), &fakeItems{}))
	require.NoError(t, err)
	assert.True(t, res.BattleStarted)
	require.NotNil(t, d.Battle)
	assert.True(t, d.Battle.Boss)
}

func TestMove_RejectedDuringBattle(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 1))
	d.Battle = &battle.Battle{Player: tankPC(), Enemy: &battle.Enemy{Name: "Goon", HP: 5, MaxHP: 5, Speed: 1}}

	res, err := d.Move(dungeon.DirLeft, tankPC(), testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveRejected, res.Status)
	assert.Contains(t, res.Message, "mid-battle")
	assert.Equal(t, dungeon.NewPosition(0, 1), d.Pos)
}

func TestBattleActions_RequireBattle(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))
	env := testEnv(fixedSource{0}, &fakeItems{})
	ledger := dice.Counts{}

	_, _, err := d.Attack(dice.Counts{}, &ledger, env)
	assert.ErrorIs(t, err, dungeon.ErrNoBattle)
	_, _, err = d.Defend(dice.Counts{}, &ledger, env)
	assert.ErrorIs(t, err, dungeon.ErrNoBattle)
	_, _, err = d.Retreat(env)
	assert.ErrorIs(t, err, dungeon.ErrNoBattle)
}

func TestAttack_BossKillUnlocksExitAndDropsBonus(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(5, 5))
	d.Battle = &battle.Battle{
		Boss:       true,
		ReturnPos:  byte(dungeon.NewPosition(5, 4)),
		Player:     tankPC(),
		PlayerInit: 0,
		EnemyInit:  battle.InitiativeMax,
		Enemy: &battle.Enemy{
			Name: "Floor Tyrant", HP: 1, MaxHP: 20, Speed: 1,
			Value: dice.Counts{3}, Pool: dice.Counts{3}, Spend: dice.Counts{1},
		},
	}
	items := &fakeItems{}
	ledger := dice.Counts{}

	logs, outcome, err := d.Attack(dice.Counts{}, &ledger, testEnv(fixedSource{0}, items))
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeEnemyDefeated, outcome)
	assert.True(t, d.BossDefeated)
	assert.Nil(t, d.Battle)
	assert.Equal(t, dice.Counts{3}, ledger, "kill awards the enemy's full value")
	assert.Equal(t, []int{3}, items.floors, "boss drop rolls two floors up")
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[len(logs)-1], "hoard")
}

func TestAttack_RegularKillHasNoBonus(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 1))
	d.Battle = &battle.Battle{
		ReturnPos:  byte(dungeon.NewPosition(0, 0)),
		Player:     tankPC(),
		PlayerInit: 0,
		EnemyInit:  battle.InitiativeMax,
		Enemy: &battle.Enemy{
			Name: "Goon", HP: 1, MaxHP: 10, Speed: 1,
			Value: dice.Counts{2}, Pool: dice.Counts{2}, Spend: dice.Counts{1},
		},
	}
	items := &fakeItems{}
	ledger := dice.Counts{}

	_, outcome, err := d.Attack(dice.Counts{}, &ledger, testEnv(fixedSource{0}, items))
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeEnemyDefeated, outcome)
	assert.False(t, d.BossDefeated)
	assert.Nil(t, d.Battle)
	assert.Empty(t, items.floors)
}

func TestAttack_BossEscapeStillUnlocksExit(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(5, 5))
	pc := tankPC()
	pc.Speed = 1
	d.Battle = &battle.Battle{
		Boss:       true,
		ReturnPos:  byte(dungeon.NewPosition(5, 4)),
		Player:     pc,
		PlayerInit: 0,
		EnemyInit:  battle.InitiativeMax,
		Enemy: &battle.Enemy{
			Name: "Floor Tyrant", HP: 20, MaxHP: 20, Speed: 5, Defense: 100,
			Value: dice.Counts{3}, Pool: dice.Counts{}, Spend: dice.Counts{1},
		},
	}
	items := &fakeItems{}
	ledger := dice.Counts{}

	_, outcome, err := d.Attack(dice.Counts{}, &ledger, testEnv(fixedSource{0}, items))
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeEnemyEscaped, outcome)
	assert.True(t, d.BossDefeated, "an escaped boss still counts as cleared")
	assert.Nil(t, d.Battle)
	assert.True(t, ledger.IsZero(), "no reward for an escape")
	assert.Empty(t, items.floors)
}

func TestDefend_SpendsLedgerAndContinues(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 1))
	d.Battle = &battle.Battle{
		ReturnPos:  byte(dungeon.NewPosition(0, 0)),
		Player:     tankPC(),
		PlayerInit: 0,
		EnemyInit:  battle.InitiativeMax,
		Enemy: &battle.Enemy{
			Name: "Goon", HP: 10, MaxHP: 10, Speed: 1,
			Value: dice.Counts{2}, Pool: dice.Counts{20}, Spend: dice.Counts{1},
		},
	}
	ledger := dice.Counts{5}

	_, outcome, err := d.Defend(dice.Counts{2}, &ledger, testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeContinue, outcome)
	assert.NotNil(t, d.Battle)
	assert.Equal(t, dice.Counts{3}, ledger)
}

func TestRetreat_SealsRoomAndRestoresPosition(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 1))
	d.Grid.Set(0, 1, dungeon.Room(dungeon.RoomMonster).MarkExplored())
	pc := tankPC()
	pc.Speed = 5
	d.Battle = &battle.Battle{
		ReturnPos:  byte(dungeon.NewPosition(0, 0)),
		Player:     pc,
		PlayerInit: 0,
		EnemyInit:  battle.InitiativeMax,
		Enemy: &battle.Enemy{
			Name: "Goon", HP: 10, MaxHP: 10, Speed: 1,
			Value: dice.Counts{2}, Pool: dice.Counts{20}, Spend: dice.Counts{1},
		},
	}

	logs, outcome, err := d.Retreat(testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeRetreated, outcome)
	assert.Nil(t, d.Battle)
	assert.Equal(t, dungeon.NewPosition(0, 0), d.Pos)
	assert.True(t, d.Grid.At(0, 1).Blocked(), "retreat seals the battle room")
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "slip away")

	// The sealed room stays off limits.
	res, err := d.Move(dungeon.DirRight, pc, testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, dungeon.MoveRejected, res.Status)
}

func TestRetreat_FailureKeepsBattle(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 1))
	d.Grid.Set(0, 1, dungeon.Room(dungeon.RoomMonster).MarkExplored())
	pc := tankPC()
	pc.Speed = 1
	d.Battle = &battle.Battle{
		ReturnPos:  byte(dungeon.NewPosition(0, 0)),
		Player:     pc,
		PlayerInit: 0,
		EnemyInit:  battle.InitiativeMax,
		Enemy: &battle.Enemy{
			Name: "Goon", HP: 10, MaxHP: 10, Speed: 1,
			Value: dice.Counts{2}, Pool: dice.Counts{20}, Spend: dice.Counts{1},
		},
	}

	logs, outcome, err := d.Retreat(testEnv(fixedSource{0}, &fakeItems{}))
	require.NoError(t, err)
	assert.Equal(t, battle.OutcomeContinue, outcome)
	assert.NotNil(t, d.Battle)
	assert.Equal(t, dungeon.NewPosition(0, 1), d.Pos)
	assert.False(t, d.Grid.At(0, 1).Blocked())
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "corners you")
}

func TestExitFloor_WrongRoom(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(4, 4))

	res := d.ExitFloor(dice.NewSeededSource(1))
	assert.Equal(t, dungeon.ExitWrongRoom, res.Status)
	assert.Equal(t, 1, d.Floor)
}

func TestExitFloor_SealedUntilBossDefeated(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(9, 9))

	res := d.ExitFloor(dice.NewSeededSource(1))
	assert.Equal(t, dungeon.ExitSealed, res.Status)
	assert.Equal(t, 1, d.Floor)

	d.BossDefeated = true
	res = d.ExitFloor(dice.NewSeededSource(1))
	assert.Equal(t, dungeon.ExitAdvanced, res.Status)
	assert.Equal(t, 2, d.Floor)
	assert.False(t, d.BossDefeated, "the gate re-arms on the new floor")
	assert.Equal(t, dungeon.RoomEntrance, d.Grid.At(d.Pos.Row(), d.Pos.Col()).Type())
}

func TestExitFloor_EntranceReturnsToTown(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(0, 0))
	d.Floor = 3

	res := d.ExitFloor(dice.NewSeededSource(1))
	assert.Equal(t, dungeon.ExitTown, res.Status)
	assert.Equal(t, 3, d.Floor)
}

func TestRender_FogOfWar(t *testing.T) {
	d := emptyDungeon(dungeon.NewPosition(8, 8))
	d.Grid.Set(0, 1, dungeon.Room(dungeon.RoomEmpty).MarkExplored())
	d.Grid.Set(0, 2, dungeon.Room(dungeon.RoomMonster))
	d.Grid.Set(0, 3, dungeon.Room(dungeon.RoomMonster).MarkExplored().MarkBlocked())
	d.Grid.Set(0, 4, dungeon.Room(dungeon.RoomExit).MarkExplored())

	view := d.Render()
	assert.Equal(t, dungeon.ViewEntrance, view[0][0])
	assert.Equal(t, dungeon.ViewExplored, view[0][1])
	assert.Equal(t, dungeon.ViewUnexplored, view[0][2], "unexplored rooms hide their type")
	assert.Equal(t, dungeon.ViewBlocked, view[0][3])
	assert.Equal(t, dungeon.ViewExit, view[0][4])
	assert.Equal(t, dungeon.ViewUnexplored, view[5][5], "the boss room is hidden too")
	assert.Equal(t, dungeon.ViewUnexplored, view[9][9], "the unexplored exit is hidden")
	assert.Equal(t, dungeon.ViewPlayer, view[8][8])
}

func TestRender_FreshDungeonShowsOnlyPlayer(t *testing.T) {
	d := dungeon.New(1, dice.NewSeededSource(3))

	view := d.Render()
	for row := 0; row < dungeon.Size; row++ {
		for col := 0; col < dungeon.Size; col++ {
			if row == d.Pos.Row() && col == d.Pos.Col() {
				assert.Equal(t, dungeon.ViewPlayer, view[row][col])
			} else {
				assert.Equal(t, dungeon.ViewUnexplored, view[row][col])
			}
		}
	}
}
