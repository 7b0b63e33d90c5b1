package dungeon

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/item"
)

// Direction codes for Move.
const (
	DirUp    = 0
	DirRight = 1
	DirDown  = 2
	DirLeft  = 3
)

// Move status codes.
const (
	// MoveOK means the player moved (and possibly triggered the room).
	MoveOK = 0
	// MoveRejected means validation failed and nothing changed.
	MoveRejected = 1
)

// ExitFloor status codes.
const (
	// ExitTown means the player left through the entrance; the caller
	// must bank the adventure inventory and destroy the dungeon.
	ExitTown = 0
	// ExitAdvanced means the grid was regenerated one floor down.
	ExitAdvanced = 1
	// ExitWrongRoom means the current room is neither entrance nor exit.
	ExitWrongRoom = 2
	// ExitSealed means the exit stays shut until the boss is defeated.
	ExitSealed = 3
)

// Render cell codes for the client-facing view.
const (
	ViewUnexplored = 0
	ViewExplored   = 1
	ViewBlocked    = 2
	ViewEntrance   = 3
	ViewExit       = 4
	ViewPlayer     = 5
)

// ErrNoBattle is returned for battle actions while exploring.
var ErrNoBattle = errors.New("no battle in progress")

// ItemSource is the item-generation collaborator: it creates and persists
// a new adventure-inventory item for the given floor.
type ItemSource interface {
	CreateItem(floor int) (item.Item, error)
}

// Env bundles the collaborators a dungeon operation needs.
type Env struct {
	Src      dice.Source
	Items    ItemSource
	Bestiary battle.Bestiary
}

// Dungeon is one player's active expedition: the current floor's grid,
// the player's position, and at most one live battle.
//
// ID is assigned at creation; the persistence layer keys dungeons by
// player, one each.
type Dungeon struct {
	ID           uuid.UUID
	PlayerID     int64
	Floor        int
	Grid         Grid
	Pos          Position
	BossDefeated bool
	Battle       *battle.Battle
}

// New creates a floor-1 dungeon with a fresh grid.
//
// Precondition: src must be non-nil.
func New(playerID int64, src dice.Source) *Dungeon {
	grid, pos := Generate(src)
	return &Dungeon{
		ID:       uuid.New(),
		PlayerID: playerID,
		Floor:    1,
		Grid:     grid,
		Pos:      pos,
	}
}

// MoveResult reports the outcome of a Move.
type MoveResult struct {
	Status  int
	Message string
	// BattleStarted marks that the target room spawned a battle; Outcome
	// then carries the state after any pre-simulated enemy turns.
	BattleStarted bool
	Outcome       battle.Outcome
}

// Move walks the player one room in the given direction and triggers the
// target room if it was unexplored.
//
// Postcondition: on MoveRejected nothing has changed; on MoveOK the
// player's position is the target room and the room is explored.
func (d *Dungeon) Move(dir int, pc battle.Combatant, env Env) (MoveResult, error) {
	if d.Battle != nil {
		return MoveResult{Status: MoveRejected, Message: "You cannot walk away mid-battle."}, nil
	}

	row, col := d.Pos.Row(), d.Pos.Col()
	switch dir {
	case DirUp:
		row--
	case DirRight:
		col++
	case DirDown:
		row++
	case DirLeft:
		col--
	default:
		return MoveResult{Status: MoveRejected, Message: fmt.Sprintf("Unknown direction %d.", dir)}, nil
	}
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return MoveResult{Status: MoveRejected, Message: "A wall blocks the way."}, nil
	}

	room := d.Grid.At(row, col)
	if room.Blocked() {
		return MoveResult{Status: MoveRejected, Message: "That room was sealed behind you."}, nil
	}
	if room.Explored() {
		d.Pos = NewPosition(row, col)
		return MoveResult{Status: MoveOK, Message: "You move on."}, nil
	}

	returnPos := d.Pos
	d.Grid.Set(row, col, room.MarkExplored())
	d.Pos = NewPosition(row, col)

	switch room.Type() {
	case RoomEmpty:
		return MoveResult{Status: MoveOK, Message: "An empty room. Dust settles around you."}, nil
	case RoomItem:
		it, err := env.Items.CreateItem(d.Floor)
		if err != nil {
			return MoveResult{}, fmt.Errorf("generating room loot: %w", err)
		}
		return MoveResult{Status: MoveOK, Message: fmt.Sprintf("You found a %s!", it.Name)}, nil
	case RoomMonster, RoomBoss:
		return d.startBattle(room.Type() == RoomBoss, returnPos, pc, env), nil
	case RoomExit:
		return MoveResult{Status: MoveOK, Message: "You found the stairs leading down."}, nil
	default:
		// Entrance rooms are generated pre-explored, so reaching this arm
		// means the packed grid byte is corrupt.
		panic(fmt.Sprintf("dungeon: unexplored room of type %d at %d,%d", room.Type(), row, col))
	}
}

// startBattle spawns a battle in the room just entered and resolves the
// opening initiative, including any enemy turns it cascades into.
func (d *Dungeon) startBattle(boss bool, returnPos Position, pc battle.Combatant, env Env) MoveResult {
	b, logs, outcome := battle.Start(pc, d.Floor, boss, byte(returnPos), env.Bestiary, env.Src)
	d.Battle = b
	d.resolveOutcome(outcome)
	return MoveResult{
		Status:        MoveOK,
		Message:       joinLog(logs),
		BattleStarted: true,
		Outcome:       outcome,
	}
}

// Attack runs a player attack in the active battle and applies any
// terminal outcome to the dungeon: boss flags, reward logging, battle
// teardown. The bonus boss drop is generated two floors above the
// current one.
func (d *Dungeon) Attack(requested dice.Counts, ledger *dice.Counts, env Env) ([]string, battle.Outcome, error) {
	if d.Battle == nil {
		return nil, battle.OutcomeContinue, ErrNoBattle
	}
	wasBoss := d.Battle.Boss
	logs, outcome, err := d.Battle.PlayerAttack(requested, ledger, env.Src)
	if err != nil {
		return nil, outcome, err
	}
	if outcome == battle.OutcomeEnemyDefeated && wasBoss {
		it, genErr := env.Items.CreateItem(d.Floor + 2)
		if genErr != nil {
			return nil, outcome, fmt.Errorf("generating boss drop: %w", genErr)
		}
		logs = append(logs, fmt.Sprintf("The boss's hoard yields a %s!", it.Name))
	}
	d.resolveOutcome(outcome)
	return logs, outcome, nil
}

// Defend runs a player defend in the active battle.
func (d *Dungeon) Defend(requested dice.Counts, ledger *dice.Counts, env Env) ([]string, battle.Outcome, error) {
	if d.Battle == nil {
		return nil, battle.OutcomeContinue, ErrNoBattle
	}
	logs, outcome, err := d.Battle.PlayerDefend(requested, ledger, env.Src)
	if err != nil {
		return nil, outcome, err
	}
	d.resolveOutcome(outcome)
	return logs, outcome, nil
}

// Retreat runs the chase check. A successful retreat seals the battle
// room behind the player and restores the pre-battle position.
func (d *Dungeon) Retreat(env Env) ([]string, battle.Outcome, error) {
	if d.Battle == nil {
		return nil, battle.OutcomeContinue, ErrNoBattle
	}
	logs, outcome, err := d.Battle.PlayerRetreat(env.Src)
	if err != nil {
		return nil, outcome, err
	}
	if outcome == battle.OutcomeRetreated {
		row, col := d.Pos.Row(), d.Pos.Col()
		d.Grid.Set(row, col, d.Grid.At(row, col).MarkBlocked())
		d.Pos = Position(d.Battle.ReturnPos)
	}
	d.resolveOutcome(outcome)
	return logs, outcome, nil
}

// resolveOutcome tears down the battle on any terminal outcome and keeps
// the boss gate in sync. A boss that escapes still unlocks the exit.
func (d *Dungeon) resolveOutcome(outcome battle.Outcome) {
	if d.Battle == nil || outcome == battle.OutcomeContinue {
		return
	}
	if d.Battle.Boss && (outcome == battle.OutcomeEnemyDefeated || outcome == battle.OutcomeEnemyEscaped) {
		d.BossDefeated = true
	}
	d.Battle = nil
}

// ExitResult reports the outcome of ExitFloor.
type ExitResult struct {
	Status  int
	Message string
}

// ExitFloor leaves the floor through the room the player stands in.
//
// On the entrance the expedition ends (the caller banks the inventory and
// destroys the dungeon). On the exit, a defeated boss unlocks descent:
// the grid regenerates in place one floor down.
func (d *Dungeon) ExitFloor(src dice.Source) ExitResult {
	switch d.Grid.At(d.Pos.Row(), d.Pos.Col()).Type() {
	case RoomEntrance:
		return ExitResult{Status: ExitTown, Message: "You climb back out and return to town."}
	case RoomExit:
		if !d.BossDefeated {
			return ExitResult{Status: ExitSealed, Message: "The stairs are sealed by the floor's master."}
		}
		d.Floor++
		d.Grid, d.Pos = Generate(src)
		d.BossDefeated = false
		return ExitResult{Status: ExitAdvanced, Message: fmt.Sprintf("You descend to floor %d.", d.Floor)}
	default:
		return ExitResult{Status: ExitWrongRoom, Message: "You cannot leave from here."}
	}
}

// Render projects the grid into the client view matrix. Unexplored rooms
// never reveal their type; the player's own cell always renders as
// ViewPlayer.
func (d *Dungeon) Render() [Size][Size]int {
	var view [Size][Size]int
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			view[row][col] = renderRoom(d.Grid.At(row, col))
		}
	}
	view[d.Pos.Row()][d.Pos.Col()] = ViewPlayer
	return view
}

func renderRoom(r Room) int {
	switch {
	case r.Blocked():
		return ViewBlocked
	case !r.Explored():
		return ViewUnexplored
	case r.Type() == RoomEntrance:
		return ViewEntrance
	case r.Type() == RoomExit:
		return ViewExit
	default:
		return ViewExplored
	}
}

func joinLog(logs []string) string {
	msg := ""
	for i, l := range logs {
		if i > 0 {
			msg += "\n"
		}
		msg += l
	}
	return msg
}
