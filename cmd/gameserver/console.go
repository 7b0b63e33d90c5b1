package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/dungeon"
	"github.com/avheur/dicedelve/internal/gameserver"
	"github.com/avheur/dicedelve/internal/storage/postgres"
)

// console is a line-oriented operator shell over the game service. It is
// the binary's interactive surface; one player is active at a time.
type console struct {
	ctx      context.Context
	svc      *gameserver.Service
	store    *postgres.Store
	playerID int64
	stopped  atomic.Bool
}

func newConsole(ctx context.Context, svc *gameserver.Service, store *postgres.Store) *console {
	return &console{ctx: ctx, svc: svc, store: store}
}

// Start reads commands from stdin until EOF or Stop.
func (c *console) Start() error {
	fmt.Println("dicedelve console; 'help' lists commands")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if c.stopped.Load() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			return nil
		}
		if out, err := c.dispatch(line); err != nil {
			fmt.Println("error:", err)
		} else if out != "" {
			fmt.Println(out)
		}
	}
	return scanner.Err()
}

// Stop makes Start return after its current command.
func (c *console) Stop() {
	c.stopped.Store(true)
}

var directions = map[string]int{
	"up": dungeon.DirUp, "u": dungeon.DirUp,
	"right": dungeon.DirRight, "r": dungeon.DirRight,
	"down": dungeon.DirDown, "d": dungeon.DirDown,
	"left": dungeon.DirLeft, "l": dungeon.DirLeft,
}

func (c *console) dispatch(line string) (string, error) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		return helpText, nil

	case "player":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: player <name>")
		}
		p, err := c.svc.CreatePlayer(c.ctx, args[0])
		if err != nil {
			return "", err
		}
		c.playerID = p.ID
		return fmt.Sprintf("playing as %s (id %d), ledger %s", p.Name, p.ID, formatLedger(p.Ledger)), nil

	case "use":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: use <player-id>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", fmt.Errorf("bad player id %q", args[0])
		}
		p, err := c.store.GetPlayer(c.ctx, id)
		if err != nil {
			return "", err
		}
		c.playerID = p.ID
		return fmt.Sprintf("playing as %s (id %d), ledger %s", p.Name, p.ID, formatLedger(p.Ledger)), nil

	case "enter":
		v, err := c.svc.EnterDungeon(c.ctx, c.playerID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("floor %d\n%s", v.Floor, drawGrid(v)), nil

	case "move":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: move <up|right|down|left>")
		}
		dir, ok := directions[args[0]]
		if !ok {
			return "", fmt.Errorf("unknown direction %q", args[0])
		}
		_, msg, err := c.svc.Move(c.ctx, c.playerID, dir)
		if err != nil {
			return "", err
		}
		return msg, nil

	case "map":
		v, err := c.svc.Render(c.ctx, c.playerID)
		if err != nil {
			return "", err
		}
		return drawGrid(v), nil

	case "exit":
		_, msg, err := c.svc.ExitFloor(c.ctx, c.playerID)
		if err != nil {
			return "", err
		}
		return msg, nil

	case "attack", "defend":
		spend, err := parseSpend(args)
		if err != nil {
			return "", err
		}
		var res gameserver.BattleResult
		if cmd == "attack" {
			res, err = c.svc.Attack(c.ctx, c.playerID, spend)
		} else {
			res, err = c.svc.Defend(c.ctx, c.playerID, spend)
		}
		if err != nil {
			return "", err
		}
		return formatBattle(res), nil

	case "retreat":
		res, err := c.svc.Retreat(c.ctx, c.playerID)
		if err != nil {
			return "", err
		}
		return formatBattle(res), nil

	case "split":
		if len(args) != 3 {
			return "", fmt.Errorf("usage: split <from-die> <to-die> <amount>")
		}
		from, to, amount, err := parseConversion(args[0], args[1], args[2])
		if err != nil {
			return "", err
		}
		status, ledger, err := c.svc.SplitDice(c.ctx, c.playerID, from, to, amount)
		if err != nil {
			return "", err
		}
		return formatConversion(status, ledger), nil

	case "fuse":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: fuse <die> <amount>")
		}
		from, _, amount, err := parseConversion(args[0], args[0], args[1])
		if err != nil {
			return "", err
		}
		status, ledger, err := c.svc.FuseDice(c.ctx, c.playerID, from, amount)
		if err != nil {
			return "", err
		}
		return formatConversion(status, ledger), nil

	case "items", "vault":
		items, err := c.store.Items.ListShard(c.ctx, c.playerID, cmd == "vault")
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			return "(empty)", nil
		}
		var sb strings.Builder
		for _, it := range items {
			fmt.Fprintf(&sb, "%4d  %-7s %s\n", it.ID, it.Kind, it.Name)
		}
		return strings.TrimRight(sb.String(), "\n"), nil

	case "equip", "unequip":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s <item-id>", cmd)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", fmt.Errorf("bad item id %q", args[0])
		}
		if cmd == "equip" {
			err = c.svc.EquipItem(c.ctx, c.playerID, id)
		} else {
			err = c.svc.UnequipItem(c.ctx, c.playerID, id)
		}
		if err != nil {
			return "", err
		}
		return "done", nil

	default:
		return "", fmt.Errorf("unknown command %q; 'help' lists commands", cmd)
	}
}

const helpText = `player <name>            create a player and select it
use <player-id>          select an existing player
enter                    start (or resume) an expedition
move <up|right|down|left>
map                      show the explored floor
exit                     leave via the room you stand in
attack [NdF ...]         e.g. attack 2d4 1d6
defend [NdF ...]
retreat
split <from> <to> <n>    e.g. split d20 d4 1
fuse <die> <n>           e.g. fuse d4 2
items | vault            list an inventory shard
equip <item-id> | unequip <item-id>
quit`

// parseSpend turns tokens like "2d6" into a dice spend request.
func parseSpend(args []string) (dice.Counts, error) {
	var spend dice.Counts
	for _, tok := range args {
		n, die, ok := strings.Cut(tok, "d")
		if !ok {
			return dice.Counts{}, fmt.Errorf("bad dice token %q, want NdF", tok)
		}
		count, err := strconv.Atoi(n)
		if err != nil || count < 0 {
			return dice.Counts{}, fmt.Errorf("bad dice count in %q", tok)
		}
		idx, err := dieIndex("d" + die)
		if err != nil {
			return dice.Counts{}, err
		}
		spend[idx] += count
	}
	return spend, nil
}

func parseConversion(fromTok, toTok, amountTok string) (from, to, amount int, err error) {
	if from, err = dieIndex(fromTok); err != nil {
		return 0, 0, 0, err
	}
	if to, err = dieIndex(toTok); err != nil {
		return 0, 0, 0, err
	}
	if amount, err = strconv.Atoi(amountTok); err != nil {
		return 0, 0, 0, fmt.Errorf("bad amount %q", amountTok)
	}
	return from, to, amount, nil
}

func dieIndex(tok string) (int, error) {
	faces, err := strconv.Atoi(strings.TrimPrefix(tok, "d"))
	if err != nil {
		return 0, fmt.Errorf("bad die %q, want d4..d20", tok)
	}
	for i, f := range dice.Faces {
		if f == faces {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no such die %q", tok)
}

func formatLedger(c dice.Counts) string {
	parts := make([]string, 0, dice.NumDenominations)
	for i, n := range c {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%dd%d", n, dice.Faces[i]))
		}
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

func formatBattle(res gameserver.BattleResult) string {
	lines := append([]string{}, res.Log...)
	lines = append(lines, "ledger: "+formatLedger(res.Ledger))
	return strings.Join(lines, "\n")
}

func formatConversion(status dice.Status, ledger dice.Counts) string {
	switch status {
	case dice.StatusOK:
		return "ledger: " + formatLedger(ledger)
	case dice.StatusInsufficient:
		return "not enough dice"
	case dice.StatusNotConvertible:
		return "those dice cannot be converted that way"
	default:
		return "no such die"
	}
}

var viewGlyphs = map[int]rune{
	dungeon.ViewUnexplored: '?',
	dungeon.ViewExplored:   '.',
	dungeon.ViewBlocked:    '#',
	dungeon.ViewEntrance:   '<',
	dungeon.ViewExit:       '>',
	dungeon.ViewPlayer:     '@',
}

func drawGrid(v gameserver.DungeonView) string {
	var sb strings.Builder
	for _, row := range v.Grid {
		for _, cell := range row {
			sb.WriteRune(viewGlyphs[cell])
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	if v.InBattle {
		sb.WriteString("(in battle)")
	}
	return strings.TrimRight(sb.String(), "\n ")
}
