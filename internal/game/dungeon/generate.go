package dungeon

import "github.com/avheur/dicedelve/internal/game/dice"

// Generate rolls a fresh floor layout.
//
// One of four edge pairings is chosen uniformly, placing the entrance and
// exit within the two rows (or columns) hugging opposite edges. The boss
// lands uniformly in the central 4x4 block. Every other room rolls
// uniform[1,100]: <=50 empty, >80 item, otherwise monster. The entrance
// is marked explored so the player starts on known ground.
//
// Postcondition: the grid holds exactly one entrance, one exit, and one
// boss; the returned position is the entrance.
func Generate(src dice.Source) (Grid, Position) {
	var entranceRow, entranceCol, exitRow, exitCol int
	switch dice.Between(src, 1, 4) {
	case 1: // entrance north, exit south
		entranceRow, entranceCol = dice.Between(src, 0, 1), dice.Between(src, 0, 9)
		exitRow, exitCol = dice.Between(src, 8, 9), dice.Between(src, 0, 9)
	case 2: // entrance east, exit west
		entranceRow, entranceCol = dice.Between(src, 0, 9), dice.Between(src, 8, 9)
		exitRow, exitCol = dice.Between(src, 0, 9), dice.Between(src, 0, 1)
	case 3: // entrance south, exit north
		entranceRow, entranceCol = dice.Between(src, 8, 9), dice.Between(src, 0, 9)
		exitRow, exitCol = dice.Between(src, 0, 1), dice.Between(src, 0, 9)
	default: // entrance west, exit east
		entranceRow, entranceCol = dice.Between(src, 0, 9), dice.Between(src, 0, 1)
		exitRow, exitCol = dice.Between(src, 0, 9), dice.Between(src, 8, 9)
	}

	bossRow := dice.Between(src, 3, 6)
	bossCol := dice.Between(src, 3, 6)

	var g Grid
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			switch {
			case row == bossRow && col == bossCol:
				g.Set(row, col, Room(RoomBoss))
			case row == entranceRow && col == entranceCol:
				g.Set(row, col, Room(RoomEntrance).MarkExplored())
			case row == exitRow && col == exitCol:
				g.Set(row, col, Room(RoomExit))
			default:
				roll := dice.Between(src, 1, 100)
				switch {
				case roll <= 50:
					g.Set(row, col, Room(RoomEmpty))
				case roll > 80:
					g.Set(row, col, Room(RoomItem))
				default:
					g.Set(row, col, Room(RoomMonster))
				}
			}
		}
	}
	return g, NewPosition(entranceRow, entranceCol)
}
