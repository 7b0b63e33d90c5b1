// Package dungeon implements the 10x10 floor grid, its packed per-room
// state, procedural floor generation, and the exploration state machine
// that moves the player between rooms and into battles.
package dungeon

import "fmt"

// Size is the edge length of the square floor grid.
const Size = 10

// RoomCount is the number of rooms per floor.
const RoomCount = Size * Size

// RoomType is the content of a room, stored in the low six bits of its
// packed byte.
type RoomType byte

const (
	RoomEmpty    RoomType = 0
	RoomItem     RoomType = 1
	RoomMonster  RoomType = 2
	RoomBoss     RoomType = 3
	RoomEntrance RoomType = 4
	RoomExit     RoomType = 5
)

// String returns the human-readable room type name.
func (rt RoomType) String() string {
	switch rt {
	case RoomEmpty:
		return "empty"
	case RoomItem:
		return "item"
	case RoomMonster:
		return "monster"
	case RoomBoss:
		return "boss"
	case RoomEntrance:
		return "entrance"
	case RoomExit:
		return "exit"
	default:
		return "unknown"
	}
}

const (
	typeMask     byte = 0x3f
	flagExplored byte = 0x40
	flagBlocked  byte = 0x80
)

// Room is one packed grid cell: type in the low six bits, explored at bit
// six, blocked at bit seven.
type Room byte

// Type returns the room's content type.
func (r Room) Type() RoomType { return RoomType(byte(r) & typeMask) }

// Explored reports whether the player has entered this room before.
func (r Room) Explored() bool { return byte(r)&flagExplored != 0 }

// Blocked reports whether the room was sealed by a successful retreat.
func (r Room) Blocked() bool { return byte(r)&flagBlocked != 0 }

// MarkExplored returns the room with the explored bit set.
func (r Room) MarkExplored() Room { return r | Room(flagExplored) }

// MarkBlocked returns the room with the blocked bit set.
func (r Room) MarkBlocked() Room { return r | Room(flagBlocked) }

// Grid is a floor's rooms in row-major order. Its in-memory layout is
// exactly the persisted 100-byte encoding.
type Grid [RoomCount]Room

// At returns the room at the given coordinates.
//
// Precondition: row and col must be in [0, Size).
func (g *Grid) At(row, col int) Room {
	return g[row*Size+col]
}

// Set replaces the room at the given coordinates.
//
// Precondition: row and col must be in [0, Size).
func (g *Grid) Set(row, col int, r Room) {
	g[row*Size+col] = r
}

// Bytes returns the persisted 1-byte-per-room encoding.
func (g *Grid) Bytes() []byte {
	buf := make([]byte, RoomCount)
	for i, r := range g {
		buf[i] = byte(r)
	}
	return buf
}

// GridFromBytes decodes a persisted grid.
//
// Postcondition: returns an error iff len(data) != RoomCount.
func GridFromBytes(data []byte) (Grid, error) {
	var g Grid
	if len(data) != RoomCount {
		return g, fmt.Errorf("decoding grid: want %d bytes, got %d", RoomCount, len(data))
	}
	for i, b := range data {
		g[i] = Room(b)
	}
	return g, nil
}

// Position is the player's packed location: row in the low nibble, column
// in the high nibble.
type Position byte

// NewPosition packs row and col.
//
// Precondition: row and col must be in [0, Size).
func NewPosition(row, col int) Position {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		panic(fmt.Sprintf("dungeon: position out of bounds: row=%d col=%d", row, col))
	}
	return Position(row | col<<4)
}

// Row returns the unpacked row.
func (p Position) Row() int { return int(p) & 0x0f }

// Col returns the unpacked column.
func (p Position) Col() int { return int(p) >> 4 }
