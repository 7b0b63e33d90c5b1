package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avheur/dicedelve/internal/game/dungeon"
)

// ErrDungeonNotFound is returned when a dungeon lookup yields no results.
var ErrDungeonNotFound = errors.New("dungeon not found")

// DungeonRepository provides dungeon persistence operations. The grid is
// stored as its 100-byte row-major encoding, one byte per room.
type DungeonRepository struct {
	db *pgxpool.Pool
}

// NewDungeonRepository creates a DungeonRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewDungeonRepository(db *pgxpool.Pool) *DungeonRepository {
	return &DungeonRepository{db: db}
}

// Create inserts the dungeon unless the player already has one, in which
// case the existing dungeon is returned unchanged. Entering a dungeon is
// idempotent.
//
// Precondition: d.PlayerID must reference an existing player.
func (r *DungeonRepository) Create(ctx context.Context, d *dungeon.Dungeon) (*dungeon.Dungeon, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO dungeons (id, player_id, floor, grid, pos, boss_defeated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_id) DO NOTHING`,
		d.ID, d.PlayerID, d.Floor, d.Grid.Bytes(), int(d.Pos), d.BossDefeated,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting dungeon: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return d, nil
	}
	return r.GetByPlayer(ctx, d.PlayerID)
}

// GetByPlayer retrieves a player's active dungeon.
//
// Precondition: playerID must be > 0.
// Postcondition: Returns the dungeon or ErrDungeonNotFound. The Battle
// field is left nil; battles are loaded separately.
func (r *DungeonRepository) GetByPlayer(ctx context.Context, playerID int64) (*dungeon.Dungeon, error) {
	var d dungeon.Dungeon
	var grid []byte
	var pos int
	err := r.db.QueryRow(ctx, `
		SELECT id, player_id, floor, grid, pos, boss_defeated
		FROM dungeons WHERE player_id = $1`,
		playerID,
	).Scan(&d.ID, &d.PlayerID, &d.Floor, &grid, &pos, &d.BossDefeated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDungeonNotFound
		}
		return nil, fmt.Errorf("querying dungeon: %w", err)
	}
	if d.Grid, err = dungeon.GridFromBytes(grid); err != nil {
		return nil, fmt.Errorf("decoding grid: %w", err)
	}
	d.Pos = dungeon.Position(pos)
	return &d, nil
}

// Save persists the mutable dungeon state.
//
// Precondition: the dungeon row must exist.
// Postcondition: Returns nil on success, ErrDungeonNotFound if no row updated.
func (r *DungeonRepository) Save(ctx context.Context, d *dungeon.Dungeon) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE dungeons
		SET floor = $2, grid = $3, pos = $4, boss_defeated = $5, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.Floor, d.Grid.Bytes(), int(d.Pos), d.BossDefeated,
	)
	if err != nil {
		return fmt.Errorf("saving dungeon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDungeonNotFound
	}
	return nil
}

// Delete removes a player's dungeon. The battle row, if any, goes with it.
//
// Precondition: playerID must be > 0.
// Postcondition: Returns nil even when no dungeon existed.
func (r *DungeonRepository) Delete(ctx context.Context, playerID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM dungeons WHERE player_id = $1`, playerID); err != nil {
		return fmt.Errorf("deleting dungeon: %w", err)
	}
	return nil
}
