package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/dungeon"
	"github.com/avheur/dicedelve/internal/game/item"
	"github.com/avheur/dicedelve/internal/game/player"
)

// Store bundles the repositories plus the multi-entity transitions that
// must commit atomically.
type Store struct {
	pool     *Pool
	Players  *PlayerRepository
	Items    *ItemRepository
	Dungeons *DungeonRepository
	Battles  *BattleRepository
}

// NewStore creates a Store with repositories over the given pool.
//
// Precondition: pool must be a valid, open Pool.
func NewStore(pool *Pool) *Store {
	db := pool.DB()
	return &Store{
		pool:     pool,
		Players:  NewPlayerRepository(db),
		Items:    NewItemRepository(db),
		Dungeons: NewDungeonRepository(db),
		Battles:  NewBattleRepository(db),
	}
}

// Flat accessors so the Store satisfies the game service's storage
// contract without callers reaching into individual repositories.

// CreatePlayer inserts a new player with the given starting ledger.
func (s *Store) CreatePlayer(ctx context.Context, name string, ledger dice.Counts) (player.Player, error) {
	return s.Players.Create(ctx, name, ledger)
}

// GetPlayer retrieves a player by ID.
func (s *Store) GetPlayer(ctx context.Context, id int64) (player.Player, error) {
	return s.Players.GetByID(ctx, id)
}

// SaveLedger persists a player's dice ledger.
func (s *Store) SaveLedger(ctx context.Context, id int64, ledger dice.Counts) error {
	return s.Players.SaveLedger(ctx, id, ledger)
}

// ListEquipped returns the player's equipped items.
func (s *Store) ListEquipped(ctx context.Context, playerID int64) ([]item.Item, error) {
	return s.Items.ListEquipped(ctx, playerID)
}

// GetItem retrieves one of the player's items with its shard flags.
func (s *Store) GetItem(ctx context.Context, playerID, itemID int64) (item.Item, bool, bool, error) {
	return s.Items.GetByID(ctx, playerID, itemID)
}

// SetEquipped flips an item's equipped flag.
func (s *Store) SetEquipped(ctx context.Context, playerID, itemID int64, equipped bool) error {
	return s.Items.SetEquipped(ctx, playerID, itemID, equipped)
}

// CreateItem inserts a generated item into the adventure inventory.
func (s *Store) CreateItem(ctx context.Context, playerID int64, it item.Item) (item.Item, error) {
	return s.Items.Create(ctx, playerID, it, false)
}

// GetDungeon retrieves a player's active dungeon.
func (s *Store) GetDungeon(ctx context.Context, playerID int64) (*dungeon.Dungeon, error) {
	return s.Dungeons.GetByPlayer(ctx, playerID)
}

// CreateDungeon inserts the dungeon, or returns the existing one.
func (s *Store) CreateDungeon(ctx context.Context, d *dungeon.Dungeon) (*dungeon.Dungeon, error) {
	return s.Dungeons.Create(ctx, d)
}

// SaveDungeon persists the mutable dungeon state.
func (s *Store) SaveDungeon(ctx context.Context, d *dungeon.Dungeon) error {
	return s.Dungeons.Save(ctx, d)
}

// GetBattle retrieves a dungeon's live battle.
func (s *Store) GetBattle(ctx context.Context, dungeonID uuid.UUID) (*battle.Battle, error) {
	return s.Battles.GetByDungeon(ctx, dungeonID)
}

// SaveBattle upserts a dungeon's battle row.
func (s *Store) SaveBattle(ctx context.Context, dungeonID uuid.UUID, b *battle.Battle) error {
	return s.Battles.Save(ctx, dungeonID, b)
}

// DeleteBattle removes a dungeon's battle row.
func (s *Store) DeleteBattle(ctx context.Context, dungeonID uuid.UUID) error {
	return s.Battles.Delete(ctx, dungeonID)
}

// ReturnToTown settles a finished expedition in one transaction: the
// adventure inventory, worn gear included, moves to the vault, the
// ledger is saved, and the dungeon (with any battle row) is deleted.
//
// Precondition: playerID must reference an existing player.
func (s *Store) ReturnToTown(ctx context.Context, playerID int64, ledger dice.Counts) error {
	return s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE items SET vaulted = TRUE, equipped = FALSE
			WHERE player_id = $1 AND NOT vaulted`,
			playerID,
		); err != nil {
			return fmt.Errorf("banking inventory: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE players SET ledger = $2, updated_at = NOW() WHERE id = $1`,
			playerID, ledger.Pack(),
		); err != nil {
			return fmt.Errorf("saving ledger: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM dungeons WHERE player_id = $1`, playerID); err != nil {
			return fmt.Errorf("deleting dungeon: %w", err)
		}
		return nil
	})
}

// ApplyDeath settles a player death in one transaction: the adventure
// inventory, worn gear included, is dropped, the remaining ledger is
// saved, and the dungeon (with any battle row) is deleted. Only vaulted
// items survive.
//
// Precondition: playerID must reference an existing player.
func (s *Store) ApplyDeath(ctx context.Context, playerID int64, ledger dice.Counts) error {
	return s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM items WHERE player_id = $1 AND NOT vaulted`,
			playerID,
		); err != nil {
			return fmt.Errorf("dropping inventory: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE players SET ledger = $2, updated_at = NOW() WHERE id = $1`,
			playerID, ledger.Pack(),
		); err != nil {
			return fmt.Errorf("saving ledger: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM dungeons WHERE player_id = $1`, playerID); err != nil {
			return fmt.Errorf("deleting dungeon: %w", err)
		}
		return nil
	})
}
