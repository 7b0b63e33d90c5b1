package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/item"
)

// ErrItemNotFound is returned when an item lookup yields no results.
var ErrItemNotFound = errors.New("item not found")

// ItemRepository provides item persistence operations. Items live in one
// of two shards per player: the adventure inventory (vaulted = false,
// lost on death) and the vault (vaulted = true, safe in town). Dice
// budgets are stored as packed 24-byte blobs.
type ItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository creates an ItemRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, kind, name, level, attack, two_handed, budget,
	armor_health, armor_defense, armor_speed`

// Create inserts a new item into the given shard.
//
// Precondition: playerID must reference an existing player.
// Postcondition: Returns the item with ID set.
func (r *ItemRepository) Create(ctx context.Context, playerID int64, it item.Item, vaulted bool) (item.Item, error) {
	budget := it.Weapon.Budget
	if it.Kind == item.KindShield {
		budget = it.Shield.Budget
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO items
			(player_id, kind, name, level, vaulted, attack, two_handed, budget,
			 armor_health, armor_defense, armor_speed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id`,
		playerID, int(it.Kind), it.Name, it.Level, vaulted,
		it.Weapon.Attack, it.Weapon.TwoHanded, budget.Pack(),
		it.Armor.Health, it.Armor.Defense, it.Armor.Speed,
	).Scan(&it.ID)
	if err != nil {
		return item.Item{}, fmt.Errorf("inserting item: %w", err)
	}
	return it, nil
}

// ListShard returns a player's items in the given shard, oldest first.
//
// Precondition: playerID must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ItemRepository) ListShard(ctx context.Context, playerID int64, vaulted bool) ([]item.Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items WHERE player_id = $1 AND vaulted = $2 ORDER BY id ASC`,
		playerID, vaulted,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListEquipped returns the player's equipped items.
//
// Precondition: playerID must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ItemRepository) ListEquipped(ctx context.Context, playerID int64) ([]item.Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items WHERE player_id = $1 AND equipped ORDER BY id ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing equipped items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetByID retrieves one of a player's items along with its vaulted and
// equipped flags.
//
// Postcondition: Returns the item or ErrItemNotFound.
func (r *ItemRepository) GetByID(ctx context.Context, playerID, itemID int64) (item.Item, bool, bool, error) {
	var it item.Item
	var kind int
	var budget []byte
	var vaulted, equipped bool
	err := r.db.QueryRow(ctx, `
		SELECT `+itemColumns+`, vaulted, equipped
		FROM items WHERE id = $2 AND player_id = $1`,
		playerID, itemID,
	).Scan(
		&it.ID, &kind, &it.Name, &it.Level,
		&it.Weapon.Attack, &it.Weapon.TwoHanded, &budget,
		&it.Armor.Health, &it.Armor.Defense, &it.Armor.Speed,
		&vaulted, &equipped,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, false, false, ErrItemNotFound
		}
		return item.Item{}, false, false, fmt.Errorf("querying item: %w", err)
	}
	it.Kind = item.Kind(kind)
	counts, err := dice.Unpack(budget)
	if err != nil {
		return item.Item{}, false, false, fmt.Errorf("decoding item budget: %w", err)
	}
	switch it.Kind {
	case item.KindWeapon:
		it.Weapon.Budget = counts
	case item.KindShield:
		it.Shield.Budget = counts
	}
	return it, vaulted, equipped, nil
}

// SetEquipped flips an item's equipped flag. Equipping a vaulted item
// pulls it out of the vault and back into the adventure inventory.
//
// Precondition: the item must belong to the player.
// Postcondition: Returns nil on success, ErrItemNotFound if no row matched.
func (r *ItemRepository) SetEquipped(ctx context.Context, playerID, itemID int64, equipped bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE items SET equipped = $3, vaulted = vaulted AND NOT $3
		WHERE id = $2 AND player_id = $1`,
		playerID, itemID, equipped,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// scanItems decodes item rows into the tagged-union model.
func scanItems(rows pgx.Rows) ([]item.Item, error) {
	items := make([]item.Item, 0)
	for rows.Next() {
		var it item.Item
		var kind int
		var budget []byte
		if err := rows.Scan(
			&it.ID, &kind, &it.Name, &it.Level,
			&it.Weapon.Attack, &it.Weapon.TwoHanded, &budget,
			&it.Armor.Health, &it.Armor.Defense, &it.Armor.Speed,
		); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		it.Kind = item.Kind(kind)
		counts, err := dice.Unpack(budget)
		if err != nil {
			return nil, fmt.Errorf("decoding item budget: %w", err)
		}
		switch it.Kind {
		case item.KindWeapon:
			it.Weapon.Budget = counts
		case item.KindShield:
			it.Shield.Budget = counts
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
