package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
)

// ErrBattleNotFound is returned when a battle lookup yields no results.
var ErrBattleNotFound = errors.New("battle not found")

// BattleRepository provides battle persistence operations. A dungeon has
// at most one battle row; dice pools and budgets are packed 24-byte blobs.
type BattleRepository struct {
	db *pgxpool.Pool
}

// NewBattleRepository creates a BattleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRepository(db *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{db: db}
}

// Save upserts the battle row for a dungeon.
//
// Precondition: dungeonID must reference an existing dungeon; b and
// b.Enemy must be non-nil.
func (r *BattleRepository) Save(ctx context.Context, dungeonID uuid.UUID, b *battle.Battle) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO battles
			(id, dungeon_id, boss, return_pos,
			 player_hp, player_max_hp, player_speed, player_defense, player_attack,
			 attack_budget, defend_budget, player_guard, player_init, enemy_init,
			 enemy_name, enemy_hp, enemy_max_hp, enemy_speed, enemy_defense,
			 enemy_guard, enemy_value, enemy_pool, enemy_spend)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (dungeon_id) DO UPDATE SET
			player_hp = EXCLUDED.player_hp,
			player_guard = EXCLUDED.player_guard,
			player_init = EXCLUDED.player_init,
			enemy_init = EXCLUDED.enemy_init,
			enemy_hp = EXCLUDED.enemy_hp,
			enemy_guard = EXCLUDED.enemy_guard,
			enemy_pool = EXCLUDED.enemy_pool,
			updated_at = NOW()`,
		b.ID, dungeonID, b.Boss, int(b.ReturnPos),
		b.Player.HP, b.Player.MaxHP, b.Player.Speed, b.Player.Defense, b.Player.Attack,
		b.Player.AttackBudget.Pack(), b.Player.DefendBudget.Pack(),
		b.PlayerGuard, b.PlayerInit, b.EnemyInit,
		b.Enemy.Name, b.Enemy.HP, b.Enemy.MaxHP, b.Enemy.Speed, b.Enemy.Defense,
		b.Enemy.Guard, b.Enemy.Value.Pack(), b.Enemy.Pool.Pack(), b.Enemy.Spend.Pack(),
	)
	if err != nil {
		return fmt.Errorf("saving battle: %w", err)
	}
	return nil
}

// GetByDungeon retrieves the battle for a dungeon, if one is live.
//
// Postcondition: Returns the battle or ErrBattleNotFound.
func (r *BattleRepository) GetByDungeon(ctx context.Context, dungeonID uuid.UUID) (*battle.Battle, error) {
	var b battle.Battle
	var e battle.Enemy
	var returnPos int
	var attackBudget, defendBudget, value, pool, spend []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, boss, return_pos,
		       player_hp, player_max_hp, player_speed, player_defense, player_attack,
		       attack_budget, defend_budget, player_guard, player_init, enemy_init,
		       enemy_name, enemy_hp, enemy_max_hp, enemy_speed, enemy_defense,
		       enemy_guard, enemy_value, enemy_pool, enemy_spend
		FROM battles WHERE dungeon_id = $1`,
		dungeonID,
	).Scan(
		&b.ID, &b.Boss, &returnPos,
		&b.Player.HP, &b.Player.MaxHP, &b.Player.Speed, &b.Player.Defense, &b.Player.Attack,
		&attackBudget, &defendBudget, &b.PlayerGuard, &b.PlayerInit, &b.EnemyInit,
		&e.Name, &e.HP, &e.MaxHP, &e.Speed, &e.Defense,
		&e.Guard, &value, &pool, &spend,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBattleNotFound
		}
		return nil, fmt.Errorf("querying battle: %w", err)
	}
	b.ReturnPos = byte(returnPos)
	for _, blob := range []struct {
		dst *dice.Counts
		src []byte
	}{
		{&b.Player.AttackBudget, attackBudget},
		{&b.Player.DefendBudget, defendBudget},
		{&e.Value, value},
		{&e.Pool, pool},
		{&e.Spend, spend},
	} {
		if *blob.dst, err = dice.Unpack(blob.src); err != nil {
			return nil, fmt.Errorf("decoding battle dice: %w", err)
		}
	}
	b.Enemy = &e
	return &b, nil
}

// Delete removes a dungeon's battle row.
//
// Postcondition: Returns nil even when no battle existed.
func (r *BattleRepository) Delete(ctx context.Context, dungeonID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM battles WHERE dungeon_id = $1`, dungeonID); err != nil {
		return fmt.Errorf("deleting battle: %w", err)
	}
	return nil
}
