package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/player"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// ErrPlayerNameTaken is returned when creating a player with a name already in use.
var ErrPlayerNameTaken = errors.New("player name already taken")

// PlayerRepository provides player persistence operations. The dice
// ledger is stored as its packed 24-byte encoding.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create inserts a new player with the given starting ledger.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created player with ID set, or
// ErrPlayerNameTaken on duplicate.
func (r *PlayerRepository) Create(ctx context.Context, name string, ledger dice.Counts) (player.Player, error) {
	var p player.Player
	var blob []byte
	err := r.db.QueryRow(ctx, `
		INSERT INTO players (name, ledger)
		VALUES ($1, $2)
		RETURNING id, name, ledger`,
		name, ledger.Pack(),
	).Scan(&p.ID, &p.Name, &blob)
	if err != nil {
		if isDuplicateKeyError(err) {
			return player.Player{}, ErrPlayerNameTaken
		}
		return player.Player{}, fmt.Errorf("inserting player: %w", err)
	}
	if p.Ledger, err = dice.Unpack(blob); err != nil {
		return player.Player{}, fmt.Errorf("decoding ledger: %w", err)
	}
	return p, nil
}

// GetByID retrieves a player by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (player.Player, error) {
	var p player.Player
	var blob []byte
	err := r.db.QueryRow(ctx, `
		SELECT id, name, ledger FROM players WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return player.Player{}, ErrPlayerNotFound
		}
		return player.Player{}, fmt.Errorf("querying player: %w", err)
	}
	if p.Ledger, err = dice.Unpack(blob); err != nil {
		return player.Player{}, fmt.Errorf("decoding ledger: %w", err)
	}
	return p, nil
}

// SaveLedger persists a player's dice ledger.
//
// Precondition: id must be > 0.
// Postcondition: Returns nil on success, ErrPlayerNotFound if no row updated.
func (r *PlayerRepository) SaveLedger(ctx context.Context, id int64, ledger dice.Counts) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE players SET ledger = $2, updated_at = NOW() WHERE id = $1`,
		id, ledger.Pack(),
	)
	if err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
