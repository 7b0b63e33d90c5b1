// Package gameserver exposes the game's external operations as a plain-Go
// service facade: expedition lifecycle, movement, battle actions, and the
// dice ledger conversions. Each mutating operation holds the player's
// session lock for its full load-mutate-persist span.
package gameserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/dungeon"
	"github.com/avheur/dicedelve/internal/game/item"
	"github.com/avheur/dicedelve/internal/game/player"
	"github.com/avheur/dicedelve/internal/game/session"
	"github.com/avheur/dicedelve/internal/storage/postgres"
)

// Store is the persistence contract the service operates against.
// postgres.Store is the production implementation; lookups signal absence
// with the postgres sentinel errors.
type Store interface {
	CreatePlayer(ctx context.Context, name string, ledger dice.Counts) (player.Player, error)
	GetPlayer(ctx context.Context, id int64) (player.Player, error)
	SaveLedger(ctx context.Context, id int64, ledger dice.Counts) error

	ListEquipped(ctx context.Context, playerID int64) ([]item.Item, error)
	GetItem(ctx context.Context, playerID, itemID int64) (it item.Item, vaulted, equipped bool, err error)
	SetEquipped(ctx context.Context, playerID, itemID int64, equipped bool) error
	CreateItem(ctx context.Context, playerID int64, it item.Item) (item.Item, error)

	GetDungeon(ctx context.Context, playerID int64) (*dungeon.Dungeon, error)
	CreateDungeon(ctx context.Context, d *dungeon.Dungeon) (*dungeon.Dungeon, error)
	SaveDungeon(ctx context.Context, d *dungeon.Dungeon) error

	GetBattle(ctx context.Context, dungeonID uuid.UUID) (*battle.Battle, error)
	SaveBattle(ctx context.Context, dungeonID uuid.UUID, b *battle.Battle) error
	DeleteBattle(ctx context.Context, dungeonID uuid.UUID) error

	ReturnToTown(ctx context.Context, playerID int64, ledger dice.Counts) error
	ApplyDeath(ctx context.Context, playerID int64, ledger dice.Counts) error
}

// Service exposes the game operations over a Store.
type Service struct {
	store    Store
	sessions *session.Manager
	src      dice.Source
	names    item.NameTable
	bestiary battle.Bestiary
	logger   *zap.Logger

	// startingD4 seeds a new player's ledger.
	startingD4 int
}

// NewService creates a Service with the given collaborators.
//
// Precondition: store, sessions, src, and logger must be non-nil;
// startingD4 must be >= 0.
func NewService(store Store, sessions *session.Manager, src dice.Source, names item.NameTable, bestiary battle.Bestiary, startingD4 int, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		sessions:   sessions,
		src:        src,
		names:      names,
		bestiary:   bestiary,
		startingD4: startingD4,
		logger:     logger,
	}
}

// CreatePlayer registers a new player with the configured starting ledger.
//
// Precondition: name must be non-empty.
func (s *Service) CreatePlayer(ctx context.Context, name string) (player.Player, error) {
	ledger := dice.Counts{s.startingD4}
	p, err := s.store.CreatePlayer(ctx, name, ledger)
	if err != nil {
		return player.Player{}, err
	}
	s.logger.Info("player created", zap.Int64("player_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// loadExpedition loads the player, their dungeon, and any live battle.
func (s *Service) loadExpedition(ctx context.Context, playerID int64) (player.Player, *dungeon.Dungeon, error) {
	p, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return player.Player{}, nil, err
	}
	d, err := s.store.GetDungeon(ctx, playerID)
	if err != nil {
		return player.Player{}, nil, err
	}
	b, err := s.store.GetBattle(ctx, d.ID)
	switch {
	case err == nil:
		d.Battle = b
	case errors.Is(err, postgres.ErrBattleNotFound):
	default:
		return player.Player{}, nil, err
	}
	return p, d, nil
}

// combatant derives the player's battle stats from their equipment.
func (s *Service) combatant(ctx context.Context, playerID int64) (battle.Combatant, error) {
	equipped, err := s.store.ListEquipped(ctx, playerID)
	if err != nil {
		return battle.Combatant{}, fmt.Errorf("loading equipment: %w", err)
	}
	return player.ComputeCombatant(equipped), nil
}

// env builds the dungeon collaborators for one operation. Generated items
// land in the player's adventure inventory as they are found.
func (s *Service) env(ctx context.Context, playerID int64) dungeon.Env {
	return dungeon.Env{
		Src:      s.src,
		Items:    &lootCreator{ctx: ctx, svc: s, playerID: playerID},
		Bestiary: s.bestiary,
	}
}

// lootCreator generates and persists loot for a single operation; the
// context is the operation's own.
type lootCreator struct {
	ctx      context.Context
	svc      *Service
	playerID int64
}

func (l *lootCreator) CreateItem(floor int) (item.Item, error) {
	it := item.Generate(floor, l.svc.names, l.svc.src)
	return l.svc.store.CreateItem(l.ctx, l.playerID, it)
}

// settleBattle persists the state a battle action left behind.
func (s *Service) settleBattle(ctx context.Context, playerID int64, d *dungeon.Dungeon, ledger dice.Counts, outcome battle.Outcome) error {
	switch outcome {
	case battle.OutcomeContinue:
		if err := s.store.SaveBattle(ctx, d.ID, d.Battle); err != nil {
			return err
		}
		return s.store.SaveLedger(ctx, playerID, ledger)
	case battle.OutcomePlayerDefeated:
		s.logger.Info("player defeated", zap.Int64("player_id", playerID))
		return s.store.ApplyDeath(ctx, playerID, ledger)
	default:
		// Enemy defeated or escaped, or the player retreated: the battle
		// row goes and the dungeon carries the aftermath.
		if err := s.store.DeleteBattle(ctx, d.ID); err != nil {
			return err
		}
		if err := s.store.SaveDungeon(ctx, d); err != nil {
			return err
		}
		return s.store.SaveLedger(ctx, playerID, ledger)
	}
}

// EquipItem equips one of the player's items. Equipping a vaulted item
// pulls it out of the vault and into the adventure inventory.
//
// Postcondition: returns player.ErrHandsFull when the loadout would
// not fit.
func (s *Service) EquipItem(ctx context.Context, playerID, itemID int64) error {
	unlock := s.sessions.Lock(playerID)
	defer unlock()

	it, _, equipped, err := s.store.GetItem(ctx, playerID, itemID)
	if err != nil {
		return err
	}
	if equipped {
		return nil
	}
	current, err := s.store.ListEquipped(ctx, playerID)
	if err != nil {
		return fmt.Errorf("loading equipment: %w", err)
	}
	if err := player.ValidateLoadout(append(current, it)); err != nil {
		return err
	}
	return s.store.SetEquipped(ctx, playerID, itemID, true)
}

// UnequipItem clears an item's equipped flag.
func (s *Service) UnequipItem(ctx context.Context, playerID, itemID int64) error {
	unlock := s.sessions.Lock(playerID)
	defer unlock()
	return s.store.SetEquipped(ctx, playerID, itemID, false)
}
