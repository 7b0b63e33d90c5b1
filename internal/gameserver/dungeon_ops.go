package gameserver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dungeon"
	"github.com/avheur/dicedelve/internal/storage/postgres"
)

// DungeonView is the client-facing snapshot of an expedition.
type DungeonView struct {
	Floor        int
	BossDefeated bool
	InBattle     bool
	Grid         [dungeon.Size][dungeon.Size]int
}

func view(d *dungeon.Dungeon) DungeonView {
	return DungeonView{
		Floor:        d.Floor,
		BossDefeated: d.BossDefeated,
		InBattle:     d.Battle != nil,
		Grid:         d.Render(),
	}
}

// EnterDungeon starts an expedition on floor 1, or returns the player's
// existing one. Entering is idempotent.
//
// Precondition: playerID must reference an existing player.
func (s *Service) EnterDungeon(ctx context.Context, playerID int64) (DungeonView, error) {
	unlock := s.sessions.Lock(playerID)
	defer unlock()

	if _, err := s.store.GetPlayer(ctx, playerID); err != nil {
		return DungeonView{}, err
	}

	d, err := s.store.CreateDungeon(ctx, dungeon.New(playerID, s.src))
	if err != nil {
		return DungeonView{}, err
	}
	b, err := s.store.GetBattle(ctx, d.ID)
	switch {
	case err == nil:
		d.Battle = b
	case errors.Is(err, postgres.ErrBattleNotFound):
	default:
		return DungeonView{}, err
	}

	s.logger.Info("dungeon entered",
		zap.Int64("player_id", playerID),
		zap.String("dungeon_id", d.ID.String()),
		zap.Int("floor", d.Floor),
	)
	return view(d), nil
}

// Move walks the player one room and triggers whatever it holds.
//
// Postcondition: returns the move status and message; on a triggered
// battle the message carries the opening combat log.
func (s *Service) Move(ctx context.Context, playerID int64, dir int) (int, string, error) {
	unlock := s.sessions.Lock(playerID)
	defer unlock()

	p, d, err := s.loadExpedition(ctx, playerID)
	if err != nil {
		return 0, "", err
	}
	pc, err := s.combatant(ctx, playerID)
	if err != nil {
		return 0, "", err
	}

	res, err := d.Move(dir, pc, s.env(ctx, playerID))
	if err != nil {
		return 0, "", err
	}
	if res.Status == dungeon.MoveRejected {
		return res.Status, res.Message, nil
	}

	if res.BattleStarted && res.Outcome == battle.OutcomePlayerDefeated {
		if err := s.store.ApplyDeath(ctx, playerID, p.Ledger); err != nil {
			return 0, "", err
		}
		s.logger.Info("player defeated", zap.Int64("player_id", playerID))
		return res.Status, res.Message + "\nYou died. The expedition's spoils are lost.", nil
	}

	if err := s.store.SaveDungeon(ctx, d); err != nil {
		return 0, "", err
	}
	if d.Battle != nil {
		if err := s.store.SaveBattle(ctx, d.ID, d.Battle); err != nil {
			return 0, "", err
		}
	}
	return res.Status, res.Message, nil
}

// ExitFloor leaves through the room the player stands in: back to town
// from the entrance, or a floor down from an unlocked exit.
func (s *Service) ExitFloor(ctx context.Context, playerID int64) (int, string, error) {
	unlock := s.sessions.Lock(playerID)
	defer unlock()

	p, d, err := s.loadExpedition(ctx, playerID)
	if err != nil {
		return 0, "", err
	}

	res := d.ExitFloor(s.src)
	switch res.Status {
	case dungeon.ExitTown:
		if err := s.store.ReturnToTown(ctx, playerID, p.Ledger); err != nil {
			return 0, "", err
		}
		s.logger.Info("expedition banked", zap.Int64("player_id", playerID))
	case dungeon.ExitAdvanced:
		if err := s.store.SaveDungeon(ctx, d); err != nil {
			return 0, "", err
		}
		s.logger.Info("floor advanced",
			zap.Int64("player_id", playerID),
			zap.Int("floor", d.Floor),
		)
	}
	return res.Status, res.Message, nil
}

// Render returns the fog-of-war view of the player's dungeon.
func (s *Service) Render(ctx context.Context, playerID int64) (DungeonView, error) {
	_, d, err := s.loadExpedition(ctx, playerID)
	if err != nil {
		return DungeonView{}, err
	}
	return view(d), nil
}
