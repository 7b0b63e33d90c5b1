package gameserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/avheur/dicedelve/internal/game/battle"
	"github.com/avheur/dicedelve/internal/game/dice"
	"github.com/avheur/dicedelve/internal/game/dungeon"
)

// BattleResult carries a battle action's combat log and its outcome.
type BattleResult struct {
	Log     []string
	Outcome battle.Outcome
	// Ledger is the player's dice balance after the action.
	Ledger dice.Counts
}

// Attack spends dice from the ledger on an attack roll.
//
// Precondition: the player must be in a battle (dungeon.ErrNoBattle
// otherwise).
func (s *Service) Attack(ctx context.Context, playerID int64, spend dice.Counts) (BattleResult, error) {
	return s.battleAction(ctx, playerID, "attack", func(p *playerState) ([]string, battle.Outcome, error) {
		return p.d.Attack(spend, &p.ledger, p.env)
	})
}

// Defend spends dice from the ledger on a guard roll.
//
// Precondition: the player must be in a battle.
func (s *Service) Defend(ctx context.Context, playerID int64, spend dice.Counts) (BattleResult, error) {
	return s.battleAction(ctx, playerID, "defend", func(p *playerState) ([]string, battle.Outcome, error) {
		return p.d.Defend(spend, &p.ledger, p.env)
	})
}

// Retreat attempts to escape the battle. Success seals the room behind
// the player.
//
// Precondition: the player must be in a battle.
func (s *Service) Retreat(ctx context.Context, playerID int64) (BattleResult, error) {
	return s.battleAction(ctx, playerID, "retreat", func(p *playerState) ([]string, battle.Outcome, error) {
		return p.d.Retreat(p.env)
	})
}

type playerState struct {
	d      *dungeon.Dungeon
	ledger dice.Counts
	env    dungeon.Env
}

// battleAction runs one battle move under the session lock and settles
// the resulting state.
func (s *Service) battleAction(ctx context.Context, playerID int64, name string, act func(*playerState) ([]string, battle.Outcome, error)) (BattleResult, error) {
	unlock := s.sessions.Lock(playerID)
	defer unlock()

	p, d, err := s.loadExpedition(ctx, playerID)
	if err != nil {
		return BattleResult{}, err
	}

	st := &playerState{d: d, ledger: p.Ledger, env: s.env(ctx, playerID)}
	logs, outcome, err := act(st)
	if err != nil {
		return BattleResult{}, err
	}

	if err := s.settleBattle(ctx, playerID, d, st.ledger, outcome); err != nil {
		return BattleResult{}, err
	}
	s.logger.Debug("battle action",
		zap.Int64("player_id", playerID),
		zap.String("action", name),
		zap.Int("outcome", int(outcome)),
	)
	return BattleResult{Log: logs, Outcome: outcome, Ledger: st.ledger}, nil
}
