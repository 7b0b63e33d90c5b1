package gameserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/avheur/dicedelve/internal/game/dice"
)

// SplitDice converts dice of a higher denomination into a lower one at
// the fixed table rate.
//
// Postcondition: returns dice.StatusOK and persists the ledger, or a
// non-zero status with the ledger untouched.
func (s *Service) SplitDice(ctx context.Context, playerID int64, from, to, amount int) (dice.Status, dice.Counts, error) {
	return s.ledgerOp(ctx, playerID, "split", func(ledger *dice.Counts) dice.Status {
		return ledger.Split(from, to, amount)
	})
}

// FuseDice combines pairs of a denomination into the next one up.
//
// Postcondition: returns dice.StatusOK and persists the ledger, or a
// non-zero status with the ledger untouched.
func (s *Service) FuseDice(ctx context.Context, playerID int64, from, amount int) (dice.Status, dice.Counts, error) {
	return s.ledgerOp(ctx, playerID, "fuse", func(ledger *dice.Counts) dice.Status {
		return ledger.Fuse(from, amount)
	})
}

func (s *Service) ledgerOp(ctx context.Context, playerID int64, name string, op func(*dice.Counts) dice.Status) (dice.Status, dice.Counts, error) {
	unlock := s.sessions.Lock(playerID)
	defer unlock()

	p, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return 0, dice.Counts{}, err
	}

	status := op(&p.Ledger)
	if status != dice.StatusOK {
		return status, p.Ledger, nil
	}
	if err := s.store.SaveLedger(ctx, playerID, p.Ledger); err != nil {
		return 0, dice.Counts{}, err
	}
	s.logger.Debug("ledger conversion",
		zap.Int64("player_id", playerID),
		zap.String("op", name),
	)
	return dice.StatusOK, p.Ledger, nil
}
