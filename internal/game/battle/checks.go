package battle

import (
	"fmt"

	"github.com/avheur/dicedelve/internal/game/dice"
)

// RollInitiative decides who opens a battle: each side rolls uniform over
// [1, speed] and the player wins ties.
//
// Precondition: both speeds must be >= 1; src must be non-nil.
func RollInitiative(playerSpeed, enemySpeed int, src dice.Source) bool {
	return dice.Between(src, 1, playerSpeed) >= dice.Between(src, 1, enemySpeed)
}

// AttemptRetreat runs the chase check: one d4 per point of speed on each
// side, escape succeeds only on a strictly greater total.
//
// Precondition: both speeds must be >= 1; src must be non-nil.
// Postcondition: the returned log has the form "Xd4 (a) vs. Yd4 (b)".
func AttemptRetreat(escapeSpeed, chaseSpeed int, src dice.Source) (bool, string) {
	escape := 0
	for i := 0; i < escapeSpeed; i++ {
		escape += src.Intn(4) + 1
	}
	chase := 0
	for i := 0; i < chaseSpeed; i++ {
		chase += src.Intn(4) + 1
	}
	log := fmt.Sprintf("%dd4 (%d) vs. %dd4 (%d)", escapeSpeed, escape, chaseSpeed, chase)
	return escape > chase, log
}
