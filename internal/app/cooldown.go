package app

import (
	"context"
	"time"
)

// CooldownWindow is the minimum interval between credited attempts of the same quiz.
const CooldownWindow = 7 * 24 * time.Hour

// NextEligible returns the first instant a new attempt is allowed after last.
func NextEligible(last time.Time) time.Time {
	return last.Add(CooldownWindow)
}

// OnCooldown reports whether an attempt made at last still blocks an attempt at now.
func OnCooldown(last, now time.Time) bool {
	return NextEligible(last).After(now)
}

// cooldownUntil looks up the ledger and returns the next eligible instant when the
// quiz is still on cooldown for the member.
func cooldownUntil(ctx context.Context, ledger AttemptLedger, guildID, userID, quizName string, now time.Time) (time.Time, bool, error) {
	last, ok, err := ledger.LastAttempt(ctx, guildID, userID, quizName)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	if !OnCooldown(last, now) {
		return time.Time{}, false, nil
	}
	return NextEligible(last), true, nil
}
