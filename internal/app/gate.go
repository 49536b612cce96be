package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"levelup-gatekeeper/internal/domain"
)

// PunishmentTimeout is how long members are timed out for invalid attempts.
const PunishmentTimeout = 2 * time.Minute

// GateOutcome names the rule that decided an attempt.
type GateOutcome int

const (
	// OutcomeIgnored covers messages that are neither quiz commands nor in a quiz channel.
	OutcomeIgnored GateOutcome = iota
	OutcomeAnnouncement
	OutcomeAlreadyPassed
	OutcomeCooldown
	OutcomeInexactCommand
	OutcomeRestricted
	OutcomeWrongChannel
	OutcomeAdmitted
)

func (o GateOutcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAnnouncement:
		return "announcement"
	case OutcomeAlreadyPassed:
		return "already_passed"
	case OutcomeCooldown:
		return "cooldown"
	case OutcomeInexactCommand:
		return "inexact_command"
	case OutcomeRestricted:
		return "restricted"
	case OutcomeWrongChannel:
		return "wrong_channel"
	case OutcomeAdmitted:
		return "admitted"
	}
	return fmt.Sprintf("GateOutcome(%d)", int(o))
}

// Decision is the verdict of the eligibility gate.
type Decision struct {
	Outcome      GateOutcome
	Quiz         string
	NextEligible time.Time
}

// Admitted reports whether processing may continue.
func (d Decision) Admitted() bool {
	return d.Outcome == OutcomeAdmitted || d.Outcome == OutcomeAnnouncement
}

// Gate decides whether a member's quiz command counts as an attempt.
type Gate struct {
	ledger   AttemptLedger
	passed   PassedQuizStore
	notify   Messenger
	moderate Moderator
	now      func() time.Time
	log      *slog.Logger
}

func NewGate(ledger AttemptLedger, passed PassedQuizStore, messenger Messenger, moderator Moderator, log *slog.Logger) *Gate {
	return NewGateWithClock(ledger, passed, messenger, moderator, log, time.Now)
}

// NewGateWithClock allows deterministic cooldown checks in tests.
func NewGateWithClock(ledger AttemptLedger, passed PassedQuizStore, messenger Messenger, moderator Moderator, log *slog.Logger, now func() time.Time) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{ledger: ledger, passed: passed, notify: messenger, moderate: moderator, now: now, log: log}
}

// Check runs the eligibility rules for msg in order; the first rule that fires decides.
// Messages from bots are result announcements and pass straight through.
func (g *Gate) Check(ctx context.Context, guild domain.GuildConfig, msg domain.Message) (Decision, error) {
	if msg.AuthorIsBot {
		return Decision{Outcome: OutcomeAnnouncement}, nil
	}

	restrictedName, restricted := restrictedQuiz(guild, msg.Content)
	inChannel := guild.IsQuizChannel(msg.ChannelID)
	def, exact := guild.Ranks.ByCommand(msg.Content)
	mention := domain.Mention(msg.AuthorID)

	if exact {
		passed, err := g.passed.Passed(ctx, msg.GuildID, msg.AuthorID)
		if err != nil {
			return Decision{}, fmt.Errorf("load passed quizzes: %w", err)
		}
		for _, name := range passed {
			if name == def.Name {
				return Decision{Outcome: OutcomeAlreadyPassed, Quiz: def.Name}, nil
			}
		}

		now := g.now()
		next, blocked, err := cooldownUntil(ctx, g.ledger, msg.GuildID, msg.AuthorID, def.Name, now)
		if err != nil {
			return Decision{}, fmt.Errorf("load last attempt: %w", err)
		}
		if blocked {
			unix := next.Unix()
			g.send(ctx, msg.ChannelID, fmt.Sprintf("%s You can only attempt this quiz once every 7 days. Your next attempt will be available <t:%d:R> (on <t:%d:F>).", mention, unix, unix))
			g.punish(ctx, msg, "Quiz on cooldown.")
			return Decision{Outcome: OutcomeCooldown, Quiz: def.Name, NextEligible: next}, nil
		}
	}

	if inChannel && !exact {
		g.send(ctx, msg.ChannelID, fmt.Sprintf("%s Please use the exact quiz command in the level-up channel.", mention))
		g.punish(ctx, msg, "Invalid quiz attempt.")
		return Decision{Outcome: OutcomeInexactCommand}, nil
	}

	if restricted && (!inChannel || !exact) {
		g.send(ctx, msg.ChannelID, fmt.Sprintf("%s %s quiz is restricted.\nYou can only use it in the level-up channel with the exact commands.", mention, restrictedName))
		g.punish(ctx, msg, "Restricted quiz attempt.")
		return Decision{Outcome: OutcomeRestricted, Quiz: restrictedName}, nil
	}

	if exact && !inChannel {
		g.send(ctx, msg.ChannelID, fmt.Sprintf("%s Please use this quiz command in the level-up channels.", mention))
		g.punish(ctx, msg, "Invalid channel for quiz attempt.")
		return Decision{Outcome: OutcomeWrongChannel, Quiz: def.Name}, nil
	}

	if !exact {
		return Decision{Outcome: OutcomeIgnored}, nil
	}

	rec := domain.AttemptRecord{
		GuildID:   msg.GuildID,
		UserID:    msg.AuthorID,
		QuizName:  def.Name,
		CreatedAt: g.now().UTC(),
	}
	if err := g.ledger.RecordAttempt(ctx, rec); err != nil {
		return Decision{}, fmt.Errorf("record attempt: %w", err)
	}
	g.send(ctx, msg.ChannelID, fmt.Sprintf("%s registering attempt for %s. You can try again in 7 days.", mention, def.Name))
	return Decision{Outcome: OutcomeAdmitted, Quiz: def.Name}, nil
}

func restrictedQuiz(guild domain.GuildConfig, content string) (string, bool) {
	lowered := strings.ToLower(content)
	for _, name := range guild.RestrictedQuizNames {
		if name != "" && strings.Contains(lowered, strings.ToLower(name)) {
			return name, true
		}
	}
	return "", false
}

func (g *Gate) send(ctx context.Context, channelID, content string) {
	if err := g.notify.Send(ctx, channelID, content); err != nil {
		g.log.Warn("send gate notice", "channel", channelID, "error", err)
	}
}

// punish is best effort: a missing permission never changes the verdict.
func (g *Gate) punish(ctx context.Context, msg domain.Message, reason string) {
	until := g.now().Add(PunishmentTimeout)
	if err := g.moderate.Timeout(ctx, msg.GuildID, msg.AuthorID, until, reason); err != nil {
		g.log.Debug("timeout member", "guild", msg.GuildID, "user", msg.AuthorID, "error", err)
	}
}
