package app

import (
	"context"
	"time"

	"levelup-gatekeeper/internal/domain"
)

// AttemptLedger is the append-only history of registered quiz attempts.
type AttemptLedger interface {
	RecordAttempt(ctx context.Context, rec domain.AttemptRecord) error
	// LastAttempt returns the most recent attempt time, or ok=false if there is none.
	LastAttempt(ctx context.Context, guildID, userID, quizName string) (time.Time, bool, error)
}

// PassedQuizStore keeps the set of quizzes each member has passed.
type PassedQuizStore interface {
	// AddPassed inserts the record if missing; added is false when it already existed.
	AddPassed(ctx context.Context, guildID, userID, quizName string) (added bool, err error)
	Passed(ctx context.Context, guildID, userID string) ([]string, error)
}

// ReportFetcher loads the report of a finished quiz.
type ReportFetcher interface {
	FetchReport(ctx context.Context, reportID string) (domain.QuizResult, error)
}

// SettingsSource exposes the current role settings snapshot.
type SettingsSource interface {
	Guild(guildID string) (domain.GuildConfig, error)
}

// Messenger posts plain text messages.
type Messenger interface {
	Send(ctx context.Context, channelID, content string) error
}

// Moderator applies temporary timeouts to members.
type Moderator interface {
	Timeout(ctx context.Context, guildID, userID string, until time.Time, reason string) error
}

// RoleManager reads and mutates member roles.
type RoleManager interface {
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	RoleName(ctx context.Context, guildID, roleID string) (string, error)
}

// Platform bundles everything the gatekeeper needs from the chat platform.
type Platform interface {
	Messenger
	Moderator
	RoleManager
}

// Publisher receives progression events.
type Publisher interface {
	Publish(event domain.ProgressEvent)
}

type discardPublisher struct{}

func (discardPublisher) Publish(domain.ProgressEvent) {}
