package domain

import "errors"

var (
	// ErrGuildNotConfigured is returned when the role settings have no entry for a guild.
	ErrGuildNotConfigured = errors.New("guild not configured")
	// ErrReportFetch wraps network and decode failures while loading a quiz report.
	ErrReportFetch = errors.New("quiz report fetch failed")
	// ErrNoMatchingQuiz indicates the decks of a report match no configured quiz.
	ErrNoMatchingQuiz = errors.New("no matching quiz definition")
	// ErrMalformedReference means no report id could be extracted from a result announcement.
	ErrMalformedReference = errors.New("malformed report reference")
	// ErrPermissionDenied is returned by platform adapters when the bot lacks permissions.
	ErrPermissionDenied = errors.New("permission denied")
)
