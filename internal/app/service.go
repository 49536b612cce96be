package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"levelup-gatekeeper/internal/domain"

	"github.com/google/uuid"
)

// DefaultQuizBotID is the user id of the bot that runs the quizzes.
const DefaultQuizBotID = "251239170058616833"

const quizCommandPrefix = "k!q"

var reportPattern = regexp.MustCompile(`game_reports/([\da-z]*)`)

// Dependencies wires a Service.
type Dependencies struct {
	Settings  SettingsSource
	Ledger    AttemptLedger
	Passed    PassedQuizStore
	Reports   ReportFetcher
	Platform  Platform
	Feed      Publisher
	Logger    *slog.Logger
	Now       func() time.Time
	QuizBotID string
}

// Service handles chat messages: quiz commands go through the gate, result
// announcements are verified and credited.
type Service struct {
	settings    SettingsSource
	passed      PassedQuizStore
	reports     ReportFetcher
	notify      Messenger
	gate        *Gate
	progression *Progression
	quizBotID   string
	log         *slog.Logger
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	botID := deps.QuizBotID
	if botID == "" {
		botID = DefaultQuizBotID
	}
	progression := NewProgression(deps.Passed, deps.Platform, deps.Platform, deps.Feed, log)
	progression.now = now
	return &Service{
		settings:    deps.Settings,
		passed:      deps.Passed,
		reports:     deps.Reports,
		notify:      deps.Platform,
		gate:        NewGateWithClock(deps.Ledger, deps.Passed, deps.Platform, deps.Platform, log, now),
		progression: progression,
		quizBotID:   botID,
		log:         log,
	}
}

// HandleMessage processes one chat message. Unrecognised or unparsable events are
// dropped without a user-visible reply; only store failures are returned.
func (s *Service) HandleMessage(ctx context.Context, msg domain.Message) error {
	fromQuizBot := msg.AuthorID == s.quizBotID
	if !fromQuizBot && !strings.Contains(strings.ToLower(msg.Content), quizCommandPrefix) {
		return nil
	}
	log := s.log.With("event", uuid.NewString(), "guild", msg.GuildID, "channel", msg.ChannelID)

	guild, err := s.settings.Guild(msg.GuildID)
	if err != nil {
		log.Debug("skip message", "error", err)
		return nil
	}

	if !fromQuizBot {
		// Only the quiz bot may carry results; other bots are ignored.
		if msg.AuthorIsBot {
			return nil
		}
		decision, err := s.gate.Check(ctx, guild, msg)
		if err != nil {
			return err
		}
		log.Info("quiz command", "user", msg.AuthorID, "outcome", decision.Outcome.String(), "quiz", decision.Quiz)
		return nil
	}

	err = s.handleResult(ctx, log, guild, msg)
	switch {
	case errors.Is(err, domain.ErrMalformedReference),
		errors.Is(err, domain.ErrReportFetch),
		errors.Is(err, domain.ErrNoMatchingQuiz):
		log.Debug("drop result announcement", "error", err)
		return nil
	}
	return err
}

func (s *Service) handleResult(ctx context.Context, log *slog.Logger, guild domain.GuildConfig, msg domain.Message) error {
	reportID, ok := ReportID(msg)
	if !ok {
		return domain.ErrMalformedReference
	}
	result, err := s.reports.FetchReport(ctx, reportID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrReportFetch, err)
	}
	def, ok := Match(result.Decks, guild.Ranks)
	if !ok {
		return fmt.Errorf("%w: decks %v", domain.ErrNoMatchingQuiz, result.DeckNames())
	}
	actor, ok := result.Actor()
	if !ok {
		return fmt.Errorf("%w: report %s has no participant", domain.ErrMalformedReference, reportID)
	}

	passed, err := s.passed.Passed(ctx, guild.GuildID, actor)
	if err != nil {
		return fmt.Errorf("load passed quizzes: %w", err)
	}
	for _, name := range passed {
		if name == def.Name {
			return nil
		}
	}

	verdict := Verify(def, result, actor)
	log.Info("quiz verified", "report", reportID, "user", actor, "quiz", def.Name, "reason", verdict.Reason.String())
	if !verdict.Passed() {
		s.send(ctx, log, msg.ChannelID, verdict.Message())
		return nil
	}
	if guild.AnnounceChannel != "" {
		s.send(ctx, log, guild.AnnounceChannel, verdict.Message())
	}
	return s.progression.OnVerifiedPass(ctx, guild, actor, def)
}

// Verify fetches a report and judges it against the guild's rank structure
// without touching any state.
func (s *Service) Verify(ctx context.Context, guildID, reportID string) (Verdict, error) {
	guild, err := s.settings.Guild(guildID)
	if err != nil {
		return Verdict{}, err
	}
	result, err := s.reports.FetchReport(ctx, reportID)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", domain.ErrReportFetch, err)
	}
	def, ok := Match(result.Decks, guild.Ranks)
	if !ok {
		return Verdict{}, domain.ErrNoMatchingQuiz
	}
	actor, _ := result.Actor()
	return Verify(def, result, actor), nil
}

func (s *Service) send(ctx context.Context, log *slog.Logger, channelID, content string) {
	if err := s.notify.Send(ctx, channelID, content); err != nil {
		log.Warn("send message", "target", channelID, "error", err)
	}
}

// ReportID extracts the report id from a finished-quiz announcement: the first
// embed must be titled as ended and its last field must link the game report.
func ReportID(msg domain.Message) (string, bool) {
	if len(msg.Embeds) == 0 {
		return "", false
	}
	embed := msg.Embeds[0]
	if !strings.Contains(embed.Title, "Ended") || len(embed.Fields) == 0 {
		return "", false
	}
	match := reportPattern.FindStringSubmatch(embed.Fields[len(embed.Fields)-1].Value)
	if len(match) < 2 || match[1] == "" {
		return "", false
	}
	return match[1], true
}
