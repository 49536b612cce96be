package app_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"levelup-gatekeeper/internal/domain"
)

type sentMessage struct {
	channelID string
	content   string
}

type timeoutCall struct {
	guildID string
	userID  string
	until   time.Time
	reason  string
}

// fakePlatform records every side effect and keeps member roles in memory.
type fakePlatform struct {
	mu         sync.Mutex
	sent       []sentMessage
	timeouts   []timeoutCall
	roles      map[string]map[string]struct{} // user -> roles
	roleNames  map[string]string
	roleOps    []string
	timeoutErr error
	addRoleErr error
	rolesErr   error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		roles:     make(map[string]map[string]struct{}),
		roleNames: make(map[string]string),
	}
}

func (p *fakePlatform) Send(_ context.Context, channelID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentMessage{channelID: channelID, content: content})
	return nil
}

func (p *fakePlatform) Timeout(_ context.Context, guildID, userID string, until time.Time, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeouts = append(p.timeouts, timeoutCall{guildID: guildID, userID: userID, until: until, reason: reason})
	return p.timeoutErr
}

func (p *fakePlatform) MemberRoles(_ context.Context, _, userID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rolesErr != nil {
		return nil, p.rolesErr
	}
	roles := make([]string, 0, len(p.roles[userID]))
	for role := range p.roles[userID] {
		roles = append(roles, role)
	}
	return roles, nil
}

func (p *fakePlatform) AddRole(_ context.Context, _, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roleOps = append(p.roleOps, "+"+roleID)
	if p.addRoleErr != nil {
		return p.addRoleErr
	}
	if p.roles[userID] == nil {
		p.roles[userID] = make(map[string]struct{})
	}
	p.roles[userID][roleID] = struct{}{}
	return nil
}

func (p *fakePlatform) RemoveRole(_ context.Context, _, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roleOps = append(p.roleOps, "-"+roleID)
	delete(p.roles[userID], roleID)
	return nil
}

func (p *fakePlatform) RoleName(_ context.Context, _, roleID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name, ok := p.roleNames[roleID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown role %s", roleID)
}

func (p *fakePlatform) give(userID string, roles ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.roles[userID] == nil {
		p.roles[userID] = make(map[string]struct{})
	}
	for _, role := range roles {
		p.roles[userID][role] = struct{}{}
	}
}

func (p *fakePlatform) has(userID, roleID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.roles[userID][roleID]
	return ok
}

func (p *fakePlatform) heldRewardRoles(userID string, rewardRoles []string) []string {
	held := make([]string, 0)
	for _, role := range rewardRoles {
		if p.has(userID, role) {
			held = append(held, role)
		}
	}
	return held
}

func (p *fakePlatform) messages() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentMessage(nil), p.sent...)
}

type staticSettings map[string]domain.GuildConfig

func (s staticSettings) Guild(guildID string) (domain.GuildConfig, error) {
	guild, ok := s[guildID]
	if !ok {
		return domain.GuildConfig{}, domain.ErrGuildNotConfigured
	}
	return guild, nil
}

type recordingFeed struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (f *recordingFeed) Publish(event domain.ProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

const (
	guildID         = "g1"
	levelUpChannel  = "c-levelup"
	otherChannel    = "c-general"
	announceChannel = "c-announce"
	actorID         = "u1"

	roleN5          = "r-n5"
	roleN4          = "r-n4"
	roleGrammar     = "r-grammar"
	roleGrammarPlus = "r-grammar-plus"

	n5Command = "k!quiz jlpt5 20 hardcore nd mmq=10"
	n4Command = "k!quiz jlpt4 20 hardcore nd mmq=10"
)

func testGuild() domain.GuildConfig {
	return domain.GuildConfig{
		GuildID:             guildID,
		QuizChannels:        []string{levelUpChannel},
		RestrictedQuizNames: []string{"gn"},
		AnnounceChannel:     announceChannel,
		Ranks: domain.RankStructure{
			{Name: "N5", Command: n5Command, Decks: []string{"jlpt5"}, ScoreLimit: 20, TimeLimitMs: 16000, MaxMissed: 2, RewardRole: roleN5},
			{Name: "N4", Command: n4Command, Decks: []string{"jlpt4"}, ScoreLimit: 20, TimeLimitMs: 16000, MaxMissed: 2, RewardRole: roleN4},
			{Name: "GN2", Command: "k!quiz gn2(1-100) 30", Decks: []string{"gn2"}, ScoreLimit: 30, TimeLimitMs: 30000, MaxMissed: 3, DeckRange: []int{1, 100}},
			{Name: "Vocab", Command: "k!quiz jpdb1k 30", Decks: []string{"jpdb1k", "jpdb2k"}, ScoreLimit: 30, TimeLimitMs: 16000, MaxMissed: 3},
			{Name: "Grammar", Combination: true, RewardRole: roleGrammar, QuizzesRequired: []string{"GN2"}},
			{Name: "Grammar+", Combination: true, RewardRole: roleGrammarPlus, QuizzesRequired: []string{"GN2", "Vocab"}},
		},
	}
}

func cleanResult(actor string, decks ...string) domain.QuizResult {
	result := domain.QuizResult{
		ID:            "rep1",
		Participants:  []domain.Participant{{UserID: actor}},
		Settings:      domain.QuizSettings{Shuffle: true, ScoreLimit: 20, AnswerTimeLimitMs: 16000},
		QuestionCount: 20,
		Scores:        []domain.Score{{UserID: actor, Score: 20}},
	}
	for _, deck := range decks {
		result.Decks = append(result.Decks, domain.Deck{ShortName: deck})
	}
	return result
}

func intPtr(v int) *int { return &v }
