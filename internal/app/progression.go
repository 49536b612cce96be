package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"levelup-gatekeeper/internal/domain"
)

// Progression records passed quizzes and moves members through the rank hierarchy.
type Progression struct {
	passed PassedQuizStore
	roles  RoleManager
	notify Messenger
	feed   Publisher
	now    func() time.Time
	log    *slog.Logger

	mu    sync.Mutex
	locks map[string]*memberLock // guild/user; dropped once no caller holds or waits
}

type memberLock struct {
	mu   sync.Mutex
	refs int
}

func NewProgression(passed PassedQuizStore, roles RoleManager, messenger Messenger, feed Publisher, log *slog.Logger) *Progression {
	if feed == nil {
		feed = discardPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Progression{passed: passed, roles: roles, notify: messenger, feed: feed, now: time.Now, log: log, locks: make(map[string]*memberLock)}
}

// OnVerifiedPass stores the pass and updates the member's reward role. A pass that
// was already recorded changes nothing.
func (p *Progression) OnVerifiedPass(ctx context.Context, guild domain.GuildConfig, userID string, def domain.QuizDefinition) error {
	unlock := p.lockMember(guild.GuildID, userID)
	defer unlock()

	added, err := p.passed.AddPassed(ctx, guild.GuildID, userID, def.Name)
	if err != nil {
		return fmt.Errorf("store passed quiz: %w", err)
	}
	if !added {
		return nil
	}
	p.feed.Publish(domain.ProgressEvent{
		Type:    domain.EventQuizPassed,
		GuildID: guild.GuildID,
		UserID:  userID,
		Quiz:    def.Name,
		RoleID:  def.RewardRole,
		At:      p.now().UTC(),
	})

	if def.RewardRole != "" {
		p.promote(ctx, guild, userID, def.RewardRole)
		return nil
	}
	_, _, err = p.evaluateLocked(ctx, guild, userID)
	return err
}

// EvaluateCombinationRanks grants the highest combination rank whose prerequisites
// the member has passed. It returns the granted rank, if any.
func (p *Progression) EvaluateCombinationRanks(ctx context.Context, guild domain.GuildConfig, userID string) (domain.QuizDefinition, bool, error) {
	unlock := p.lockMember(guild.GuildID, userID)
	defer unlock()
	return p.evaluateLocked(ctx, guild, userID)
}

func (p *Progression) evaluateLocked(ctx context.Context, guild domain.GuildConfig, userID string) (domain.QuizDefinition, bool, error) {
	tiers := guild.Ranks.CombinationTiers()
	if len(tiers) == 0 {
		return domain.QuizDefinition{}, false, nil
	}

	passedNames, err := p.passed.Passed(ctx, guild.GuildID, userID)
	if err != nil {
		return domain.QuizDefinition{}, false, fmt.Errorf("load passed quizzes: %w", err)
	}
	passed := toSet(passedNames)

	// An unknown role set is treated as holding no tier; the strip then covers every reward role.
	held, known := p.memberRoles(ctx, guild.GuildID, userID)
	holds := toSet(held)

	// Highest tier first, so a member qualifying for several lands on the top one.
	for i := len(tiers) - 1; i >= 0; i-- {
		tier := tiers[i]
		if _, ok := holds[tier.RewardRole]; ok {
			return domain.QuizDefinition{}, false, nil
		}
		if !containsAll(passed, toSet(tier.QuizzesRequired)) {
			continue
		}

		p.replaceRewardRole(ctx, guild, userID, held, known, tier.RewardRole)
		p.feed.Publish(domain.ProgressEvent{
			Type:    domain.EventRankGranted,
			GuildID: guild.GuildID,
			UserID:  userID,
			Quiz:    tier.Name,
			RoleID:  tier.RewardRole,
			At:      p.now().UTC(),
		})
		p.announceRank(ctx, guild, userID, tier)
		return tier, true, nil
	}
	return domain.QuizDefinition{}, false, nil
}

func (p *Progression) promote(ctx context.Context, guild domain.GuildConfig, userID, roleID string) {
	held, known := p.memberRoles(ctx, guild.GuildID, userID)
	p.replaceRewardRole(ctx, guild, userID, held, known, roleID)
}

func (p *Progression) memberRoles(ctx context.Context, guildID, userID string) ([]string, bool) {
	held, err := p.roles.MemberRoles(ctx, guildID, userID)
	if err != nil {
		p.log.Warn("load member roles", "guild", guildID, "user", userID, "error", err)
		return nil, false
	}
	return held, true
}

// replaceRewardRole strips the member's reward roles and grants roleID. With known=false
// every configured reward role is removed. Strip and grant are separate platform calls;
// a failure of either is logged and not rolled back.
func (p *Progression) replaceRewardRole(ctx context.Context, guild domain.GuildConfig, userID string, held []string, known bool, roleID string) {
	holds := toSet(held)
	for _, reward := range guild.Ranks.RewardRoles() {
		if reward == roleID {
			continue
		}
		if _, ok := holds[reward]; known && !ok {
			continue
		}
		if err := p.roles.RemoveRole(ctx, guild.GuildID, userID, reward); err != nil {
			p.log.Warn("remove reward role", "guild", guild.GuildID, "user", userID, "role", reward, "error", err)
		}
	}
	if err := p.roles.AddRole(ctx, guild.GuildID, userID, roleID); err != nil {
		p.log.Warn("grant reward role", "guild", guild.GuildID, "user", userID, "role", roleID, "error", err)
	}
}

func (p *Progression) announceRank(ctx context.Context, guild domain.GuildConfig, userID string, tier domain.QuizDefinition) {
	name, err := p.roles.RoleName(ctx, guild.GuildID, tier.RewardRole)
	if err != nil || name == "" {
		name = tier.Name
	}
	if guild.AnnounceChannel == "" {
		return
	}
	content := fmt.Sprintf("%s is now a %s!", domain.Mention(userID), name)
	if err := p.notify.Send(ctx, guild.AnnounceChannel, content); err != nil {
		p.log.Warn("announce rank", "guild", guild.GuildID, "channel", guild.AnnounceChannel, "error", err)
	}
}

func (p *Progression) lockMember(guildID, userID string) func() {
	key := guildID + "/" + userID

	p.mu.Lock()
	lock, ok := p.locks[key]
	if !ok {
		lock = &memberLock{}
		p.locks[key] = lock
	}
	lock.refs++
	p.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		p.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}

