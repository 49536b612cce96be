package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"levelup-gatekeeper/internal/domain"

	"gopkg.in/yaml.v3"
)

type roleFile struct {
	Settings      map[string]guildSettings         `yaml:"settings"`
	RankStructure map[string]domain.RankStructure `yaml:"rank_structure"`
}

type guildSettings struct {
	QuizChannels        []string `yaml:"valid_levelup_channels"`
	RestrictedQuizNames []string `yaml:"restricted_quiz_names"`
	AnnounceChannel     string   `yaml:"announce_channel"`
}

// Roles is an immutable snapshot of the per-guild role settings.
type Roles struct {
	guilds map[string]domain.GuildConfig
}

// ParseRoles decodes and validates a role settings document.
func ParseRoles(data []byte) (*Roles, error) {
	var raw roleFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode role settings: %w", err)
	}

	guilds := make(map[string]domain.GuildConfig, len(raw.Settings))
	for guildID, settings := range raw.Settings {
		ranks := raw.RankStructure[guildID]
		if err := ValidateRanks(ranks); err != nil {
			return nil, fmt.Errorf("guild %s: %w", guildID, err)
		}
		guilds[guildID] = domain.GuildConfig{
			GuildID:             guildID,
			QuizChannels:        append([]string(nil), settings.QuizChannels...),
			RestrictedQuizNames: append([]string(nil), settings.RestrictedQuizNames...),
			AnnounceChannel:     settings.AnnounceChannel,
			Ranks:               append(domain.RankStructure(nil), ranks...),
		}
	}
	for guildID := range raw.RankStructure {
		if _, ok := raw.Settings[guildID]; !ok {
			return nil, fmt.Errorf("guild %s: rank structure without settings", guildID)
		}
	}
	return &Roles{guilds: guilds}, nil
}

// LoadRoles reads role settings from path.
func LoadRoles(path string) (*Roles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRoles(data)
}

// Guild returns the settings of one guild.
func (r *Roles) Guild(guildID string) (domain.GuildConfig, error) {
	guild, ok := r.guilds[guildID]
	if !ok {
		return domain.GuildConfig{}, fmt.Errorf("%w: %s", domain.ErrGuildNotConfigured, guildID)
	}
	return guild, nil
}

// GuildIDs lists the configured guilds in sorted order.
func (r *Roles) GuildIDs() []string {
	ids := make([]string, 0, len(r.guilds))
	for id := range r.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateRanks checks a rank structure for definitions the engine cannot act on.
func ValidateRanks(ranks domain.RankStructure) error {
	names := make(map[string]struct{}, len(ranks))
	deckSets := make(map[string]string, len(ranks))
	for _, def := range ranks {
		if def.Name == "" {
			return fmt.Errorf("quiz definition without name")
		}
		if _, dup := names[def.Name]; dup {
			return fmt.Errorf("duplicate quiz name %q", def.Name)
		}
		names[def.Name] = struct{}{}

		if n := len(def.DeckRange); n != 0 && n != 2 {
			return fmt.Errorf("quiz %q: deck_range needs a start and an end index", def.Name)
		}
		if def.Combination {
			if def.RewardRole == "" {
				return fmt.Errorf("combination rank %q has no rank_to_get", def.Name)
			}
			if len(def.QuizzesRequired) == 0 {
				return fmt.Errorf("combination rank %q requires no quizzes", def.Name)
			}
			continue
		}
		if def.Command == "" || len(def.Decks) == 0 {
			return fmt.Errorf("quiz %q needs a command and decks", def.Name)
		}
		key := deckKey(def.Decks)
		if other, dup := deckSets[key]; dup {
			return fmt.Errorf("quizzes %q and %q use the same decks", other, def.Name)
		}
		deckSets[key] = def.Name
	}

	tiers := ranks.CombinationTiers()
	for _, tier := range tiers {
		for _, required := range tier.QuizzesRequired {
			if _, ok := names[required]; !ok {
				return fmt.Errorf("combination rank %q requires unknown quiz %q", tier.Name, required)
			}
		}
	}
	for i := range tiers {
		for j := i + 1; j < len(tiers); j++ {
			a, b := toSet(tiers[i].QuizzesRequired), toSet(tiers[j].QuizzesRequired)
			if !subset(a, b) && !subset(b, a) {
				return fmt.Errorf("combination ranks %q and %q have incomparable prerequisites", tiers[i].Name, tiers[j].Name)
			}
		}
	}
	return nil
}

func deckKey(decks []string) string {
	set := toSet(decks)
	sorted := make([]string, 0, len(set))
	for deck := range set {
		sorted = append(sorted, deck)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func subset(sub, super map[string]struct{}) bool {
	for key := range sub {
		if _, ok := super[key]; !ok {
			return false
		}
	}
	return true
}

// RoleStore holds the current Roles snapshot and swaps it on Refresh.
type RoleStore struct {
	path    string
	current atomic.Pointer[Roles]
}

// NewRoleStore loads the initial snapshot from path.
func NewRoleStore(path string) (*RoleStore, error) {
	store := &RoleStore{path: path}
	if err := store.Refresh(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStaticRoleStore wraps an already parsed snapshot; Refresh keeps it.
func NewStaticRoleStore(roles *Roles) *RoleStore {
	store := &RoleStore{}
	store.current.Store(roles)
	return store
}

// Refresh reloads the file. On error the previous snapshot stays active.
func (s *RoleStore) Refresh() error {
	if s.path == "" {
		return nil
	}
	roles, err := LoadRoles(s.path)
	if err != nil {
		return err
	}
	s.current.Store(roles)
	return nil
}

// Snapshot returns the active settings.
func (s *RoleStore) Snapshot() *Roles {
	return s.current.Load()
}

func (s *RoleStore) Guild(guildID string) (domain.GuildConfig, error) {
	return s.Snapshot().Guild(guildID)
}
