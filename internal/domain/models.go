package domain

import (
	"fmt"
	"time"
)

// QuizDefinition is one configured rank: the quiz a member has to pass
// and the role it grants.
type QuizDefinition struct {
	Name            string   `yaml:"name" json:"name"`
	Command         string   `yaml:"command" json:"command"`
	Decks           []string `yaml:"decks" json:"decks"`
	ScoreLimit      int      `yaml:"score_limit" json:"scoreLimit"`
	TimeLimitMs     int      `yaml:"time_limit" json:"timeLimitMs"`
	Font            string   `yaml:"font" json:"font,omitempty"`
	FontSize        int      `yaml:"font_size" json:"fontSize,omitempty"`
	Foreground      string   `yaml:"foreground" json:"foreground,omitempty"`
	Effect          string   `yaml:"effect" json:"effect,omitempty"`
	MaxMissed       int      `yaml:"max_missed" json:"maxMissed"`
	DeckRange       []int    `yaml:"deck_range" json:"deckRange,omitempty"`
	RewardRole      string   `yaml:"rank_to_get" json:"rewardRole,omitempty"`
	Combination     bool     `yaml:"combination_rank" json:"combination"`
	QuizzesRequired []string `yaml:"quizzes_required" json:"quizzesRequired,omitempty"`
}

// Range returns the required [start, end] deck index range, if any.
func (d QuizDefinition) Range() (start, end int, ok bool) {
	if len(d.DeckRange) != 2 {
		return 0, 0, false
	}
	return d.DeckRange[0], d.DeckRange[1], true
}

// RankStructure is a guild's quiz definitions in ascending hierarchy order.
type RankStructure []QuizDefinition

// Find returns the definition with the given name.
func (r RankStructure) Find(name string) (QuizDefinition, bool) {
	for _, def := range r {
		if def.Name == name {
			return def, true
		}
	}
	return QuizDefinition{}, false
}

// ByCommand returns the definition whose trigger command equals content exactly.
func (r RankStructure) ByCommand(content string) (QuizDefinition, bool) {
	for _, def := range r {
		if def.Command != "" && def.Command == content {
			return def, true
		}
	}
	return QuizDefinition{}, false
}

// RewardRoles is the set of roles handed out by any definition.
func (r RankStructure) RewardRoles() []string {
	roles := make([]string, 0, len(r))
	for _, def := range r {
		if def.RewardRole != "" {
			roles = append(roles, def.RewardRole)
		}
	}
	return roles
}

// CombinationTiers returns the combination definitions in ascending tier order.
func (r RankStructure) CombinationTiers() []QuizDefinition {
	tiers := make([]QuizDefinition, 0)
	for _, def := range r {
		if def.Combination {
			tiers = append(tiers, def)
		}
	}
	return tiers
}

// GuildConfig is the per-guild part of the role settings.
type GuildConfig struct {
	GuildID             string
	QuizChannels        []string
	RestrictedQuizNames []string
	AnnounceChannel     string
	Ranks               RankStructure
}

// IsQuizChannel reports whether channelID is one of the level-up channels.
func (g GuildConfig) IsQuizChannel(channelID string) bool {
	for _, id := range g.QuizChannels {
		if id == channelID {
			return true
		}
	}
	return false
}

// AttemptRecord is one registered quiz attempt. Records are never updated.
type AttemptRecord struct {
	GuildID   string
	UserID    string
	QuizName  string
	CreatedAt time.Time
}

// QuizResult is the report of a finished quiz as published by the quiz bot.
type QuizResult struct {
	ID            string        `json:"id"`
	Participants  []Participant `json:"participants"`
	Settings      QuizSettings  `json:"settings"`
	Decks         []Deck        `json:"decks"`
	IsLoaded      bool          `json:"isLoaded"`
	QuestionCount int           `json:"questionCount"`
	Scores        []Score       `json:"scores"`
}

// Score returns the score of the first entry in the score list.
func (r QuizResult) Score() int {
	if len(r.Scores) == 0 {
		return 0
	}
	return r.Scores[0].Score
}

// Actor returns the user id of the first participant.
func (r QuizResult) Actor() (string, bool) {
	if len(r.Participants) == 0 || r.Participants[0].UserID == "" {
		return "", false
	}
	return r.Participants[0].UserID, true
}

// DeckNames lists the short names of the decks used in the session.
func (r QuizResult) DeckNames() []string {
	names := make([]string, 0, len(r.Decks))
	for _, deck := range r.Decks {
		names = append(names, deck.ShortName)
	}
	return names
}

type Participant struct {
	UserID string `json:"userId"`
}

// QuizSettings are the session settings the quiz was run with.
type QuizSettings struct {
	Shuffle           bool   `json:"shuffle"`
	FontColor         string `json:"fontColor"`
	Effect            string `json:"effect"`
	ScoreLimit        int    `json:"scoreLimit"`
	AnswerTimeLimitMs int    `json:"answerTimeLimitInMs"`
	Font              string `json:"font"`
	FontSize          int    `json:"fontSize"`
}

// Deck is one deck of a session. A nil index means the report carried none.
type Deck struct {
	ShortName      string `json:"shortName"`
	MultipleChoice bool   `json:"mc"`
	StartIndex     *int   `json:"startIndex,omitempty"`
	EndIndex       *int   `json:"endIndex,omitempty"`
}

type Score struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

// Message is a chat message as seen by the gatekeeper.
type Message struct {
	ID          string
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorIsBot bool
	Content     string
	Embeds      []Embed
}

type Embed struct {
	Title  string
	Fields []EmbedField
}

type EmbedField struct {
	Name  string
	Value string
}

// ProgressEventType distinguishes feed events.
type ProgressEventType string

const (
	EventQuizPassed  ProgressEventType = "quizPassed"
	EventRankGranted ProgressEventType = "rankGranted"
)

// ProgressEvent is published whenever a member passes a quiz or reaches a rank.
type ProgressEvent struct {
	Type    ProgressEventType `json:"type"`
	GuildID string            `json:"guildId"`
	UserID  string            `json:"userId"`
	Quiz    string            `json:"quiz"`
	RoleID  string            `json:"roleId,omitempty"`
	At      time.Time         `json:"at"`
}

// Mention formats a user mention for chat messages.
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}
