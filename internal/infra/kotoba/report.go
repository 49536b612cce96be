package kotoba

import (
	"bytes"
	"encoding/json"
	"strconv"

	"levelup-gatekeeper/internal/domain"
)

// gameReport mirrors the subset of /api/game_reports/{id} the gatekeeper reads.
type gameReport struct {
	ID           string `json:"_id"`
	Participants []struct {
		DiscordUser struct {
			ID string `json:"id"`
		} `json:"discordUser"`
	} `json:"participants"`
	Settings struct {
		Shuffle           bool    `json:"shuffle"`
		FontColor         string  `json:"fontColor"`
		Effect            string  `json:"effect"`
		ScoreLimit        flexInt `json:"scoreLimit"`
		AnswerTimeLimitMs flexInt `json:"answerTimeLimitInMs"`
		Font              string  `json:"font"`
		FontSize          flexInt `json:"fontSize"`
	} `json:"settings"`
	Decks []struct {
		ShortName  string   `json:"shortName"`
		MC         bool     `json:"mc"`
		StartIndex *flexInt `json:"startIndex"`
		EndIndex   *flexInt `json:"endIndex"`
	} `json:"decks"`
	IsLoaded  bool              `json:"isLoaded"`
	Questions []json.RawMessage `json:"questions"`
	Scores    []struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Score flexInt `json:"score"`
	} `json:"scores"`
}

// flexInt accepts numbers, numeric strings and null.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, err := n.Float64()
	if err != nil {
		return err
	}
	*f = flexInt(int(v))
	return nil
}

func optional(v *flexInt) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func (r gameReport) toDomain(reportID string) domain.QuizResult {
	result := domain.QuizResult{
		ID: reportID,
		Settings: domain.QuizSettings{
			Shuffle:           r.Settings.Shuffle,
			FontColor:         r.Settings.FontColor,
			Effect:            r.Settings.Effect,
			ScoreLimit:        int(r.Settings.ScoreLimit),
			AnswerTimeLimitMs: int(r.Settings.AnswerTimeLimitMs),
			Font:              r.Settings.Font,
			FontSize:          int(r.Settings.FontSize),
		},
		IsLoaded:      r.IsLoaded,
		QuestionCount: len(r.Questions),
	}
	for _, p := range r.Participants {
		result.Participants = append(result.Participants, domain.Participant{UserID: p.DiscordUser.ID})
	}
	for _, d := range r.Decks {
		result.Decks = append(result.Decks, domain.Deck{
			ShortName:      d.ShortName,
			MultipleChoice: d.MC,
			StartIndex:     optional(d.StartIndex),
			EndIndex:       optional(d.EndIndex),
		})
	}
	for _, s := range r.Scores {
		result.Scores = append(result.Scores, domain.Score{UserID: s.User.ID, Score: int(s.Score)})
	}
	return result
}
