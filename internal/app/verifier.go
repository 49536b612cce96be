package app

import (
	"fmt"

	"levelup-gatekeeper/internal/domain"
)

// Reason identifies why a quiz result was rejected. ReasonNone means it passed.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoParticipant
	ReasonMultipleParticipants
	ReasonShuffleDisabled
	ReasonLoaded
	ReasonMultipleChoice
	ReasonMissingIndex
	ReasonWrongStartIndex
	ReasonWrongEndIndex
	ReasonUnexpectedStartIndex
	ReasonUnexpectedEndIndex
	ReasonForegroundMismatch
	ReasonEffectMismatch
	ReasonScoreLimitMismatch
	ReasonTimeLimitMismatch
	ReasonFontMismatch
	ReasonFontSizeMismatch
	ReasonTooManyMissed
	ReasonNotEnoughAnswered
)

var reasonMessages = map[Reason]string{
	ReasonNoParticipant:        "Quiz failed due to having no participant.",
	ReasonMultipleParticipants: "Quiz failed due to multiple people participating.",
	ReasonShuffleDisabled:      "Quiz failed due to the shuffle setting being turned off.",
	ReasonLoaded:               "Quiz failed due to being loaded.",
	ReasonMultipleChoice:       "Quiz failed due to being set to multiple choice.",
	ReasonMissingIndex:         "Quiz failed due to not having an index specified.",
	ReasonWrongStartIndex:      "Quiz failed due to having the wrong start index.",
	ReasonWrongEndIndex:        "Quiz failed due to having the wrong end index.",
	ReasonUnexpectedStartIndex: "Quiz failed due to having a start index.",
	ReasonUnexpectedEndIndex:   "Quiz failed due to having an end index.",
	ReasonForegroundMismatch:   "Foreground color does not match required color.",
	ReasonEffectMismatch:       "Effect does not match required effect.",
	ReasonScoreLimitMismatch:   "Set score limit and required score limit don't match.",
	ReasonTimeLimitMismatch:    "Set answer time does not match required answer time.",
	ReasonFontMismatch:         "Set font does not match required font.",
	ReasonFontSizeMismatch:     "Set font size does not match required font size.",
	ReasonTooManyMissed:        "Failed too many questions.",
	ReasonNotEnoughAnswered:    "Not enough questions answered.",
}

func (r Reason) String() string {
	if r == ReasonNone {
		return "passed"
	}
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Verdict is the outcome of verifying a quiz result against its definition.
type Verdict struct {
	Quiz   string
	Actor  string
	Reason Reason
}

func (v Verdict) Passed() bool { return v.Reason == ReasonNone }

// Message is the text shown to members for this verdict.
func (v Verdict) Message() string {
	if v.Passed() {
		return fmt.Sprintf("%s has passed the %s quiz!", domain.Mention(v.Actor), v.Quiz)
	}
	return v.Reason.String()
}

// Verify checks a result for cheat settings. Checks run in a fixed order and the
// first failing one decides the verdict.
func Verify(def domain.QuizDefinition, result domain.QuizResult, actor string) Verdict {
	return Verdict{Quiz: def.Name, Actor: actor, Reason: firstViolation(def, result)}
}

func firstViolation(def domain.QuizDefinition, result domain.QuizResult) Reason {
	switch n := len(result.Participants); {
	case n == 0:
		return ReasonNoParticipant
	case n > 1:
		return ReasonMultipleParticipants
	}

	settings := result.Settings
	if !settings.Shuffle {
		return ReasonShuffleDisabled
	}
	if result.IsLoaded {
		return ReasonLoaded
	}
	for _, deck := range result.Decks {
		if deck.MultipleChoice {
			return ReasonMultipleChoice
		}
	}
	if reason := checkIndexRange(def, result.Decks); reason != ReasonNone {
		return reason
	}

	if def.Foreground != "" && settings.FontColor != def.Foreground {
		return ReasonForegroundMismatch
	}
	if def.Effect != "" && settings.Effect != def.Effect {
		return ReasonEffectMismatch
	}
	if settings.ScoreLimit != def.ScoreLimit {
		return ReasonScoreLimitMismatch
	}
	if settings.AnswerTimeLimitMs != def.TimeLimitMs {
		return ReasonTimeLimitMismatch
	}
	if def.Font != "" && settings.Font != def.Font {
		return ReasonFontMismatch
	}
	if def.FontSize != 0 && settings.FontSize != def.FontSize {
		return ReasonFontSizeMismatch
	}

	score := result.Score()
	if result.QuestionCount-score > def.MaxMissed {
		return ReasonTooManyMissed
	}
	if score != def.ScoreLimit {
		return ReasonNotEnoughAnswered
	}
	return ReasonNone
}

// checkIndexRange enforces the deck range policy: with a configured range every deck
// must carry exactly that range, without one no deck may carry a non-zero index.
func checkIndexRange(def domain.QuizDefinition, decks []domain.Deck) Reason {
	start, end, ranged := def.Range()
	for _, deck := range decks {
		if ranged {
			if deck.StartIndex == nil {
				return ReasonMissingIndex
			}
			if *deck.StartIndex != start {
				return ReasonWrongStartIndex
			}
			if deck.EndIndex == nil {
				return ReasonMissingIndex
			}
			if *deck.EndIndex != end {
				return ReasonWrongEndIndex
			}
			continue
		}
		if deck.StartIndex != nil && *deck.StartIndex != 0 {
			return ReasonUnexpectedStartIndex
		}
		if deck.EndIndex != nil && *deck.EndIndex != 0 {
			return ReasonUnexpectedEndIndex
		}
	}
	return ReasonNone
}
