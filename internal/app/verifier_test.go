package app_test

import (
	"testing"

	"levelup-gatekeeper/internal/app"
	"levelup-gatekeeper/internal/domain"

	"github.com/stretchr/testify/require"
)

func n5Definition() domain.QuizDefinition {
	def, _ := testGuild().Ranks.Find("N5")
	return def
}

func TestVerifyPassesCleanResult(t *testing.T) {
	result := cleanResult(actorID, "jlpt5")
	result.QuestionCount = 21
	result.Scores[0].Score = 20

	verdict := app.Verify(n5Definition(), result, actorID)
	require.True(t, verdict.Passed())
	require.Equal(t, app.ReasonNone, verdict.Reason)
	require.Equal(t, "<@u1> has passed the N5 quiz!", verdict.Message())
}

func TestVerifyRejections(t *testing.T) {
	ranged := n5Definition()
	ranged.DeckRange = []int{2, 10}

	styled := n5Definition()
	styled.Foreground = "rgb(241, 115, 255)"
	styled.Effect = "antiocr"
	styled.Font = "Yu Mincho"
	styled.FontSize = 100

	styledResult := func(mutate func(*domain.QuizResult)) domain.QuizResult {
		r := cleanResult(actorID, "jlpt5")
		r.Settings.FontColor = "rgb(241, 115, 255)"
		r.Settings.Effect = "antiocr"
		r.Settings.Font = "Yu Mincho"
		r.Settings.FontSize = 100
		mutate(&r)
		return r
	}

	cases := []struct {
		name   string
		def    domain.QuizDefinition
		result domain.QuizResult
		want   app.Reason
	}{
		{
			name: "no participant",
			def:  n5Definition(),
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.Participants = nil
				return r
			}(),
			want: app.ReasonNoParticipant,
		},
		{
			name: "shuffle off",
			def:  n5Definition(),
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.Settings.Shuffle = false
				return r
			}(),
			want: app.ReasonShuffleDisabled,
		},
		{
			name: "loaded session",
			def:  n5Definition(),
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.IsLoaded = true
				return r
			}(),
			want: app.ReasonLoaded,
		},
		{
			name: "multiple choice deck",
			def:  n5Definition(),
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5", "jlpt5k")
				r.Decks[1].MultipleChoice = true
				return r
			}(),
			want: app.ReasonMultipleChoice,
		},
		{
			name:   "range required but missing",
			def:    ranged,
			result: cleanResult(actorID, "jlpt5"),
			want:   app.ReasonMissingIndex,
		},
		{
			name: "range with wrong start",
			def:  ranged,
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.Decks[0].StartIndex, r.Decks[0].EndIndex = intPtr(1), intPtr(10)
				return r
			}(),
			want: app.ReasonWrongStartIndex,
		},
		{
			name: "range with wrong end",
			def:  ranged,
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.Decks[0].StartIndex, r.Decks[0].EndIndex = intPtr(2), intPtr(11)
				return r
			}(),
			want: app.ReasonWrongEndIndex,
		},
		{
			name: "range ok on first deck only",
			def:  ranged,
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5", "jlpt5k")
				r.Decks[0].StartIndex, r.Decks[0].EndIndex = intPtr(2), intPtr(10)
				r.Decks[1].StartIndex = intPtr(2)
				return r
			}(),
			want: app.ReasonMissingIndex,
		},
		{
			name: "unexpected start index",
			def:  n5Definition(),
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.Decks[0].StartIndex = intPtr(5)
				return r
			}(),
			want: app.ReasonUnexpectedStartIndex,
		},
		{
			name: "unexpected end index",
			def:  n5Definition(),
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.Decks[0].EndIndex = intPtr(50)
				return r
			}(),
			want: app.ReasonUnexpectedEndIndex,
		},
		{
			name:   "foreground mismatch",
			def:    styled,
			result: styledResult(func(r *domain.QuizResult) { r.Settings.FontColor = "white" }),
			want:   app.ReasonForegroundMismatch,
		},
		{
			name:   "effect mismatch",
			def:    styled,
			result: styledResult(func(r *domain.QuizResult) { r.Settings.Effect = "" }),
			want:   app.ReasonEffectMismatch,
		},
		{
			name:   "score limit mismatch",
			def:    styled,
			result: styledResult(func(r *domain.QuizResult) { r.Settings.ScoreLimit = 10 }),
			want:   app.ReasonScoreLimitMismatch,
		},
		{
			name:   "time limit mismatch",
			def:    styled,
			result: styledResult(func(r *domain.QuizResult) { r.Settings.AnswerTimeLimitMs = 30000 }),
			want:   app.ReasonTimeLimitMismatch,
		},
		{
			name:   "font mismatch",
			def:    styled,
			result: styledResult(func(r *domain.QuizResult) { r.Settings.Font = "Arial" }),
			want:   app.ReasonFontMismatch,
		},
		{
			name:   "font size mismatch",
			def:    styled,
			result: styledResult(func(r *domain.QuizResult) { r.Settings.FontSize = 60 }),
			want:   app.ReasonFontSizeMismatch,
		},
		{
			name: "too many missed",
			def:  n5Definition(),
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.QuestionCount = 23
				return r
			}(),
			want: app.ReasonTooManyMissed,
		},
		{
			name: "score limit not reached",
			def:  n5Definition(),
			result: func() domain.QuizResult {
				r := cleanResult(actorID, "jlpt5")
				r.Scores[0].Score = 19
				return r
			}(),
			want: app.ReasonNotEnoughAnswered,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := app.Verify(tc.def, tc.result, actorID)
			require.False(t, verdict.Passed())
			require.Equal(t, tc.want, verdict.Reason)
			require.Equal(t, tc.want.String(), verdict.Message())
		})
	}
}

func TestVerifyRangeAccepted(t *testing.T) {
	def := n5Definition()
	def.DeckRange = []int{2, 10}
	result := cleanResult(actorID, "jlpt5", "jlpt5k")
	for i := range result.Decks {
		result.Decks[i].StartIndex, result.Decks[i].EndIndex = intPtr(2), intPtr(10)
	}
	require.True(t, app.Verify(def, result, actorID).Passed())
}

func TestVerifyZeroIndexCountsAsEmpty(t *testing.T) {
	result := cleanResult(actorID, "jlpt5")
	result.Decks[0].StartIndex, result.Decks[0].EndIndex = intPtr(0), intPtr(0)
	require.True(t, app.Verify(n5Definition(), result, actorID).Passed())
}

func TestVerifyMultipleParticipantsWinsOverEverything(t *testing.T) {
	result := cleanResult(actorID, "jlpt5")
	result.Participants = append(result.Participants, domain.Participant{UserID: "u2"})
	result.Settings.Shuffle = false
	result.IsLoaded = true
	result.Decks[0].MultipleChoice = true
	result.Scores[0].Score = 3

	verdict := app.Verify(n5Definition(), result, actorID)
	require.Equal(t, app.ReasonMultipleParticipants, verdict.Reason)
	require.Equal(t, "Quiz failed due to multiple people participating.", verdict.Message())
}

func TestVerifyIsDeterministic(t *testing.T) {
	result := cleanResult(actorID, "jlpt5")
	result.Decks[0].EndIndex = intPtr(7)
	first := app.Verify(n5Definition(), result, actorID)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, app.Verify(n5Definition(), result, actorID))
	}
}
