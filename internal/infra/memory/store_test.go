package memory

import (
	"context"
	"testing"
	"time"

	"levelup-gatekeeper/internal/domain"
)

func TestStoreLastAttempt(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	if _, ok, _ := store.LastAttempt(ctx, "g1", "u1", "N5"); ok {
		t.Fatalf("expected no attempt")
	}

	for _, at := range []time.Time{base, base.Add(48 * time.Hour), base.Add(24 * time.Hour)} {
		if err := store.RecordAttempt(ctx, domain.AttemptRecord{GuildID: "g1", UserID: "u1", QuizName: "N5", CreatedAt: at}); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}
	_ = store.RecordAttempt(ctx, domain.AttemptRecord{GuildID: "g1", UserID: "u1", QuizName: "N4", CreatedAt: base.Add(96 * time.Hour)})

	last, ok, err := store.LastAttempt(ctx, "g1", "u1", "N5")
	if err != nil || !ok {
		t.Fatalf("expected attempt, got ok=%v err=%v", ok, err)
	}
	if !last.Equal(base.Add(48 * time.Hour)) {
		t.Fatalf("expected latest attempt, got %v", last)
	}
	if got := len(store.Attempts()); got != 4 {
		t.Fatalf("expected 4 ledger rows, got %d", got)
	}
}

func TestStoreAddPassedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	added, err := store.AddPassed(ctx, "g1", "u1", "N5")
	if err != nil || !added {
		t.Fatalf("expected first insert, got added=%v err=%v", added, err)
	}
	added, _ = store.AddPassed(ctx, "g1", "u1", "N5")
	if added {
		t.Fatalf("expected duplicate insert to be a no-op")
	}
	_, _ = store.AddPassed(ctx, "g1", "u1", "N4")
	_, _ = store.AddPassed(ctx, "g2", "u1", "N3")

	passed, _ := store.Passed(ctx, "g1", "u1")
	if len(passed) != 2 || passed[0] != "N4" || passed[1] != "N5" {
		t.Fatalf("unexpected passed set %v", passed)
	}
}
