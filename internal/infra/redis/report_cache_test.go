package redis

import (
	"context"
	"testing"
	"time"

	"levelup-gatekeeper/internal/domain"
	"levelup-gatekeeper/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestReportCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	fetcher := &countingFetcher{
		ReportFetcher: memory.NewStaticReports(map[string]domain.QuizResult{
			"abc123": sampleReport(),
		}),
	}
	cache := NewReportCache(client, fetcher, time.Minute)

	report, err := cache.FetchReport(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("fetch report: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected fetcher called once, got %d", fetcher.calls)
	}
	if !mr.Exists("kotoba:report:abc123") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("kotoba:report:abc123"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	// Second call should hit cache, fetcher not incremented.
	cached, err := cache.FetchReport(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("fetch cached report: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected cache hit, fetcher calls=%d", fetcher.calls)
	}
	if cached.Score() != report.Score() || len(cached.Decks) != 1 || *cached.Decks[0].StartIndex != 2 {
		t.Fatalf("cached report differs: %+v", cached)
	}
}

func TestReportCacheFallsBackWhenExpired(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	fetcher := &countingFetcher{
		ReportFetcher: memory.NewStaticReports(map[string]domain.QuizResult{"abc123": sampleReport()}),
	}
	cache := NewReportCache(newClient(mr), fetcher, time.Minute)

	_, _ = cache.FetchReport(context.Background(), "abc123")
	mr.FastForward(2 * time.Minute)
	_, _ = cache.FetchReport(context.Background(), "abc123")

	if fetcher.calls != 2 {
		t.Fatalf("expected refetch after expiry, got %d", fetcher.calls)
	}
}

type countingFetcher struct {
	memory.ReportFetcher
	calls int
}

func (f *countingFetcher) FetchReport(ctx context.Context, reportID string) (domain.QuizResult, error) {
	f.calls++
	return f.ReportFetcher.FetchReport(ctx, reportID)
}

func sampleReport() domain.QuizResult {
	start, end := 2, 10
	return domain.QuizResult{
		ID:            "abc123",
		Participants:  []domain.Participant{{UserID: "u1"}},
		Settings:      domain.QuizSettings{Shuffle: true, ScoreLimit: 20, AnswerTimeLimitMs: 16000},
		Decks:         []domain.Deck{{ShortName: "jlpt5", StartIndex: &start, EndIndex: &end}},
		QuestionCount: 20,
		Scores:        []domain.Score{{UserID: "u1", Score: 19}},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
