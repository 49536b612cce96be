package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"levelup-gatekeeper/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ReportFetcher loads a quiz report from the upstream service.
type ReportFetcher interface {
	FetchReport(ctx context.Context, reportID string) (domain.QuizResult, error)
}

// ReportCache stores fetched quiz reports in Redis and falls back to the fetcher on a miss.
// Reports are stored as JSON: SET kotoba:report:{reportID} {report} EX ttl
type ReportCache struct {
	client  *redis.Client
	fetcher ReportFetcher
	ttl     time.Duration
	sf      singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewReportCache(client *redis.Client, fetcher ReportFetcher, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client:  client,
		fetcher: fetcher,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ReportCache) FetchReport(ctx context.Context, reportID string) (domain.QuizResult, error) {
	if report, ok := c.cached(ctx, reportID); ok {
		return report, nil
	}

	result, err, _ := c.sf.Do(reportID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if report, ok := c.cached(ctx, reportID); ok {
			return report, nil
		}

		report, err := c.fetcher.FetchReport(ctx, reportID)
		if err != nil {
			return domain.QuizResult{}, err
		}

		data, err := json.Marshal(report)
		if err == nil {
			// best-effort; a failed write only costs a refetch
			_ = c.client.Set(ctx, c.key(reportID), data, c.ttlWithJitter()).Err()
		}
		return report, nil
	})
	if err != nil {
		return domain.QuizResult{}, err
	}
	return result.(domain.QuizResult), nil
}

func (c *ReportCache) cached(ctx context.Context, reportID string) (domain.QuizResult, bool) {
	raw, err := c.client.Get(ctx, c.key(reportID)).Bytes()
	if err != nil {
		// redis.Nil on a miss; connection errors fall through to the fetcher as well
		return domain.QuizResult{}, false
	}
	var report domain.QuizResult
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.QuizResult{}, false
	}
	return report, true
}

func (c *ReportCache) key(reportID string) string {
	return "kotoba:report:" + reportID
}

func (c *ReportCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
