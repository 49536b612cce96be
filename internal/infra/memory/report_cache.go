package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"levelup-gatekeeper/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ReportFetcher loads a quiz report from the upstream service.
type ReportFetcher interface {
	FetchReport(ctx context.Context, reportID string) (domain.QuizResult, error)
}

// ReportCache keeps fetched reports for a TTL; finished reports never change.
type ReportCache struct {
	fetcher ReportFetcher
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu    sync.Mutex
	cache map[string]cachedReport
}

type cachedReport struct {
	report    domain.QuizResult
	expiresAt time.Time
}

func NewReportCache(fetcher ReportFetcher, ttl time.Duration) *ReportCache {
	return &ReportCache{
		fetcher: fetcher,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedReport),
	}
}

func (c *ReportCache) FetchReport(ctx context.Context, reportID string) (domain.QuizResult, error) {
	if report, ok := c.lookup(reportID); ok {
		return report, nil
	}

	result, err, _ := c.sf.Do(reportID, func() (interface{}, error) {
		if report, ok := c.lookup(reportID); ok {
			return report, nil
		}
		report, err := c.fetcher.FetchReport(ctx, reportID)
		if err != nil {
			return domain.QuizResult{}, err
		}
		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[reportID] = cachedReport{report: report, expiresAt: expiresAt}
		c.mu.Unlock()
		return report, nil
	})
	if err != nil {
		return domain.QuizResult{}, err
	}
	return result.(domain.QuizResult), nil
}

func (c *ReportCache) lookup(reportID string) (domain.QuizResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[reportID]
	if !ok {
		return domain.QuizResult{}, false
	}
	if !entry.expiresAt.After(c.clock()) {
		delete(c.cache, reportID)
		return domain.QuizResult{}, false
	}
	return entry.report, true
}

func (c *ReportCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticReports serves reports from a map (useful for tests/demos).
type StaticReports struct {
	reports map[string]domain.QuizResult
}

func NewStaticReports(reports map[string]domain.QuizResult) *StaticReports {
	return &StaticReports{reports: reports}
}

func (s *StaticReports) FetchReport(_ context.Context, reportID string) (domain.QuizResult, error) {
	if report, ok := s.reports[reportID]; ok {
		return report, nil
	}
	return domain.QuizResult{}, domain.ErrReportFetch
}
