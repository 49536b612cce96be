package kotoba

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"levelup-gatekeeper/internal/domain"
)

// DefaultBaseURL is the public game report endpoint.
const DefaultBaseURL = "https://kotobaweb.com/api/game_reports/"

// Throttle serializes calls to the report API.
type Throttle interface {
	// Acquire blocks until the caller may issue a request; release must be called afterwards.
	Acquire(ctx context.Context) (release func(), err error)
}

// Client fetches game reports. Failures are never retried.
type Client struct {
	baseURL  string
	http     *http.Client
	throttle Throttle
}

func NewClient(baseURL string, httpClient *http.Client, throttle Throttle) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if throttle == nil {
		throttle = NewPacer(0)
	}
	return &Client{baseURL: baseURL, http: httpClient, throttle: throttle}
}

func (c *Client) FetchReport(ctx context.Context, reportID string) (domain.QuizResult, error) {
	release, err := c.throttle.Acquire(ctx)
	if err != nil {
		return domain.QuizResult{}, err
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+url.PathEscape(reportID), nil)
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("%w: %v", domain.ErrReportFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.QuizResult{}, fmt.Errorf("%w: report %s: status %d", domain.ErrReportFetch, reportID, resp.StatusCode)
	}

	var report gameReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return domain.QuizResult{}, fmt.Errorf("%w: decode report %s: %v", domain.ErrReportFetch, reportID, err)
	}
	return report.toDomain(reportID), nil
}
