package garmin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/fitness-proxy/garmin-proxy/internal/metrics"
	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
)

const (
	DefaultBaseURL   = "https://connectapi.garmin.com"
	DefaultUserAgent = "GCM-iOS-5.7.2.1"

	breakerName = "garmin-connect"
)

// Config holds the client tuning knobs.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	MaxRetries uint
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	session    *Session
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	maxRetries uint
	now        func() time.Time

	mu          sync.Mutex
	displayName string
	lookups     singleflight.Group
}

func NewClient(cfg Config, session *Session) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("failed to initialize garmin client: %w", err)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(session.Token),
			Base:   http.DefaultTransport,
		},
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Only outages open the circuit; a rejected token or a bad request says
		// nothing about the vendor's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.S().Named("garmin_client").Warnw("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			metrics.VendorBreakerState.Set(float64(to))
		},
	})

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		session:    session,
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    breaker,
		maxRetries: cfg.MaxRetries,
		now:        time.Now,
	}, nil
}

// SocialProfile returns the profile of the authenticated user.
// GET /userprofile-service/socialProfile
func (c *Client) SocialProfile(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "social_profile", "/userprofile-service/socialProfile", nil)
}

// UserSettings returns the user settings, including biometric data.
// GET /userprofile-service/userprofile/user-settings
func (c *Client) UserSettings(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "user_settings", "/userprofile-service/userprofile/user-settings", nil)
}

// HeartRates returns the heart rate data of a day.
// GET /wellness-service/wellness/dailyHeartRate/{displayName}?date=
func (c *Client) HeartRates(ctx context.Context, day time.Time) (json.RawMessage, error) {
	name, err := c.DisplayName(ctx)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "heart_rates", "/wellness-service/wellness/dailyHeartRate/"+url.PathEscape(name), url.Values{"date": {formatDate(day)}})
}

// HeartRateZones returns the heart rate zones per sport.
// GET /biometric-service/heartRateZones
func (c *Client) HeartRateZones(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "heart_rate_zones", "/biometric-service/heartRateZones", nil)
}

// MaxMetrics returns VO2max estimates of a day.
// GET /metrics-service/metrics/maxmet/daily/{date}/{date}
func (c *Client) MaxMetrics(ctx context.Context, day time.Time) (json.RawMessage, error) {
	d := formatDate(day)
	return c.get(ctx, "max_metrics", "/metrics-service/metrics/maxmet/daily/"+d+"/"+d, nil)
}

// CyclingFTP returns the latest functional threshold power.
// GET /biometric-service/biometric/latestFunctionalThresholdPower/CYCLING
func (c *Client) CyclingFTP(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "cycling_ftp", "/biometric-service/biometric/latestFunctionalThresholdPower/CYCLING", nil)
}

// BodyComposition returns weight measurements between start and end.
// GET /weight-service/weight/dateRange?startDate=&endDate=
func (c *Client) BodyComposition(ctx context.Context, start, end time.Time) (json.RawMessage, error) {
	return c.get(ctx, "body_composition", "/weight-service/weight/dateRange", url.Values{
		"startDate": {formatDate(start)},
		"endDate":   {formatDate(end)},
	})
}

// Activities returns one page of activities between start and end.
// GET /activitylist-service/activities/search/activities
func (c *Client) Activities(ctx context.Context, start, end time.Time, offset, limit int) (json.RawMessage, error) {
	return c.get(ctx, "activities", "/activitylist-service/activities/search/activities", url.Values{
		"startDate": {formatDate(start)},
		"endDate":   {formatDate(end)},
		"start":     {fmt.Sprint(offset)},
		"limit":     {fmt.Sprint(limit)},
	})
}

// ActivitySplits returns the step (split) series of an activity.
// GET /activity-service/activity/{id}/splits
func (c *Client) ActivitySplits(ctx context.Context, activityID int64) (json.RawMessage, error) {
	return c.get(ctx, "activity_splits", fmt.Sprintf("/activity-service/activity/%d/splits", activityID), nil)
}

// UserSummary returns the daily summary.
// GET /usersummary-service/usersummary/daily/{displayName}?calendarDate=
func (c *Client) UserSummary(ctx context.Context, day time.Time) (json.RawMessage, error) {
	name, err := c.DisplayName(ctx)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "user_summary", "/usersummary-service/usersummary/daily/"+url.PathEscape(name), url.Values{"calendarDate": {formatDate(day)}})
}

// HRV returns the heart rate variability of a day.
// GET /hrv-service/hrv/{date}
func (c *Client) HRV(ctx context.Context, day time.Time) (json.RawMessage, error) {
	return c.get(ctx, "hrv", "/hrv-service/hrv/"+formatDate(day), nil)
}

// Sleep returns the sleep data of a day.
// GET /wellness-service/wellness/dailySleepData/{displayName}?date=&nonSleepBufferMinutes=60
func (c *Client) Sleep(ctx context.Context, day time.Time) (json.RawMessage, error) {
	name, err := c.DisplayName(ctx)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, "sleep", "/wellness-service/wellness/dailySleepData/"+url.PathEscape(name), url.Values{
		"date":                  {formatDate(day)},
		"nonSleepBufferMinutes": {"60"},
	})
}

// Stress returns the stress data of a day.
// GET /wellness-service/wellness/dailyStress/{date}
func (c *Client) Stress(ctx context.Context, day time.Time) (json.RawMessage, error) {
	return c.get(ctx, "stress", "/wellness-service/wellness/dailyStress/"+formatDate(day), nil)
}

// DisplayName returns the user's display name, fetched once. Concurrent callers
// on a cold cache share a single profile request.
func (c *Client) DisplayName(ctx context.Context) (string, error) {
	if name := c.cachedDisplayName(); name != "" {
		return name, nil
	}

	v, err, _ := c.lookups.Do("displayName", func() (any, error) {
		if name := c.cachedDisplayName(); name != "" {
			return name, nil
		}

		profile, err := c.SocialProfile(ctx)
		if err != nil {
			return "", err
		}
		name := gjson.GetBytes(profile, "displayName").String()
		if name == "" {
			return "", fmt.Errorf("social profile has no display name")
		}

		c.mu.Lock()
		c.displayName = name
		c.mu.Unlock()
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) cachedDisplayName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayName
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (json.RawMessage, error) {
	if c.session.Expired(c.now()) {
		return nil, srvErrors.NewVendorUnauthorizedError(fmt.Sprintf("oauth2 token expired at %s", c.session.Token.Expiry.UTC().Format(time.RFC3339)))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	started := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.retry(ctx, endpoint, path, query)
	})
	metrics.ObserveVendorRequest(endpoint, outcome(err), time.Since(started))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			zap.S().Named("garmin_client").Warnw("request rejected by circuit breaker", "endpoint", endpoint)
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) retry(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 250 * time.Millisecond
	expBackoff.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, func() ([]byte, error) {
		body, err := c.do(ctx, endpoint, path, query)
		if err != nil && !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, d time.Duration) {
			zap.S().Named("garmin_client").Debugw("retrying vendor request", "endpoint", endpoint, "error", err, "in", d)
		}),
	)
}

func (c *Client) do(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return json.RawMessage("null"), nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return io.ReadAll(resp.Body)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, srvErrors.NewVendorUnauthorizedError(resp.Status)
	default:
		return nil, srvErrors.NewVendorError(endpoint, resp.StatusCode, resp.Status)
	}
}

// isTransient tells whether err is worth retrying: network failures, 429 and 5xx.
func isTransient(err error) bool {
	if srvErrors.IsVendorUnauthorizedError(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var vErr *srvErrors.VendorError
	if errors.As(err, &vErr) {
		return vErr.StatusCode == http.StatusTooManyRequests || vErr.StatusCode >= 500
	}
	return true
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	case srvErrors.IsVendorUnauthorizedError(err):
		return "unauthorized"
	default:
		return "failure"
	}
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
