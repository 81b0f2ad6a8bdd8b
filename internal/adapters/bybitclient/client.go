package bybitclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"klineFetcher/internal/domain"
	"klineFetcher/internal/ports"

	"github.com/cenkalti/backoff/v4"
)

const (
	klinePath = "/v5/market/kline"

	// One API page: Bybit caps the kline endpoint at 1000 candles per request.
	pageLimit = 1000

	requestTimeout = 35 * time.Second
	socketTimeout  = 30 * time.Second

	defaultMaxRetries    = 5
	defaultRetryInterval = 2 * time.Second

	// Rate-limit headers returned with every successful response.
	headerLimitStatus = "X-Bapi-Limit-Status"          // remaining request quota
	headerLimitReset  = "X-Bapi-Limit-Reset-Timestamp" // quota reset time, epoch seconds

	lowQuotaThreshold = 3
	minQuotaWait      = time.Second
)

// errTooManyRequests marks a 429 response inside the retry loop.
var errTooManyRequests = errors.New("server returned too many requests status")

// Client implements the ports.KlineFetcher interface against the Bybit v5
// market/kline REST endpoint.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	logger        ports.Logger
	maxRetries    uint64
	retryInterval time.Duration
	sleep         func(time.Duration)
	now           func() time.Time
}

// Config holds configuration specific to the Bybit client adapter.
type Config struct {
	BaseURL       string
	Logger        ports.Logger
	HTTPClient    *http.Client        // Optional transport override
	MaxRetries    uint64              // Retries on 429 responses (default 5)
	RetryInterval time.Duration       // Linear backoff step (default 2s)
	Sleep         func(time.Duration) // Overridable for tests
	Now           func() time.Time    // Overridable for tests
}

// New creates a new Bybit client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Bybit client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for Bybit client")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: socketTimeout}).DialContext,
				ResponseHeaderTimeout: socketTimeout,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		logger:        cfg.Logger,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		sleep:         sleep,
		now:           now,
	}, nil
}

// klineResponse is the Bybit v5 response envelope for the kline endpoint.
type klineResponse struct {
	RetCode int         `json:"retCode"`
	RetMsg  string      `json:"retMsg"`
	Result  klineResult `json:"result"`
}

type klineResult struct {
	Category string     `json:"category"`
	Symbol   string     `json:"symbol"`
	List     [][]string `json:"list"`
}

// linearBackOff grows the delay by a fixed step with every attempt.
type linearBackOff struct {
	step    time.Duration
	attempt int64
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// GetKlines retrieves the candles Bybit reports for the inclusive range
// [start, end] in epoch milliseconds, at most one API page worth.
func (c *Client) GetKlines(ctx context.Context, symbol, category, interval string, start, end int64) ([]*domain.Candle, error) {
	op := "GetKlines"

	requestURL, err := c.buildKlineURL(symbol, category, interval, start, end)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	body, header, err := c.doWithRetry(ctx, requestURL)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	var envelope klineResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("decoding kline response: %w: %w", ports.ErrMalformedResponse, err), op)
	}
	if envelope.RetCode != 0 {
		apiErr := fmt.Errorf("%w: retCode %d: %s", ports.ErrAPIError, envelope.RetCode, envelope.RetMsg)
		return nil, c.handleError(ctx, apiErr, op)
	}

	candles := make([]*domain.Candle, 0, len(envelope.Result.List))
	for _, row := range envelope.Result.List {
		candle, err := parseCandle(row)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("%w: %w", ports.ErrMalformedResponse, err), op)
		}
		candles = append(candles, candle)
	}

	c.waitForQuota(ctx, header)

	return candles, nil
}

func (c *Client) buildKlineURL(symbol, category, interval string, start, end int64) (string, error) {
	u, err := url.Parse(c.baseURL + klinePath)
	if err != nil {
		return "", fmt.Errorf("building kline URL: %w", err)
	}
	q := url.Values{}
	q.Set("category", category)
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("start", strconv.FormatInt(start, 10))
	q.Set("end", strconv.FormatInt(end, 10))
	q.Set("limit", strconv.Itoa(pageLimit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// doWithRetry issues the GET request, retrying only on 429 responses with a
// linearly growing delay. Any other failure is permanent for this chunk.
func (c *Client) doWithRetry(ctx context.Context, requestURL string) ([]byte, http.Header, error) {
	var (
		body    []byte
		header  http.Header
		attempt int
	)

	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("building request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("reading response body: %w", err))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Warn(ctx, "Rate limited by server, backing off", map[string]interface{}{"attempt": attempt})
			return errTooManyRequests
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b)))
		}

		body = b
		header = resp.Header
		return nil
	}

	retryPolicy := backoff.WithMaxRetries(&linearBackOff{step: c.retryInterval}, c.maxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(retryPolicy, ctx)); err != nil {
		return nil, nil, err
	}
	return body, header, nil
}

// waitForQuota inspects the rate-limit headers of a successful response and
// sleeps until the quota resets when the remaining budget is nearly exhausted.
// Missing or unparseable headers mean the quota is unknown; no wait is applied.
func (c *Client) waitForQuota(ctx context.Context, header http.Header) {
	remainingStr := header.Get(headerLimitStatus)
	resetStr := header.Get(headerLimitReset)
	if remainingStr == "" || resetStr == "" {
		c.logger.Debug(ctx, "Rate-limit headers absent, skipping quota wait")
		return
	}

	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		c.logger.Debug(ctx, "Unparseable rate-limit status header", map[string]interface{}{"value": remainingStr})
		return
	}
	resetSec, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		c.logger.Debug(ctx, "Unparseable rate-limit reset header", map[string]interface{}{"value": resetStr})
		return
	}

	if remaining >= lowQuotaThreshold {
		return
	}

	wait := time.Duration(resetSec*1000-c.now().UnixMilli()) * time.Millisecond
	if wait <= 0 {
		return
	}
	if wait < minQuotaWait {
		wait = minQuotaWait
	}

	c.logger.Info(ctx, "Rate-limit quota nearly exhausted, waiting for reset", map[string]interface{}{
		"remaining": remaining,
		"wait":      wait.String(),
	})
	c.sleep(wait)
}

// handleError translates transport and payload errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var finalErr error
	switch {
	case errors.Is(err, ports.ErrAPIError), errors.Is(err, ports.ErrMalformedResponse):
		// Already classified at the call site.
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	case errors.Is(err, errTooManyRequests):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrRateLimited, err)
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case isConnectionError(err):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false // timeouts are classified separately by the caller chain
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset by peer")
}

// parseCandle maps one raw Bybit kline tuple to a typed Candle. The tuple is
// positional: [start, open, high, low, close, volume, ...], all strings.
func parseCandle(row []string) (*domain.Candle, error) {
	if len(row) < 6 {
		return nil, fmt.Errorf("kline tuple has %d fields, want at least 6", len(row))
	}

	start, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing start time '%s': %w", row[0], err)
	}
	open, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", row[1], err)
	}
	high, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", row[2], err)
	}
	low, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", row[3], err)
	}
	cls, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", row[4], err)
	}
	vol, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", row[5], err)
	}

	return &domain.Candle{
		StartTime: start,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}
