package evalhost

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/leaderboard-sync/internal/domain/leaderboard"
	"github.com/riskibarqy/leaderboard-sync/internal/platform/logging"
	"github.com/riskibarqy/leaderboard-sync/internal/platform/resilience"
	"github.com/riskibarqy/leaderboard-sync/internal/usecase"
)

const (
	defaultBaseURL      = "https://eval.ai/api"
	defaultTimeout      = 20 * time.Second
	defaultPageSize     = 100
	defaultMaxWorkers   = 4
	defaultRetryBackoff = time.Second
	maxResponseBytes    = 16 << 20
)

var errTransient = crerr.New("evalhost transient failure")

type ClientConfig struct {
	// HTTPClient is mainly for tests; a client is built from Timeout when nil.
	HTTPClient     *fasthttp.Client                `validate:"-"`
	BaseURL        string                          `validate:"required,url"`
	Token          string                          `validate:"omitempty,printascii"`
	Timeout        time.Duration                   `validate:"gt=0"`
	MaxRetries     int                             `validate:"gte=0,lte=10"`
	RetryBackoff   time.Duration                   `validate:"gte=0"`
	PageSize       int                             `validate:"gte=1,lte=1000"`
	MaxWorkers     int                             `validate:"gte=1,lte=64"`
	Logger         *logging.Logger                 `validate:"-"`
	CircuitBreaker resilience.CircuitBreakerConfig `validate:"-"`
}

// Client reads leaderboards from the evaluation host REST API.
type Client struct {
	httpClient   *fasthttp.Client
	baseURL      string
	token        string
	timeout      time.Duration
	maxRetries   int
	retryBackoff time.Duration
	pageSize     int
	maxWorkers   int
	logger       *logging.Logger
	breaker      *resilience.Breaker
	flight       singleflight.Group
}

var _ leaderboard.Source = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: evalhost client config: %v", usecase.ErrInvalidInput, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("evalhost")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "leaderboard-sync",
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxResponseBodySize: maxResponseBytes,
		}
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      cfg.BaseURL,
		token:        cfg.Token,
		timeout:      cfg.Timeout,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		pageSize:     cfg.PageSize,
		maxWorkers:   cfg.MaxWorkers,
		logger:       logger,
		breaker:      resilience.NewBreaker("evalhost", cfg.CircuitBreaker, isCircuitFailure, logger),
	}, nil
}

func (c *Client) FetchLeaderboard(ctx context.Context, phaseSplitID string) (leaderboard.Page, error) {
	return c.fetchAll(ctx, phaseSplitID, false)
}

// FetchLeaderboardComplete includes private and baseline entries. It needs a host token.
func (c *Client) FetchLeaderboardComplete(ctx context.Context, phaseSplitID string) (leaderboard.Page, error) {
	return c.fetchAll(ctx, phaseSplitID, true)
}

// CountLeaderboard reads only the total entry count with a one-row page.
func (c *Client) CountLeaderboard(ctx context.Context, selection leaderboard.Selection) (int, error) {
	selection = selection.Normalize()
	if selection.IsZero() {
		return 0, fmt.Errorf("%w: phase split id is required", usecase.ErrInvalidInput)
	}

	envelope, err := c.getPage(ctx, selection.PhaseSplitID, selection.Complete, 1, 1)
	if err != nil {
		return 0, crerr.Wrapf(err, "count leaderboard phase_split_id=%s", selection.PhaseSplitID)
	}
	return envelope.Count, nil
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) fetchAll(ctx context.Context, phaseSplitID string, complete bool) (leaderboard.Page, error) {
	phaseSplitID = strings.TrimSpace(phaseSplitID)
	if phaseSplitID == "" {
		return leaderboard.Page{}, fmt.Errorf("%w: phase split id is required", usecase.ErrInvalidInput)
	}

	first, err := c.getPage(ctx, phaseSplitID, complete, 1, c.pageSize)
	if err != nil {
		return leaderboard.Page{}, crerr.Wrapf(err, "fetch leaderboard phase_split_id=%s", phaseSplitID)
	}
	page := first.toPage()
	if first.Next == nil || len(first.Results) == 0 {
		return page, nil
	}

	// The host may cap page_size below what was asked for.
	pageSize := len(first.Results)
	total := (first.Count + pageSize - 1) / pageSize
	if total <= 1 {
		page.Next = ""
		return page, nil
	}

	rest, err := c.fetchRemaining(ctx, phaseSplitID, complete, pageSize, total)
	if err != nil {
		return leaderboard.Page{}, crerr.Wrapf(err, "fetch leaderboard phase_split_id=%s", phaseSplitID)
	}
	for _, results := range rest {
		page.Results = append(page.Results, results...)
	}
	page.Next = ""

	c.logger.DebugContext(ctx, "leaderboard fetched", "phase_split_id", phaseSplitID, "complete", complete, "pages", total, "rows", len(page.Results))
	return page, nil
}

// fetchRemaining loads pages 2..total concurrently and returns them in page order.
func (c *Client) fetchRemaining(ctx context.Context, phaseSplitID string, complete bool, pageSize, total int) ([][]leaderboard.RawEntry, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(min(c.maxWorkers, total-1))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([][]leaderboard.RawEntry, total-1)
	var (
		workers  sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for pageNumber := 2; pageNumber <= total; pageNumber++ {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			envelope, err := c.getPage(ctx, phaseSplitID, complete, pageNumber, pageSize)
			if err != nil {
				errOnce.Do(func() {
					firstErr = crerr.Wrapf(err, "page %d", pageNumber)
					cancel()
				})
				return
			}
			results[pageNumber-2] = envelope.toPage().Results
		}); err != nil {
			workers.Done()
			cancel()
			workers.Wait()
			return nil, fmt.Errorf("submit page fetch to worker pool: %w", err)
		}
	}
	workers.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (c *Client) getPage(ctx context.Context, phaseSplitID string, complete bool, page, pageSize int) (leaderboardEnvelope, error) {
	requestURI := c.pageURI(phaseSplitID, complete, page, pageSize)
	raw, err := c.doJSON(ctx, requestURI)
	if err != nil {
		return leaderboardEnvelope{}, err
	}

	var envelope leaderboardEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return leaderboardEnvelope{}, fmt.Errorf("%w: decode leaderboard payload: %v body=%s", usecase.ErrMalformedData, err, abbreviateBody(raw))
	}
	if envelope.Count < 0 {
		return leaderboardEnvelope{}, fmt.Errorf("%w: negative leaderboard count %d", usecase.ErrMalformedData, envelope.Count)
	}
	return envelope, nil
}

func (c *Client) pageURI(phaseSplitID string, complete bool, page, pageSize int) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString("/jobs/challenge_phase_split/")
	_, _ = buf.WriteString(url.PathEscape(phaseSplitID))
	_, _ = buf.WriteString("/leaderboard/")
	if complete {
		_, _ = buf.WriteString("all/")
	}
	_, _ = buf.WriteString("?page=")
	buf.B = strconv.AppendInt(buf.B, int64(page), 10)
	_, _ = buf.WriteString("&page_size=")
	buf.B = strconv.AppendInt(buf.B, int64(pageSize), 10)

	return buf.String()
}

// doJSON collapses concurrent reads of the same URI into one request. The shared
// request is detached from any single caller's cancellation and bounded by
// requestBudget instead; each caller still stops waiting when its own ctx ends.
func (c *Client) doJSON(ctx context.Context, requestURI string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := c.flight.DoChan(requestURI, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.requestBudget())
		defer cancel()
		return resilience.Execute(c.breaker, func() ([]byte, error) {
			return c.executeRequest(shared, requestURI)
		})
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if res.Err != nil {
		if crerr.Is(res.Err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "evalhost circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: evaluation host is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		return nil, res.Err
	}

	raw, ok := res.Val.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", res.Val)
	}
	return raw, nil
}

// requestBudget covers every attempt executeRequest may make, backoffs included.
func (c *Client) requestBudget() time.Duration {
	retries := time.Duration(c.maxRetries)
	return c.timeout*(retries+1) + c.retryBackoff*retries*(retries+1)/2
}

func (c *Client) executeRequest(ctx context.Context, requestURI string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, status, err := c.do(ctx, requestURI)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = fmt.Errorf("%w: send request: %v", errTransient, err)
		case status >= 200 && status < 300:
			return body, nil
		case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
			return nil, fmt.Errorf("%w: evaluation host status=%d body=%s", usecase.ErrUnauthorized, status, abbreviateBody(body))
		case status == fasthttp.StatusNotFound:
			return nil, fmt.Errorf("%w: evaluation host status=%d", usecase.ErrNotFound, status)
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: evaluation host status=%d body=%s", errTransient, status, abbreviateBody(body))
		default:
			return nil, fmt.Errorf("%w: evaluation host status=%d body=%s", usecase.ErrTransport, status, abbreviateBody(body))
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * c.retryBackoff
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("evaluation host request failed")
	}
	c.logger.WarnContext(ctx, "evalhost request failed", "uri", requestURI, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, fmt.Errorf("%w: %w", usecase.ErrTransport, lastErr)
}

// do runs one request. fasthttp has no context support, so the context deadline
// bounds the request and cancellation is observed once it returns.
func (c *Client) do(ctx context.Context, requestURI string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(requestURI)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

// isCircuitFailure walks joined causes as well; final errors wrap both ErrTransport and errTransient.
func isCircuitFailure(err error) bool {
	return errors.Is(err, errTransient)
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
