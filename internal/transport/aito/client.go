// Package aito is the HTTP client for the hosted predictive database.
package aito

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AitoDotAI/aito-demo/internal/metrics"
)

// Config holds predictive database client settings.
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration // per request, default 30s
	UploadTimeout time.Duration // file uploads, default 300s
	MaxRetries    int           // retries after the first attempt
	BaseDelay     time.Duration // backoff base, default 1s
	RateLimit     int           // calls per RateWindow, <= 0 disables limiting
	RateWindow    time.Duration // default 60s
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client talks to the predictive database over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	upload     *http.Client
	maxRetries int
	baseDelay  time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("aito base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 300 * time.Second
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	httpClient, uploadClient := cfg.HTTPClient, cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
		uploadClient = &http.Client{Timeout: cfg.UploadTimeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateWindow/time.Duration(cfg.RateLimit)), cfg.RateLimit)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		http:       httpClient,
		upload:     uploadClient,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		limiter:    limiter,
		logger:     cfg.Logger,
	}, nil
}

// Post sends a query body to a query endpoint and returns the raw response.
// body may be pre-encoded JSON ([]byte or json.RawMessage) or any marshalable value.
func (c *Client) Post(ctx context.Context, ep Endpoint, body any) ([]byte, error) {
	payload, err := EncodeBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, c.http, string(ep), func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/v1/"+string(ep), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// Health reports whether the database answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "health")
	return err
}

// Usage returns the account usage statistics as raw JSON.
func (c *Client) Usage(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "usage")
}

// PutSchema replaces the database schema.
func (c *Client) PutSchema(ctx context.Context, schema json.RawMessage) error {
	_, err := c.do(ctx, c.http, "schema", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut,
			c.baseURL+"/api/v1/schema", bytes.NewReader(schema))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	return err
}

// UploadBatch inserts rows into a table in one JSON array request.
func (c *Client) UploadBatch(ctx context.Context, table string, rows json.RawMessage) error {
	_, err := c.do(ctx, c.upload, "batch", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/v1/data/"+table+"/batch", bytes.NewReader(rows))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	return err
}

// UploadFile inserts rows from a file through a multipart upload.
func (c *Client) UploadFile(ctx context.Context, table, filename string, content []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}
	payload, contentType := buf.Bytes(), mw.FormDataContentType()

	_, err = c.do(ctx, c.upload, "file", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/v1/data/"+table+"/file", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	return err
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, c.http, path, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/"+path, http.NoBody)
	})
}

// do runs a request with rate limiting and retries. label names the call in metrics.
func (c *Client) do(
	ctx context.Context,
	hc *http.Client,
	label string,
	build func(context.Context) (*http.Request, error),
) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, apiErr := c.once(ctx, hc, label, build)
		if apiErr == nil {
			return body, nil
		}

		metrics.AitoErrorsTotal.WithLabelValues(label, string(apiErr.Kind)).Inc()

		if ctx.Err() != nil {
			apiErr.Retryable = false
			return nil, apiErr
		}
		if !apiErr.Retryable || attempt >= c.maxRetries {
			return nil, apiErr
		}

		delay := c.backoff(attempt, apiErr.RetryAfter)
		c.logger.Warn("aito call failed, retrying",
			zap.String("endpoint", label),
			zap.String("kind", string(apiErr.Kind)),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.maxRetries+1),
			zap.Duration("delay", delay),
		)
		metrics.AitoRetriesTotal.WithLabelValues(label).Inc()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			apiErr.Retryable = false
			return nil, apiErr
		case <-timer.C:
		}
	}
}

func (c *Client) once(
	ctx context.Context,
	hc *http.Client,
	label string,
	build func(context.Context) (*http.Request, error),
) ([]byte, *APIError) {
	req, err := build(ctx)
	if err != nil {
		return nil, &APIError{Kind: KindInvalidRequest, Message: "failed to build request", Err: err}
	}
	req.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	resp, err := hc.Do(req)
	metrics.AitoRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AitoRequestsTotal.WithLabelValues(label, "error").Inc()
		if isTimeout(err) {
			return nil, timeoutError(err)
		}
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	metrics.AitoRequestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Classify(resp.StatusCode, resp.Header, body)
	}
	return body, nil
}

// backoff is base*2^attempt plus jitter up to base, raised to retryAfter when larger.
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	d := c.baseDelay<<attempt + rand.N(c.baseDelay)
	if retryAfter > d {
		return retryAfter
	}
	return d
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// EncodeBody returns the JSON for a query body. json.RawMessage and []byte are
// taken as already encoded.
func EncodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal query: %w", err)
		}
		return data, nil
	}
}
