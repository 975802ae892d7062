package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flarewatch/internal/flaring"
	"flarewatch/internal/observability"
	"flarewatch/internal/source"
	"flarewatch/pkg/errors"
)

const (
	volumesPath    = "stateprod.asp"
	wellIndexPath  = "flatfiles/Well_Index.zip"
	submitButton   = "Get State Volumes"
	maxArchiveSize = 512 << 20
)

// Config holds the settings for talking to the publisher.
type Config struct {
	BaseURL    string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client downloads monthly state volumes and the well index.
type Client struct {
	config  Config
	http    *http.Client
	logger  *observability.Logger
	breaker *errors.CircuitBreaker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithClientLogger sets the logger used for retry notices.
func WithClientLogger(l *observability.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given configuration.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	c := &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  observability.NewNop(),
		breaker: errors.NewCircuitBreaker("publisher", 5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + path
}

func (c *Client) retryConfig(op string) *errors.RetryConfig {
	cfg := errors.DefaultRetryConfig()
	cfg.MaxRetries = c.config.MaxRetries
	cfg.InitialDelay = c.config.RetryDelay
	cfg.Multiplier = 1
	cfg.Jitter = false
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.WarnWithFields("request failed, retrying", map[string]interface{}{
			"operation": op,
			"attempt":   attempt,
			"delay":     delay.String(),
			"error":     err.Error(),
		})
	}
	return cfg
}

// FetchMonth downloads the state volumes table for one month. A nil table
// with a nil error means the publisher has no data for that month.
func (c *Client) FetchMonth(ctx context.Context, m Month) (*flaring.RawTable, error) {
	form := url.Values{
		"VTI-GROUP":   {"0"},
		"SELECTMONTH": {strconv.Itoa(int(m.Month))},
		"SELECTYEAR":  {strconv.Itoa(m.Year)},
		"B1":          {submitButton},
	}

	var table *flaring.RawTable
	err := errors.Retry(ctx, c.retryConfig("month "+m.String()), func(ctx context.Context) error {
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			body, err := c.do(ctx, http.MethodPost, c.endpoint(volumesPath), strings.NewReader(form.Encode()))
			if err != nil {
				return err
			}
			table, err = ParseVolumesTable(bytes.NewReader(body), VolumesTableID, m.String())
			return err
		})
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			_ = appErr.WithContext("month", m.String())
		}
		return nil, err
	}
	return table, nil
}

// FetchWellIndex downloads the well index archive and reads its first member.
func (c *Client) FetchWellIndex(ctx context.Context) (*flaring.RawTable, error) {
	var body []byte
	err := errors.Retry(ctx, c.retryConfig("well index"), func(ctx context.Context) error {
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			var err error
			body, err = c.do(ctx, http.MethodGet, c.endpoint(wellIndexPath), nil)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return readFirstMember(body, "wells")
}

func readFirstMember(body []byte, name string) (*flaring.RawTable, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnexpectedResponse, "well index is not a zip archive")
	}
	if len(zr.File) == 0 {
		return nil, errors.New(errors.ErrCodeUnexpectedResponse, "well index archive is empty")
	}

	f, err := zr.File[0].Open()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnexpectedResponse, "cannot open well index member").
			WithContext("member", zr.File[0].Name)
	}
	defer f.Close()

	return source.ReadCSVFrom(io.LimitReader(f, maxArchiveSize), name)
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.FetchError("cannot build request", target, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, target)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.ErrCodeAuthenticationFailed, "publisher rejected the credentials").
			WithContext("status", resp.StatusCode).
			WithSuggestions("Run 'flarewatch credentials set' to store a valid subscription login")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, errors.New(errors.ErrCodeUpstreamUnavailable, fmt.Sprintf("publisher returned %s", resp.Status)).
			WithContext("status", resp.StatusCode).
			WithContext("url", target).
			AsRecoverable()
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeUnexpectedResponse, fmt.Sprintf("publisher returned %s", resp.Status)).
			WithContext("status", resp.StatusCode).
			WithContext("url", target)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize))
	if err != nil {
		return nil, classifyTransportError(err, target)
	}
	return data, nil
}

func classifyTransportError(err error, target string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrap(err, errors.ErrCodeFetchTimeout, "request to publisher timed out").
			WithContext("url", target).
			AsRecoverable()
	}
	return errors.FetchError("request to publisher failed", target, err).AsRecoverable()
}
