// Package fetch retrieves itch.io pages using a Colly collector with a
// per-domain politeness delay.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// NetworkError reports a request that could not produce a usable page.
// StatusCode is zero when the failure happened below HTTP.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	Timeout       time.Duration
	Delay         time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	// Transport overrides the HTTP transport, primarily for testing.
	Transport http.RoundTripper
}

// Fetcher executes single HTTP GETs through a shared Colly backend so the
// politeness delay applies across all requests.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}

	c := colly.NewCollector(colly.Async(false))
	// Retries revisit the same URL, so the visited check must be off.
	c.AllowURLRevisit = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)

	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport()
	}
	c.WithTransport(transport)

	if cfg.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: cfg.Delay}); err != nil {
			return nil, fmt.Errorf("set politeness delay: %w", err)
		}
	}

	return &Fetcher{cfg: cfg, baseCollector: c}, nil
}

// Fetch executes a GET for rawURL and returns the body of a 2xx response.
// Transient failures are retried up to the configured attempts with
// exponential backoff; everything else surfaces as a NetworkError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.RetryAttempts; attempt++ {
		body, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) || attempt == f.cfg.RetryAttempts {
			return nil, err
		}
		backoff := f.cfg.RetryBackoff
		if backoff <= 0 {
			backoff = time.Second
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
		case <-time.After(backoff << (attempt - 1)):
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	var (
		body   []byte
		status int
	)
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, &body, &status)

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, &NetworkError{URL: rawURL, StatusCode: status, Err: err}
		}
		return body, nil
	}
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, body *[]byte, status *int) {
	hooks.OnResponse(func(r *colly.Response) {
		*status = r.StatusCode
		*body = append([]byte(nil), r.Body...)
	})
	hooks.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			*status = r.StatusCode
		}
	})
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		return false
	}
	switch {
	case netErr.StatusCode == 0:
		return true
	case netErr.StatusCode == http.StatusTooManyRequests:
		return true
	case netErr.StatusCode >= 500:
		return true
	}
	var timeoutErr net.Error
	return errors.As(netErr.Err, &timeoutErr) && timeoutErr.Timeout()
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 15 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}
}
