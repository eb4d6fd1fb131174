// Package fetcher performs policy-checked HTTP retrieval for the scanner.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every HTTP request made by the scanner.
const DefaultTimeout = 10 * time.Second

// Config captures the knobs for the HTTP layer.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	Parallelism int
	DomainDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 2
	}
	return c
}

// CollyFetcher fetches pages via a shared Colly collector, cloned per
// request. It carries a mutable User-Agent and performs no retries.
type CollyFetcher struct {
	base   *colly.Collector
	mu     sync.RWMutex
	agent  string
	logger *zap.Logger
}

// New constructs a configured Colly-based fetcher. Robots enforcement is
// disabled at the collector level; the RobotsEnforcer owns that verdict.
func New(cfg Config, logger *zap.Logger) (*CollyFetcher, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	if cfg.DomainDelay > 0 {
		if err := base.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: cfg.Parallelism,
			Delay:       cfg.DomainDelay,
		}); err != nil {
			return nil, fmt.Errorf("set limit rule: %w", err)
		}
	}

	return &CollyFetcher{
		base:   base,
		agent:  cfg.UserAgent,
		logger: logger,
	}, nil
}

// SetUserAgent updates the identity sent on subsequent requests.
func (f *CollyFetcher) SetUserAgent(ua string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agent = ua
}

// UserAgent returns the currently configured identity.
func (f *CollyFetcher) UserAgent() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.agent
}

// Fetch retrieves the page body. A network failure or a non-2xx response
// surfaces as an error; there are no retries.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	collector := f.base.Clone()
	collector.UserAgent = f.UserAgent()

	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode/100 != 2 {
			send(fetchResult{err: fmt.Errorf("unexpected status %d", r.StatusCode)})
			return
		}
		send(fetchResult{body: append([]byte{}, r.Body...)})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode != 0 {
			err = fmt.Errorf("unexpected status %d: %w", r.StatusCode, err)
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", rawURL, err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, res.err)
		}
		return res.body, nil
	default:
		return nil, errors.New("fetch produced no result")
	}
}

type fetchResult struct {
	body []byte
	err  error
}
