package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsEnforcer resolves robots.txt verdicts per host. The policy fails
// open: if robots.txt cannot be fetched or parsed, or the server answers
// anything but 200, crawling is treated as allowed. Parsed files are
// cached per host for the lifetime of the process.
type RobotsEnforcer struct {
	client *http.Client
	cache  sync.Map
	mu     sync.RWMutex
	agent  string
	logger *zap.Logger
}

// robotsEntry caches the per-host outcome. A nil data means the host
// published no usable robots.txt.
type robotsEntry struct {
	data *robotstxt.RobotsData
}

// NewRobotsEnforcer builds a RobotsEnforcer with the given identity.
func NewRobotsEnforcer(cfg Config, logger *zap.Logger) *RobotsEnforcer {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RobotsEnforcer{
		client: &http.Client{Timeout: cfg.Timeout},
		agent:  cfg.UserAgent,
		logger: logger,
	}
}

// SetUserAgent updates the identity used for group matching and the
// robots.txt request header.
func (r *RobotsEnforcer) SetUserAgent(ua string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agent = ua
}

func (r *RobotsEnforcer) userAgent() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agent
}

// Allowed reports whether the configured user agent may crawl rawURL.
func (r *RobotsEnforcer) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	entry, err := r.load(ctx, parsed)
	if err != nil {
		r.logger.Warn("robots fetch failed; allowing access",
			zap.String("host", parsed.Host),
			zap.Error(err),
		)
		return true
	}
	if entry.data == nil {
		return true
	}
	group := entry.data.FindGroup(r.userAgent())
	if group == nil {
		return true
	}
	p := parsed.Path
	if p == "" {
		p = "/"
	}
	return group.Test(p)
}

func (r *RobotsEnforcer) load(ctx context.Context, parsed *url.URL) (robotsEntry, error) {
	hostKey := strings.ToLower(parsed.Host)
	if cached, ok := r.cache.Load(hostKey); ok {
		entry, assertOK := cached.(robotsEntry)
		if !assertOK {
			return robotsEntry{}, fmt.Errorf("robots cache type mismatch: %T", cached)
		}
		return entry, nil
	}

	robotsURL := *parsed
	robotsURL.Path = path.Join("/", "robots.txt")
	robotsURL.RawQuery = ""
	robotsURL.Fragment = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return robotsEntry{}, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent())
	resp, err := r.client.Do(req)
	if err != nil {
		return robotsEntry{}, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Debug("failed to close robots response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		entry := robotsEntry{}
		r.cache.Store(hostKey, entry)
		return entry, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return robotsEntry{}, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return robotsEntry{}, fmt.Errorf("parse robots: %w", err)
	}
	entry := robotsEntry{data: data}
	r.cache.Store(hostKey, entry)
	return entry, nil
}
