package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRobots struct {
	blocked map[string]bool
}

func (f *fakeRobots) Allowed(_ context.Context, baseURL string) bool {
	return !f.blocked[baseURL]
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fails map[string]bool
	calls []string
	agent string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	if f.fails[rawURL] {
		return nil, errors.New("fetch failed")
	}
	return []byte(f.pages[rawURL]), nil
}

func (f *fakeFetcher) SetUserAgent(ua string) { f.agent = ua }
func (f *fakeFetcher) UserAgent() string      { return f.agent }

type fakeExtractor struct {
	pages      map[string]PageData
	parseFails map[string]bool
	aggregated string
	panicOn    string
}

func (f *fakeExtractor) ExtractFooterLinks(content []byte, baseURL string) (PageData, error) {
	if f.panicOn != "" && baseURL == f.panicOn {
		panic("extractor exploded")
	}
	if f.parseFails[baseURL] {
		return PageData{RelevantLinks: NewStringSet()}, errors.New("parse failed")
	}
	page, ok := f.pages[baseURL]
	if !ok {
		return PageData{RelevantLinks: NewStringSet()}, nil
	}
	return page, nil
}

func (f *fakeExtractor) AggregateContent(_ context.Context, links StringSet) string {
	if links.Len() == 0 {
		return ""
	}
	return f.aggregated
}

type fakeClassifier struct {
	licenseByURL  map[string]string
	licenseByText map[string]string
	mentions      StringSet
}

func (f *fakeClassifier) DetermineCCLicense(rawURL, text string) string {
	if label, ok := f.licenseByURL[rawURL]; ok && rawURL != "" {
		return label
	}
	if label, ok := f.licenseByText[text]; ok && text != "" {
		return label
	}
	return UnknownLicense
}

func (f *fakeClassifier) ExtractLicenseMentions(text string) StringSet {
	if text == "" || f.mentions == nil {
		return NewStringSet()
	}
	return f.mentions
}

func newTestDetector(robots *fakeRobots, fetcher *fakeFetcher, ex *fakeExtractor, cl *fakeClassifier, opts ...DetectorOption) *Detector {
	if robots == nil {
		robots = &fakeRobots{}
	}
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	if ex == nil {
		ex = &fakeExtractor{}
	}
	if cl == nil {
		cl = &fakeClassifier{}
	}
	return NewDetector(robots, fetcher, ex, cl, nil, opts...)
}

func TestDetector_InvalidURLShortCircuits(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	d := newTestDetector(nil, fetcher, nil, nil)

	results := d.Scan(context.Background(), []string{"example.com"})
	require.Len(t, results, 1)
	require.Equal(t, "example.com", results[0].Website)
	require.True(t, results[0].InvalidURL)
	require.False(t, results[0].BlockedByRobotsTxt)
	require.Empty(t, results[0].LicenseType)
	require.Empty(t, fetcher.calls, "invalid URLs must never be fetched")
}

func TestDetector_RobotsBlockShortCircuits(t *testing.T) {
	t.Parallel()

	robots := &fakeRobots{blocked: map[string]bool{"https://blocked.example": true}}
	fetcher := &fakeFetcher{}
	d := newTestDetector(robots, fetcher, nil, nil)

	results := d.Scan(context.Background(), []string{"https://blocked.example/page"})
	require.Len(t, results, 1)
	require.True(t, results[0].BlockedByRobotsTxt)
	require.False(t, results[0].InvalidURL)
	require.Empty(t, results[0].LicenseType)
	require.Empty(t, fetcher.calls, "blocked sites must never be fetched")
}

func TestDetector_FetchFailureYieldsDefaults(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{fails: map[string]bool{"https://down.example": true}}
	d := newTestDetector(nil, fetcher, nil, nil)

	results := d.Scan(context.Background(), []string{"https://down.example"})
	require.Len(t, results, 1)
	require.Equal(t, "https://down.example", results[0].Website)
	require.False(t, results[0].InvalidURL)
	require.False(t, results[0].BlockedByRobotsTxt)
	require.Empty(t, results[0].Error)
	require.Equal(t, 0, results[0].RelevantLinks.Len())
}

func TestDetector_FullPipeline(t *testing.T) {
	t.Parallel()

	site := "https://example.com"
	licenseLink := "https://creativecommons.org/licenses/by/4.0/"
	fetcher := &fakeFetcher{pages: map[string]string{site: "<html>page</html>"}}
	extractor := &fakeExtractor{
		pages: map[string]PageData{
			site: {
				LicenseLink:   licenseLink,
				LicenseText:   "CC BY 4.0",
				RelevantLinks: NewStringSet("https://example.com/terms"),
			},
		},
		aggregated: "All content is under copyright.",
	}
	classifier := &fakeClassifier{
		licenseByURL: map[string]string{licenseLink: "CC-BY-4.0"},
		mentions:     NewStringSet("Creative Commons (CC)"),
	}
	d := newTestDetector(nil, fetcher, extractor, classifier)

	results := d.Scan(context.Background(), []string{site})
	require.Len(t, results, 1)
	got := results[0]
	require.Equal(t, site, got.Website)
	require.Equal(t, licenseLink, got.LicenseLink)
	require.Equal(t, "CC-BY-4.0", got.LicenseType)
	require.Equal(t, []string{"https://example.com/terms"}, got.RelevantLinks.Values())
	require.True(t, got.LicenseMentions.Has("Creative Commons (CC)"))
	require.Equal(t, "All content is under copyright.", got.Content)
	require.Empty(t, got.Error)
}

func TestDetector_ReclassifiesFromContentWhenLinkUnknown(t *testing.T) {
	t.Parallel()

	site := "https://example.com"
	fetcher := &fakeFetcher{pages: map[string]string{site: "<html>page</html>"}}
	extractor := &fakeExtractor{
		pages: map[string]PageData{
			site: {RelevantLinks: NewStringSet("https://example.com/terms")},
		},
		aggregated: "Creative Commons Attribution-ShareAlike 4.0",
	}
	classifier := &fakeClassifier{
		licenseByText: map[string]string{"Creative Commons Attribution-ShareAlike 4.0": "CC-BY-SA-4.0"},
	}
	d := newTestDetector(nil, fetcher, extractor, classifier)

	results := d.Scan(context.Background(), []string{site})
	require.Equal(t, "CC-BY-SA-4.0", results[0].LicenseType)
	require.Empty(t, results[0].LicenseLink)
}

func TestDetector_PanicIsolatedToSite(t *testing.T) {
	t.Parallel()

	good := "https://good.example"
	bad := "https://bad.example"
	fetcher := &fakeFetcher{pages: map[string]string{good: "<html>ok</html>", bad: "<html>boom</html>"}}
	extractor := &fakeExtractor{
		pages:   map[string]PageData{good: {RelevantLinks: NewStringSet()}},
		panicOn: bad,
	}
	d := newTestDetector(nil, fetcher, extractor, nil)

	results := d.Scan(context.Background(), []string{bad, good})
	require.Len(t, results, 2)
	require.Equal(t, bad, results[0].Website)
	require.Contains(t, results[0].Error, "extractor exploded")
	require.Equal(t, good, results[1].Website)
	require.Empty(t, results[1].Error)
}

func TestDetector_ConcurrentScanPreservesOrder(t *testing.T) {
	t.Parallel()

	sites := []string{
		"https://a.example",
		"https://b.example",
		"invalid-url",
		"https://c.example",
	}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://a.example": "<html>a</html>",
		"https://b.example": "<html>b</html>",
		"https://c.example": "<html>c</html>",
	}}
	d := newTestDetector(nil, fetcher, nil, nil, WithConcurrency(3))

	results := d.Scan(context.Background(), sites)
	require.Len(t, results, len(sites))
	for i, site := range sites {
		require.Equal(t, site, results[i].Website)
	}
	require.True(t, results[2].InvalidURL)
}

func TestDetector_EmptyBatch(t *testing.T) {
	t.Parallel()

	d := newTestDetector(nil, nil, nil, nil)
	require.Empty(t, d.Scan(context.Background(), nil))
}

func TestDetector_SetUserAgentPropagates(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	d := newTestDetector(nil, fetcher, nil, nil)
	d.SetUserAgent("custom/9.9")
	require.Equal(t, "custom/9.9", fetcher.UserAgent())
}

func TestScanResult_JSONShape(t *testing.T) {
	t.Parallel()

	d := newTestDetector(nil, &fakeFetcher{}, nil, nil)
	results := d.Scan(context.Background(), []string{"bad-url"})

	raw, err := json.Marshal(results[0])
	require.NoError(t, err)
	data := string(raw)
	require.Contains(t, data, `"website":"bad-url"`)
	require.Contains(t, data, `"invalidUrl":true`)
	require.Contains(t, data, `"blockedByRobotsTxt":false`)
	require.Contains(t, data, `"relevantLinks":[]`)
	require.Contains(t, data, `"licenseMentions":[]`)
	require.NotContains(t, data, `"licenseType"`)
	require.NotContains(t, data, `"licenseLink"`)
	require.NotContains(t, data, `"content"`)
	require.NotContains(t, data, `"error"`)
	require.False(t, strings.Contains(data, "null"))
}
