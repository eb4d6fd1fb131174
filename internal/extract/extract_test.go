package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/licensewatch/license-scanner/internal/scanner"
)

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
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(body), nil
}

func (f *fakeFetcher) SetUserAgent(ua string) { f.agent = ua }
func (f *fakeFetcher) UserAgent() string      { return f.agent }

func TestExtractFooterLinks_FirstLicenseAnchorWins(t *testing.T) {
	t.Parallel()

	html := `<html><body><footer>
		<a href="/about">About us</a>
		<a href="/cc">Creative Commons Attribution 4.0</a>
		<a href="/mit">MIT License</a>
	</footer></body></html>`

	e := New(&fakeFetcher{}, 0, nil)
	page, err := e.ExtractFooterLinks([]byte(html), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/cc", page.LicenseLink)
	require.Equal(t, "Creative Commons Attribution 4.0", page.LicenseText)
}

func TestExtractFooterLinks_LicenseAnchorAlsoRelevant(t *testing.T) {
	t.Parallel()

	// The license anchor text mentions "license", so it belongs in the
	// relevant set as well as being the license link.
	html := `<html><body><footer>
		<a href="/license">MIT License</a>
		<a href="/terms">Terms of Service</a>
		<a href="/privacy">Privacy Policy</a>
		<a href="/blog">Blog</a>
	</footer></body></html>`

	e := New(&fakeFetcher{}, 0, nil)
	page, err := e.ExtractFooterLinks([]byte(html), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/license", page.LicenseLink)
	require.ElementsMatch(t, []string{
		"https://example.com/license",
		"https://example.com/terms",
		"https://example.com/privacy",
	}, page.RelevantLinks.Values())
}

func TestExtractFooterLinks_IgnoresAnchorsOutsideFooter(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<nav><a href="/nav-terms">Terms</a></nav>
		<footer><a href="/footer-terms">Terms</a></footer>
	</body></html>`

	e := New(&fakeFetcher{}, 0, nil)
	page, err := e.ExtractFooterLinks([]byte(html), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/footer-terms"}, page.RelevantLinks.Values())
}

func TestExtractFooterLinks_ResolvesRelativeAndAbsolute(t *testing.T) {
	t.Parallel()

	html := `<html><body><footer>
		<a href="legal">Legal</a>
		<a href="https://other.example.org/copyright">Copyright Notice</a>
	</footer></body></html>`

	e := New(&fakeFetcher{}, 0, nil)
	page, err := e.ExtractFooterLinks([]byte(html), "https://example.com/home/")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"https://example.com/home/legal",
		"https://other.example.org/copyright",
	}, page.RelevantLinks.Values())
}

func TestExtractFooterLinks_NoFooter(t *testing.T) {
	t.Parallel()

	e := New(&fakeFetcher{}, 0, nil)
	page, err := e.ExtractFooterLinks([]byte("<html><body><p>hi</p></body></html>"), "https://example.com")
	require.NoError(t, err)
	require.Empty(t, page.LicenseLink)
	require.Equal(t, 0, page.RelevantLinks.Len())
}

func TestExtractFooterLinks_SkipsEmptyHref(t *testing.T) {
	t.Parallel()

	html := `<html><body><footer><a>Terms</a><a href="">Legal</a></footer></body></html>`

	e := New(&fakeFetcher{}, 0, nil)
	page, err := e.ExtractFooterLinks([]byte(html), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, 0, page.RelevantLinks.Len())
}

func TestRelevantText_KeepsLicensingSentences(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<p>Welcome to our site. All content is under copyright. We hope you enjoy.</p>
		<li>Usage requires a license from us</li>
		<span>Nothing to see here</span>
	</body></html>`
	doc, err := Parse([]byte(html))
	require.NoError(t, err)

	e := New(&fakeFetcher{}, 0, nil)
	got := e.RelevantText(doc)
	require.Contains(t, got, "All content is under copyright")
	require.Contains(t, got, "Usage requires a license from us")
	require.NotContains(t, got, "Welcome to our site")
	require.NotContains(t, got, "Nothing to see here")
}

func TestRelevantText_VersionNumbersDoNotSplit(t *testing.T) {
	t.Parallel()

	html := `<p>Content is licensed under Creative Commons Attribution 4.0 International. Enjoy.</p>`
	doc, err := Parse([]byte(html))
	require.NoError(t, err)

	e := New(&fakeFetcher{}, 0, nil)
	got := e.RelevantText(doc)
	require.Contains(t, got, "Creative Commons Attribution 4.0 International")
}

func TestAggregateContent_JoinsAndSkipsFailures(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://example.com/a": `<p>Licensed under the MIT license.</p>`,
			"https://example.com/c": `<p>Copyright 2024 Example Corp.</p>`,
		},
		fails: map[string]bool{"https://example.com/b": true},
	}
	links := scanner.NewStringSet()
	links.Add("https://example.com/a")
	links.Add("https://example.com/b")
	links.Add("https://example.com/c")

	e := New(fetcher, 0, nil)
	got := e.AggregateContent(context.Background(), links)
	require.Contains(t, got, "MIT license")
	require.Contains(t, got, "Copyright 2024 Example Corp")
	// Set iteration is sorted, so fetch order is deterministic.
	require.Equal(t, []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}, fetcher.calls)
}

func TestAggregateContent_EmptySet(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	e := New(fetcher, time.Second, nil)
	got := e.AggregateContent(context.Background(), scanner.NewStringSet())
	require.Empty(t, got)
	require.Empty(t, fetcher.calls)
}

func TestAggregateContent_CanceledContextStops(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{}}
	links := scanner.NewStringSet()
	links.Add("https://example.com/a")
	links.Add("https://example.com/b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A large delay forces the pacer to consult the canceled context.
	e := New(fetcher, time.Hour, nil)
	got := e.AggregateContent(ctx, links)
	require.Empty(t, got)
	require.True(t, len(fetcher.calls) <= 1, "expected at most one fetch, got %v", fetcher.calls)
}

func TestContainsKeyword(t *testing.T) {
	t.Parallel()

	require.True(t, containsKeyword("Terms of Service", relevantLinkKeywords))
	require.True(t, containsKeyword("PRIVACY POLICY", relevantLinkKeywords))
	require.False(t, containsKeyword("Careers", relevantLinkKeywords))
	require.False(t, containsKeyword("", relevantLinkKeywords))
	require.False(t, strings.Contains("licensing use", "licensinguse"))
}
