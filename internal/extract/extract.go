// Package extract harvests license evidence from HTML documents: footer
// anchors on the primary page and license-relevant sentences from the body
// of secondary pages.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/licensewatch/license-scanner/internal/classify"
	"github.com/licensewatch/license-scanner/internal/policy/ratelimit"
	"github.com/licensewatch/license-scanner/internal/scanner"
)

// relevantLinkKeywords marks footer anchors worth a secondary visit.
var relevantLinkKeywords = []string{
	"terms",
	"legal",
	"license",
	"licensinguse", // sic
	"policy",
	"copyright",
}

// relevantTextKeywords marks body sentences worth keeping.
var relevantTextKeywords = []string{
	"intellectual property",
	"right",
	"authorised",
	"commercial use",
	"non-commercial use",
	"fair use",
	"license",
	"copyright",
	"creative commons",
	"cc by",
	"gpl",
	"apache",
	"mit",
	"bsd",
}

// sentenceBoundary splits on a period followed by whitespace or end of text.
// Periods inside tokens like "4.0" do not split.
var sentenceBoundary = regexp.MustCompile(`\.\s+|\.$`)

// Extractor parses HTML and aggregates license-relevant content from
// secondary pages under a politeness delay.
type Extractor struct {
	fetcher scanner.Fetcher
	delay   time.Duration
	logger  *zap.Logger
}

// New constructs an Extractor. delay is the minimum spacing between
// successive secondary fetches; non-positive disables the pause.
func New(fetcher scanner.Fetcher, delay time.Duration, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		fetcher: fetcher,
		delay:   delay,
		logger:  logger,
	}
}

// Parse builds a document from raw HTML.
func Parse(content []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ExtractFooterLinks walks footer anchors in document order. The first
// anchor whose text matches a license family pattern becomes the license
// link; no later anchor overrides it. Independently, every anchor whose
// text contains a relevant-link keyword, the license anchor included, is
// added to the relevant set. All hrefs are resolved against baseURL.
func (e *Extractor) ExtractFooterLinks(content []byte, baseURL string) (scanner.PageData, error) {
	page := scanner.PageData{RelevantLinks: scanner.NewStringSet()}

	doc, err := Parse(content)
	if err != nil {
		return page, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return page, fmt.Errorf("parse base url: %w", err)
	}

	doc.Find("footer").Each(func(_ int, footer *goquery.Selection) {
		footer.Find("a").Each(func(_ int, anchor *goquery.Selection) {
			href, ok := anchor.Attr("href")
			if !ok || href == "" {
				return
			}
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			absolute := base.ResolveReference(ref).String()
			text := strings.TrimSpace(anchor.Text())

			if page.LicenseLink == "" && classify.MentionsAnyFamily(text) {
				page.LicenseLink = absolute
				page.LicenseText = text
			}
			if containsKeyword(text, relevantLinkKeywords) {
				page.RelevantLinks.Add(absolute)
			}
		})
	})
	return page, nil
}

// RelevantText scans p, li, and span elements in document order, splits
// their text into sentence-like fragments, and joins the fragments that
// mention a licensing keyword with ". ".
func (e *Extractor) RelevantText(doc *goquery.Document) string {
	var sentences []string
	doc.Find("p, li, span").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		for _, fragment := range sentenceBoundary.Split(text, -1) {
			fragment = strings.TrimSpace(fragment)
			if fragment == "" {
				continue
			}
			if containsKeyword(fragment, relevantTextKeywords) {
				sentences = append(sentences, fragment)
			}
		}
	})
	return strings.Join(sentences, ". ")
}

// AggregateContent fetches each link in the set, extracts its relevant
// text, and joins the non-empty extracts with a single space. A failed
// fetch or parse skips that link. Successive fetches are spaced by the
// configured delay.
func (e *Extractor) AggregateContent(ctx context.Context, links scanner.StringSet) string {
	if links.Len() == 0 {
		return ""
	}
	pacer := ratelimit.NewPacer(e.delay)

	var parts []string
	for _, link := range links.Values() {
		if err := pacer.Wait(ctx); err != nil {
			break
		}
		body, err := e.fetcher.Fetch(ctx, link)
		if err != nil {
			e.logger.Debug("secondary fetch skipped", zap.String("url", link), zap.Error(err))
			continue
		}
		doc, err := Parse(body)
		if err != nil {
			e.logger.Debug("secondary parse skipped", zap.String("url", link), zap.Error(err))
			continue
		}
		if text := e.RelevantText(doc); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func containsKeyword(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
