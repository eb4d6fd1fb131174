package scanner

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Detector coordinates robots checks, fetching, extraction, and
// classification for a batch of websites. Each site is processed
// independently; a failure on one site never affects another's result.
type Detector struct {
	robots      RobotsPolicy
	fetcher     Fetcher
	extractor   Extractor
	classifier  Classifier
	concurrency int
	logger      *zap.Logger
}

// DetectorOption customizes a Detector.
type DetectorOption func(*Detector)

// WithConcurrency allows up to n sites to be processed in flight. The
// result order always matches the input order.
func WithConcurrency(n int) DetectorOption {
	return func(d *Detector) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// NewDetector constructs a Detector.
func NewDetector(
	robots RobotsPolicy,
	fetcher Fetcher,
	extractor Extractor,
	classifier Classifier,
	logger *zap.Logger,
	opts ...DetectorOption,
) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Detector{
		robots:      robots,
		fetcher:     fetcher,
		extractor:   extractor,
		classifier:  classifier,
		concurrency: 1,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetUserAgent updates the identity used for all subsequent requests.
func (d *Detector) SetUserAgent(ua string) {
	d.fetcher.SetUserAgent(ua)
}

// Scan processes each site and returns exactly one result per input, in
// input order, regardless of individual failures.
func (d *Detector) Scan(ctx context.Context, sites []string) []ScanResult {
	results := make([]ScanResult, len(sites))
	if d.concurrency <= 1 {
		for i, site := range sites {
			d.logger.Info("scanning website", zap.String("website", site))
			results[i] = d.scanSite(ctx, site)
		}
		return results
	}

	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup
	for i, site := range sites {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, site string) {
			defer wg.Done()
			defer func() { <-sem }()
			d.logger.Info("scanning website", zap.String("website", site))
			results[i] = d.scanSite(ctx, site)
		}(i, site)
	}
	wg.Wait()
	return results
}

// scanSite confines panics and unexpected errors to the site's own result.
func (d *Detector) scanSite(ctx context.Context, site string) (result ScanResult) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("scan panicked",
				zap.String("website", site),
				zap.Any("panic", rec),
			)
			result = ScanResult{Website: site, Error: fmt.Sprintf("%v", rec)}
		}
	}()

	res, err := d.processSite(ctx, site)
	if err != nil {
		d.logger.Error("scan failed", zap.String("website", site), zap.Error(err))
		return ScanResult{Website: site, Error: err.Error()}
	}
	return res
}

func (d *Detector) processSite(ctx context.Context, site string) (ScanResult, error) {
	result := ScanResult{
		Website:         site,
		RelevantLinks:   NewStringSet(),
		LicenseMentions: NewStringSet(),
	}

	if !ValidateURL(site) {
		result.InvalidURL = true
		return result, nil
	}

	base := BaseURL(site)
	if !d.robots.Allowed(ctx, base) {
		result.BlockedByRobotsTxt = true
		return result, nil
	}

	body, err := d.fetcher.Fetch(ctx, site)
	if err != nil {
		d.logger.Warn("primary fetch failed", zap.String("website", site), zap.Error(err))
		return result, nil
	}
	if len(body) == 0 {
		return result, nil
	}

	page, err := d.extractor.ExtractFooterLinks(body, site)
	if err != nil {
		d.logger.Warn("page parse failed", zap.String("website", site), zap.Error(err))
		return result, nil
	}

	licenseType := d.classifier.DetermineCCLicense(page.LicenseLink, page.LicenseText)

	content := d.extractor.AggregateContent(ctx, page.RelevantLinks)
	mentions := d.classifier.ExtractLicenseMentions(content)
	if licenseType == UnknownLicense {
		licenseType = d.classifier.DetermineCCLicense("", content)
	}

	result.LicenseLink = page.LicenseLink
	result.LicenseType = licenseType
	result.RelevantLinks = page.RelevantLinks
	result.LicenseMentions = mentions
	result.Content = content
	return result, nil
}
