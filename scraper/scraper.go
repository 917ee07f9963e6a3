package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"brandpulse/config"
	"brandpulse/logger"
	"brandpulse/models"
)

// RenderFunc produces rendered HTML for a URL, for sites that need a
// JS-capable fetch. See RenderHTML.
type RenderFunc func(ctx context.Context, url string) (string, error)

// ContentExtractor retrieves article pages and extracts their main text
// through a cascade of strategies. Failures never propagate: a failed
// article comes back with ScrapeSuccess=false and empty content.
type ContentExtractor struct {
	cfg    config.FetchConfig
	client *http.Client
	log    logger.Logger

	// sources with render=true get a rendered-HTML retry when the
	// static fetch succeeded but extraction produced no text.
	renderSources map[string]bool
	render        RenderFunc

	sleep func(time.Duration)
}

// Option configures a ContentExtractor.
type Option func(*ContentExtractor)

// WithRenderer enables the rendered-HTML retry using the given function.
func WithRenderer(fn RenderFunc) Option {
	return func(e *ContentExtractor) { e.render = fn }
}

// WithSleep replaces the inter-request pause, for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(e *ContentExtractor) { e.sleep = fn }
}

func NewExtractor(cfg config.FetchConfig, sources []config.SourceSpec, log logger.Logger, opts ...Option) *ContentExtractor {
	e := &ContentExtractor{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		log:           logger.OrNop(log),
		renderSources: map[string]bool{},
		sleep:         time.Sleep,
	}
	for _, s := range sources {
		if s.Render {
			e.renderSources[s.Name] = true
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the article's URL and fills Content and ScrapeSuccess.
func (e *ContentExtractor) Extract(ctx context.Context, article models.Article) models.Article {
	if article.URL == "" {
		e.log.Error("no URL provided for article")
		article.MarkScrapeFailed()
		return article
	}

	e.log.Infof("scraping content from: %s", article.URL)

	rawHTML, err := e.fetchHTML(ctx, article.URL)
	if err != nil {
		e.log.Errorf("failed to fetch %s: %v", article.URL, err)
		article.MarkScrapeFailed()
		return article
	}

	text := extractText(rawHTML)

	if text == "" && e.render != nil && e.renderSources[article.Source] {
		e.log.Infof("retrying %s with rendered HTML", article.URL)
		if rendered, rErr := e.render(ctx, article.URL); rErr == nil {
			text = extractText(rendered)
		} else {
			e.log.Warnf("render failed for %s: %v", article.URL, rErr)
		}
	}

	article.Content = cleanText(text)
	article.ScrapeSuccess = true
	return article
}

// ExtractAll extracts the given articles sequentially, pausing a random
// 1-3 seconds between requests to avoid hostile rate patterns. The
// orchestrator applies this per chunk when fanning out.
func (e *ContentExtractor) ExtractAll(ctx context.Context, articles []models.Article) []models.Article {
	e.log.Infof("scraping %d articles", len(articles))

	results := make([]models.Article, 0, len(articles))
	for i, article := range articles {
		if i > 0 {
			e.sleep(time.Duration(1000+rand.Intn(2000)) * time.Millisecond)
		}
		results = append(results, e.Extract(ctx, article))

		if (i+1)%5 == 0 || i == len(articles)-1 {
			e.log.Infof("scraped %d/%d articles", i+1, len(articles))
		}
	}
	return results
}

func (e *ContentExtractor) fetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractText runs the strategy cascade over one HTML document.
func extractText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	for _, s := range strategies {
		out := s.run(doc, rawHTML)
		if out.ok() && strings.TrimSpace(out.text) != "" {
			return out.text
		}
	}
	return ""
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}
