package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"brandpulse/config"
	"brandpulse/logger"
	"brandpulse/models"
)

// SourceFetcher queries configured news sources for a brand's keywords and
// normalizes the raw hits into Article stubs. One instance is safe for use
// from a single run; it keeps no mutable state between calls.
type SourceFetcher struct {
	cfg    config.FetchConfig
	client *http.Client
	log    logger.Logger
	now    func() time.Time
}

func New(cfg config.FetchConfig, log logger.Logger) *SourceFetcher {
	return &SourceFetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		log: logger.OrNop(log),
		now: time.Now,
	}
}

// FetchForBrand queries each enabled source for every brand keyword, in
// priority order (the configured default source first), deduplicates and
// caps the result at MaxArticlesPerBrand. A failing source is logged and
// contributes zero hits; it never aborts the brand's fetch.
func (f *SourceFetcher) FetchForBrand(ctx context.Context, brand config.BrandProfile, sources []config.SourceSpec) []models.Article {
	f.log.Infof("fetching news for brand: %s", brand.Name)

	ordered := f.orderSources(sources)

	seen := map[string]struct{}{}
	var unique []models.Article

	for _, keyword := range brand.Keywords {
		f.log.Debugf("searching for keyword: %s", keyword)
		for _, src := range ordered {
			hits, err := f.fetchFromSource(ctx, src, keyword)
			if err != nil {
				f.log.Errorf("error fetching from %s: %v", src.Name, err)
				continue
			}
			for _, a := range hits {
				key := a.DedupKey()
				if key == "" {
					continue
				}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				unique = append(unique, a)
			}
			if len(unique) >= f.cfg.MaxArticlesPerBrand {
				break
			}
		}
		if len(unique) >= f.cfg.MaxArticlesPerBrand {
			break
		}
	}

	if len(unique) > f.cfg.MaxArticlesPerBrand {
		unique = unique[:f.cfg.MaxArticlesPerBrand]
	}

	f.log.Infof("found %d articles for %s", len(unique), brand.Name)
	return unique
}

// orderSources filters to enabled sources and moves the default source to
// the front so its hits win when the cap truncates the result.
func (f *SourceFetcher) orderSources(sources []config.SourceSpec) []config.SourceSpec {
	ordered := make([]config.SourceSpec, 0, len(sources))
	for _, s := range sources {
		if s.Enabled && s.Name == f.cfg.DefaultSource {
			ordered = append(ordered, s)
		}
	}
	for _, s := range sources {
		if s.Enabled && s.Name != f.cfg.DefaultSource {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

func (f *SourceFetcher) fetchFromSource(ctx context.Context, src config.SourceSpec, keyword string) ([]models.Article, error) {
	switch src.Type {
	case "rss":
		return f.fetchRSS(ctx, src, keyword)
	case "api", "search":
		// A search source is an api source whose query lives in params.
		return f.fetchAPI(ctx, src, keyword)
	default:
		f.log.Warnf("unknown source type: %s", src.Type)
		return nil, nil
	}
}

func (f *SourceFetcher) fetchRSS(ctx context.Context, src config.SourceSpec, keyword string) ([]models.Article, error) {
	feedURL := strings.ReplaceAll(src.Endpoint, "{keyword}", url.QueryEscape(keyword))
	f.log.Debugf("fetching RSS from: %s", feedURL)

	fp := gofeed.NewParser()
	fp.Client = f.client
	fp.UserAgent = f.cfg.UserAgent

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var articles []models.Article
	for _, item := range feed.Items {
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		} else {
			published = f.now()
		}

		articles = append(articles, models.Article{
			Title:         item.Title,
			URL:           item.Link,
			Source:        src.Name,
			SourceType:    models.SourceTypeRSS,
			Description:   item.Description,
			PublishedDate: published,
			FetchDate:     f.now(),
		})
	}
	return articles, nil
}

// apiResponse matches the NewsAPI-style payload shape.
type apiResponse struct {
	Articles []struct {
		Title  string `json:"title"`
		URL    string `json:"url"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		PublishedAt string `json:"publishedAt"`
		Description string `json:"description"`
	} `json:"articles"`
}

func (f *SourceFetcher) fetchAPI(ctx context.Context, src config.SourceSpec, keyword string) ([]models.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Endpoint, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	if len(src.Params) > 0 {
		for key, value := range src.Params {
			q.Set(key, strings.ReplaceAll(value, "{keyword}", keyword))
		}
	} else {
		q.Set("q", keyword)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	if src.APIKey != "" {
		req.Header.Set("Authorization", src.APIKey)
	}

	f.log.Debugf("fetching API from: %s", src.Endpoint)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	sourceType := models.SourceTypeAPI
	if src.Type == "search" {
		sourceType = models.SourceTypeSearch
	}

	var articles []models.Article
	for _, item := range payload.Articles {
		name := item.Source.Name
		if name == "" {
			name = src.Name
		}
		articles = append(articles, models.Article{
			Title:         item.Title,
			URL:           item.URL,
			Source:        name,
			SourceType:    sourceType,
			Description:   item.Description,
			PublishedDate: f.parseDate(item.PublishedAt),
			FetchDate:     f.now(),
		})
	}
	return articles, nil
}

// parseDate handles the RFC 2822 and ISO 8601 shapes seen in the wild and
// falls back to the fetch time when neither matches.
func (f *SourceFetcher) parseDate(s string) time.Time {
	if s == "" {
		return f.now()
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	f.log.Warnf("could not parse date: %s", s)
	return f.now()
}
