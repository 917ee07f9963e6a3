package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandpulse/config"
	"brandpulse/logger"
	"brandpulse/models"
	"brandpulse/scraper"
)

func htmlServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newExtractor(t *testing.T, sources []config.SourceSpec, opts ...scraper.Option) *scraper.ContentExtractor {
	t.Helper()
	opts = append(opts, scraper.WithSleep(func(time.Duration) {}))
	return scraper.NewExtractor(config.FetchConfig{
		RequestTimeout: 5,
		UserAgent:      "brandpulse-test",
	}, sources, logger.Nop(), opts...)
}

func TestExtractEmptyURL(t *testing.T) {
	e := newExtractor(t, nil)

	out := e.Extract(context.Background(), models.Article{Title: "no url"})

	assert.False(t, out.ScrapeSuccess)
	assert.Empty(t, out.Content)
}

func TestExtractHTTPErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	e := newExtractor(t, nil)
	out := e.Extract(context.Background(), models.Article{URL: srv.URL})

	assert.False(t, out.ScrapeSuccess)
	assert.Empty(t, out.Content)
}

func TestExtractPicksLargestArticleBlock(t *testing.T) {
	srv := htmlServer(t, `<html><body>
		<article>Short teaser.</article>
		<article>
			<p>This is the real article body. It is much longer than the teaser above
			and contains the actual news we want to keep for analysis.</p>
			<div class="ad">BUY NOW limited offer!!!</div>
		</article>
	</body></html>`)

	e := newExtractor(t, nil)
	out := e.Extract(context.Background(), models.Article{URL: srv.URL})

	require.True(t, out.ScrapeSuccess)
	assert.Contains(t, out.Content, "real article body")
	assert.NotContains(t, out.Content, "Short teaser")
	assert.NotContains(t, out.Content, "BUY NOW")
}

func TestExtractParagraphFallback(t *testing.T) {
	long1 := strings.Repeat("First fallback paragraph with plenty of text. ", 3)
	long2 := strings.Repeat("Second fallback paragraph with plenty of text. ", 3)
	srv := htmlServer(t, fmt.Sprintf(`<html><body>
		<nav>Home | About</nav>
		<div><p>%s</p><p>tiny</p><p>%s</p></div>
		<footer>copyright</footer>
	</body></html>`, long1, long2))

	e := newExtractor(t, nil)
	out := e.Extract(context.Background(), models.Article{URL: srv.URL})

	require.True(t, out.ScrapeSuccess)
	assert.Contains(t, out.Content, "First fallback paragraph")
	assert.Contains(t, out.Content, "Second fallback paragraph")
	assert.NotContains(t, out.Content, "tiny")
	assert.NotContains(t, out.Content, "Home | About")
}

func TestExtractNormalizesWhitespace(t *testing.T) {
	srv := htmlServer(t, `<html><body><article>
		<p>Line   one
		continues    here.</p>


		<p>Paragraph two.</p>
	</article></body></html>`)

	e := newExtractor(t, nil)
	out := e.Extract(context.Background(), models.Article{URL: srv.URL})

	require.True(t, out.ScrapeSuccess)
	assert.NotContains(t, out.Content, "  ")
	assert.NotContains(t, out.Content, "\n\n\n")
	assert.False(t, strings.HasPrefix(out.Content, " "))
	assert.False(t, strings.HasSuffix(out.Content, " "))
}

func TestExtractAllIsolatesFailures(t *testing.T) {
	good := htmlServer(t, `<html><body><article><p>Good article body with enough text to matter.</p></article></body></html>`)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	e := newExtractor(t, nil)
	out := e.ExtractAll(context.Background(), []models.Article{
		{Title: "bad", URL: bad.URL},
		{Title: "good", URL: good.URL},
	})

	require.Len(t, out, 2)
	assert.False(t, out[0].ScrapeSuccess)
	assert.Empty(t, out[0].Content)
	assert.True(t, out[1].ScrapeSuccess)
	assert.Contains(t, out[1].Content, "Good article body")
}

func TestExtractRenderedRetryForRenderSources(t *testing.T) {
	// Static page has no extractable text; the rendered variant does.
	srv := htmlServer(t, `<html><body><div id="app"></div></body></html>`)

	rendered := `<html><body><article><p>Rendered content appears only after JS runs on the page.</p></article></body></html>`
	var renderCalls int
	render := func(ctx context.Context, url string) (string, error) {
		renderCalls++
		return rendered, nil
	}

	sources := []config.SourceSpec{{Name: "spa-site", Type: "rss", Render: true, Enabled: true}}
	e := newExtractor(t, sources, scraper.WithRenderer(render))

	out := e.Extract(context.Background(), models.Article{URL: srv.URL, Source: "spa-site"})

	require.True(t, out.ScrapeSuccess)
	assert.Equal(t, 1, renderCalls)
	assert.Contains(t, out.Content, "Rendered content")

	// Sources without render=true never trigger the retry.
	out = e.Extract(context.Background(), models.Article{URL: srv.URL, Source: "plain-site"})
	assert.Equal(t, 1, renderCalls)
	assert.True(t, out.ScrapeSuccess)
	assert.Empty(t, out.Content)
}
