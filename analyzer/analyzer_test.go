package analyzer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandpulse/analyzer"
	"brandpulse/config"
	"brandpulse/logger"
	"brandpulse/models"
)

var testBrand = config.BrandProfile{
	Name:          "Acme",
	Keywords:      []string{"acme"},
	Categories:    []string{"Finance", "Product"},
	Subcategories: []string{"Earnings", "Launch"},
	ProductLines:  []string{"Anvils", "Rockets"},
}

func testCfg() config.AnalysisConfig {
	return config.AnalysisConfig{
		SummaryMinWords:            50,
		SummaryMaxWords:            100,
		SentimentThresholdPositive: 0.1,
		SentimentThresholdNegative: -0.1,
		SummaryMaxChars:            6000,
		LabelMaxChars:              4000,
		SentimentMaxChars:          4000,
	}
}

// promptRouter answers each call type from a canned table, keyed by a
// marker that appears in the prompt.
type promptRouter struct {
	calls   int
	answers map[string]string
	errOn   map[string]bool
}

func (p *promptRouter) Complete(ctx context.Context, prompt string) (string, error) {
	p.calls++
	for marker, answer := range p.answers {
		if strings.Contains(prompt, marker) {
			if p.errOn[marker] {
				return "", errors.New("backend unavailable")
			}
			return answer, nil
		}
	}
	return "", errors.New("unexpected prompt")
}

func happyRouter() *promptRouter {
	return &promptRouter{
		answers: map[string]string{
			"Summarize":                 "A fine summary of the article.",
			"one topic label":           "Finance",
			"one subcategory label":     "Earnings",
			"one product line label":    "Anvils",
			"substantive business news": "yes",
			"overall sentiment":         "Positive",
		},
		errOn: map[string]bool{},
	}
}

func scraped(content string) models.Article {
	return models.Article{Title: "t", URL: "https://example.com", Content: content, ScrapeSuccess: true}
}

func TestClassifyGuardSkipsBackend(t *testing.T) {
	router := happyRouter()
	e := analyzer.New(router, testCfg(), logger.Nop())

	for _, a := range []models.Article{
		{Title: "failed scrape", Content: "text", ScrapeSuccess: false},
		{Title: "empty content", Content: "", ScrapeSuccess: true},
	} {
		out := e.Classify(context.Background(), a, testBrand)

		assert.Zero(t, router.calls)
		assert.Equal(t, models.DefaultTopic, out.Topic)
		assert.Equal(t, models.DefaultSubcategory, out.Subcategory)
		assert.Equal(t, models.DefaultProductLine, out.ProductLine)
		assert.False(t, out.IsRelevant)
		assert.Equal(t, models.SentimentNeutral, out.Sentiment)
		assert.Zero(t, out.PolarityScore)
	}
}

func TestClassifyHappyPath(t *testing.T) {
	e := analyzer.New(happyRouter(), testCfg(), logger.Nop())

	out := e.Classify(context.Background(), scraped("Acme posted record earnings. Profit rose sharply."), testBrand)

	assert.Equal(t, "A fine summary of the article.", out.Summary)
	assert.Equal(t, "Finance", out.Topic)
	assert.Equal(t, "Earnings", out.Subcategory)
	assert.Equal(t, "Anvils", out.ProductLine)
	assert.True(t, out.IsRelevant)
	assert.Equal(t, models.SentimentPositive, out.Sentiment)
	assert.False(t, out.AnalysisTimestamp.IsZero())
	assert.Empty(t, out.AnalysisError)
	// The continuous score comes from the lexical analyzer regardless.
	assert.NotZero(t, out.PolarityScore)
}

func TestClassifyCoercesOffVocabularyLabels(t *testing.T) {
	router := happyRouter()
	router.answers["one topic label"] = "finance" // wrong case
	router.answers["one subcategory label"] = "Scandal"
	router.answers["one product line label"] = "none"
	e := analyzer.New(router, testCfg(), logger.Nop())

	out := e.Classify(context.Background(), scraped("Some news about the brand."), testBrand)

	assert.Equal(t, models.DefaultTopic, out.Topic)
	assert.Equal(t, models.DefaultSubcategory, out.Subcategory)
	assert.Equal(t, models.DefaultProductLine, out.ProductLine)
}

func TestClassifyRelevanceTokenParsing(t *testing.T) {
	cases := map[string]bool{
		"yes":             true,
		"Yes.":            true,
		"YES, it is news": true,
		"no":              false,
		"Not really":      false,
		"maybe yes":       false,
	}
	for answer, want := range cases {
		router := happyRouter()
		router.answers["substantive business news"] = answer
		e := analyzer.New(router, testCfg(), logger.Nop())

		out := e.Classify(context.Background(), scraped("Some news."), testBrand)
		assert.Equal(t, want, out.IsRelevant, "answer %q", answer)
	}
}

func TestClassifySummaryFallbackUsesSentences(t *testing.T) {
	router := happyRouter()
	router.errOn["Summarize"] = true
	e := analyzer.New(router, testCfg(), logger.Nop())

	content := "First sentence here. Second sentence here. Third sentence here. Fourth sentence here."
	out := e.Classify(context.Background(), scraped(content), testBrand)

	assert.Equal(t, "First sentence here. Second sentence here. Third sentence here.", out.Summary)
	assert.Contains(t, out.AnalysisError, "summary")
}

func TestClassifySummaryFallbackTruncatesShortContent(t *testing.T) {
	router := happyRouter()
	router.errOn["Summarize"] = true
	e := analyzer.New(router, testCfg(), logger.Nop())

	out := e.Classify(context.Background(), scraped("No sentence boundaries at all just words"), testBrand)

	assert.Equal(t, "No sentence boundaries at all just words...", out.Summary)
}

func TestClassifyLexicalSentimentFallback(t *testing.T) {
	router := happyRouter()
	router.errOn["overall sentiment"] = true
	e := analyzer.New(router, testCfg(), logger.Nop())

	out := e.Classify(context.Background(), scraped("Sales grew 10%. Profit rose."), testBrand)

	assert.Equal(t, models.SentimentPositive, out.Sentiment)
	assert.Greater(t, out.PolarityScore, 0.0)
	assert.Contains(t, out.AnalysisError, "sentiment")
}

func TestClassifyAllBackendCallsFail(t *testing.T) {
	failing := analyzer.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("backend down")
	})
	e := analyzer.New(failing, testCfg(), logger.Nop())

	out := e.Classify(context.Background(), scraped("Sales grew 10%. Profit rose."), testBrand)

	assert.Equal(t, models.DefaultTopic, out.Topic)
	assert.Equal(t, models.DefaultSubcategory, out.Subcategory)
	assert.Equal(t, models.DefaultProductLine, out.ProductLine)
	assert.False(t, out.IsRelevant)
	assert.Equal(t, models.SentimentPositive, out.Sentiment) // lexical only
	assert.Greater(t, out.PolarityScore, 0.0)
	assert.NotEmpty(t, out.AnalysisError)
	assert.NotEmpty(t, out.Summary) // extractive fallback still fires
}

func TestClassifyNilCompleterLexicalMode(t *testing.T) {
	e := analyzer.New(nil, testCfg(), logger.Nop())

	out := e.Classify(context.Background(), scraped("The product failed badly and customers are angry."), testBrand)

	assert.Equal(t, models.SentimentNegative, out.Sentiment)
	assert.Less(t, out.PolarityScore, 0.0)
	assert.NotEmpty(t, out.AnalysisError)
}

func TestClassifyAllResolvesBrands(t *testing.T) {
	router := happyRouter()
	e := analyzer.New(router, testCfg(), logger.Nop())

	articles := []models.Article{
		func() models.Article { a := scraped("Good news. Profit rose. Great."); a.Brand = "Acme"; return a }(),
		func() models.Article { a := scraped("Orphan content."); a.Brand = "Ghost"; return a }(),
	}

	out := e.ClassifyAll(context.Background(), articles, map[string]config.BrandProfile{"Acme": testBrand})

	require.Len(t, out, 2)
	assert.Equal(t, "Finance", out[0].Topic)
	assert.Equal(t, models.DefaultTopic, out[1].Topic)
	assert.Contains(t, out[1].AnalysisError, "Ghost")
}
