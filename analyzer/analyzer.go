package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonreiter/govader"

	"brandpulse/config"
	"brandpulse/logger"
	"brandpulse/models"
)

// Completer is the opaque text-classification backend: prompt in, text out.
// The engine is agnostic to its identity or protocol.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// result is the tagged outcome of one classification sub-call.
type result struct {
	value  string
	reason string
}

func (r result) ok() bool { return r.reason == "" }

// Engine classifies extracted article text: summary, topic, subcategory,
// product line, relevance and sentiment. Each sub-call is independent; a
// failure degrades only its own field.
type Engine struct {
	completer Completer
	vader     *govader.SentimentIntensityAnalyzer
	cfg       config.AnalysisConfig
	log       logger.Logger
	now       func() time.Time
}

// New builds an Engine. A nil completer is allowed: every backend call is
// then treated as failed and the lexical fallbacks carry the analysis.
func New(completer Completer, cfg config.AnalysisConfig, log logger.Logger) *Engine {
	return &Engine{
		completer: completer,
		vader:     govader.NewSentimentIntensityAnalyzer(),
		cfg:       cfg,
		log:       logger.OrNop(log),
		now:       time.Now,
	}
}

// Classify fills every classification field of the article. Articles
// without usable content get defaults and cause no backend calls.
func (e *Engine) Classify(ctx context.Context, article models.Article, brand config.BrandProfile) (out models.Article) {
	if !article.ScrapeSuccess || strings.TrimSpace(article.Content) == "" {
		e.log.Warnf("no content to analyze for article: %s", article.Title)
		article.ApplyClassificationDefaults()
		return article
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("error analyzing article %q: %v", article.Title, r)
			out = article
			out.ApplyClassificationDefaults()
			polarity := e.Polarity(out.Content)
			out.PolarityScore = polarity
			out.Sentiment = e.labelFromPolarity(polarity)
			out.AnalysisTimestamp = e.now()
			out.AnalysisError = fmt.Sprint(r)
		}
	}()

	e.log.Infof("analyzing article: %s", article.Title)
	content := article.Content

	var failures []string
	fail := func(field string, reason string) {
		e.log.Errorf("error in %s analysis: %s", field, reason)
		failures = append(failures, field+": "+reason)
	}

	// The continuous score always comes from the local lexical analyzer,
	// independently of the categorical label below. The two may disagree
	// at the margins.
	polarity := e.Polarity(content)
	article.PolarityScore = polarity

	if res := e.complete(ctx, summaryPrompt(e.cfg.SummaryMinWords, e.cfg.SummaryMaxWords, truncate(content, e.cfg.SummaryMaxChars))); res.ok() {
		article.Summary = strings.TrimSpace(res.value)
	} else {
		fail("summary", res.reason)
		article.Summary = fallbackSummary(content)
	}

	article.Topic = e.classifyLabel(ctx, "topic", content, brand.Categories, models.DefaultTopic, fail)
	article.Subcategory = e.classifyLabel(ctx, "subcategory", content, brand.Subcategories, models.DefaultSubcategory, fail)
	article.ProductLine = e.classifyLabel(ctx, "product line", content, brand.ProductLines, models.DefaultProductLine, fail)

	if res := e.complete(ctx, relevancePrompt(brand.Name, truncate(content, e.cfg.LabelMaxChars))); res.ok() {
		article.IsRelevant = isYes(res.value)
	} else {
		fail("relevance", res.reason)
		article.IsRelevant = false
	}

	if res := e.complete(ctx, sentimentPrompt(truncate(content, e.cfg.SentimentMaxChars))); res.ok() {
		if label, found := parseSentimentLabel(res.value); found {
			article.Sentiment = label
		} else {
			fail("sentiment", "unrecognized label: "+strings.TrimSpace(res.value))
			article.Sentiment = e.labelFromPolarity(polarity)
		}
	} else {
		fail("sentiment", res.reason)
		article.Sentiment = e.labelFromPolarity(polarity)
	}

	article.AnalysisTimestamp = e.now()
	if len(failures) > 0 {
		article.AnalysisError = strings.Join(failures, "; ")
	} else {
		article.AnalysisError = ""
	}
	return article
}

// ClassifyAll classifies articles sequentially, resolving each article's
// brand profile by name. An article whose brand is not configured falls
// back to defaults plus a lexical-only sentiment pass.
func (e *Engine) ClassifyAll(ctx context.Context, articles []models.Article, brands map[string]config.BrandProfile) []models.Article {
	e.log.Infof("analyzing %d articles", len(articles))

	results := make([]models.Article, 0, len(articles))
	for i, article := range articles {
		brand, found := brands[article.Brand]
		if !found {
			e.log.Errorf("no brand profile configured for %q", article.Brand)
			article.ApplyClassificationDefaults()
			if article.ScrapeSuccess && article.Content != "" {
				polarity := e.Polarity(article.Content)
				article.PolarityScore = polarity
				article.Sentiment = e.labelFromPolarity(polarity)
			}
			article.AnalysisTimestamp = e.now()
			article.AnalysisError = "no brand profile configured for " + article.Brand
			results = append(results, article)
			continue
		}
		results = append(results, e.Classify(ctx, article, brand))

		if (i+1)%5 == 0 || i == len(articles)-1 {
			e.log.Infof("analyzed %d/%d articles", i+1, len(articles))
		}
	}
	return results
}

// Polarity returns the lexical compound polarity of text, in [-1, 1].
func (e *Engine) Polarity(text string) float64 {
	return e.vader.PolarityScores(text).Compound
}

func (e *Engine) complete(ctx context.Context, prompt string) result {
	if e.completer == nil {
		return result{reason: "no completion backend configured"}
	}
	value, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		return result{reason: err.Error()}
	}
	return result{value: value}
}

// classifyLabel runs one single-label classification constrained to the
// brand vocabulary, coercing anything off-vocabulary to the catch-all.
func (e *Engine) classifyLabel(ctx context.Context, kind string, content string, vocab []string, catchAll string, fail func(string, string)) string {
	res := e.complete(ctx, labelPrompt(kind, vocab, catchAll, truncate(content, e.cfg.LabelMaxChars)))
	if !res.ok() {
		fail(kind, res.reason)
		return catchAll
	}
	return coerceLabel(res.value, vocab, catchAll)
}

func (e *Engine) labelFromPolarity(polarity float64) models.Sentiment {
	switch {
	case polarity >= e.cfg.SentimentThresholdPositive:
		return models.SentimentPositive
	case polarity <= e.cfg.SentimentThresholdNegative:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// coerceLabel accepts only case-exact members of the vocabulary (or the
// catch-all itself); everything else becomes the catch-all.
func coerceLabel(raw string, vocab []string, catchAll string) string {
	label := cleanAnswer(raw)
	if label == catchAll {
		return catchAll
	}
	if strings.EqualFold(label, "none") && catchAll == models.DefaultProductLine {
		return catchAll
	}
	for _, v := range vocab {
		if label == v {
			return v
		}
	}
	return catchAll
}

// isYes reports whether the answer starts with a "yes" token, compared
// case-insensitively. Anything else means no.
func isYes(raw string) bool {
	answer := strings.ToLower(cleanAnswer(raw))
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == ':' || r == '!'
	})
	return len(fields) > 0 && fields[0] == "yes"
}

func parseSentimentLabel(raw string) (models.Sentiment, bool) {
	switch strings.ToLower(cleanAnswer(raw)) {
	case "positive":
		return models.SentimentPositive, true
	case "neutral":
		return models.SentimentNeutral, true
	case "negative":
		return models.SentimentNegative, true
	}
	return models.SentimentNeutral, false
}

// cleanAnswer reduces a backend answer to its first line, without
// surrounding quotes or trailing punctuation.
func cleanAnswer(raw string) string {
	answer := strings.TrimSpace(raw)
	if idx := strings.IndexByte(answer, '\n'); idx >= 0 {
		answer = answer[:idx]
	}
	return strings.Trim(answer, " \t\"'`.")
}

var sentenceEnd = []rune{'.', '!', '?'}

// fallbackSummary is the degraded summary: the first three sentences, or
// the first 300 characters plus an ellipsis when there are fewer.
func fallbackSummary(content string) string {
	sentences := splitSentences(content)
	if len(sentences) >= 3 {
		return strings.TrimSpace(strings.Join(sentences[:3], " "))
	}
	if len(content) > 300 {
		content = content[:300]
	}
	return strings.TrimSpace(content) + "..."
}

func splitSentences(content string) []string {
	var sentences []string
	start := 0
	runes := []rune(content)
	for i, r := range runes {
		for _, end := range sentenceEnd {
			if r == end {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
				break
			}
		}
	}
	return sentences
}

func truncate(content string, max int) string {
	if max > 0 && len(content) > max {
		return content[:max]
	}
	return content
}
