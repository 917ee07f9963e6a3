package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// SourceType tells which kind of backend produced an article stub.
type SourceType string

const (
	SourceTypeRSS    SourceType = "rss"
	SourceTypeAPI    SourceType = "api"
	SourceTypeSearch SourceType = "search"
)

// Sentiment is the categorical label attached by the analysis stage.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// Default labels used whenever classification cannot produce a real one.
const (
	DefaultTopic       = "Others"
	DefaultSubcategory = "Others"
	DefaultProductLine = "None"
)

// Article is the single record that flows through the whole pipeline.
// It is created by the fetcher, mutated by the scraper and the analyzer,
// and becomes immutable once handed to the store. One row per article
// in the persisted snapshot.
type Article struct {
	Title         string     `json:"title" csv:"title" bson:"title"`
	URL           string     `json:"url" csv:"url" bson:"url"`
	Source        string     `json:"source" csv:"source" bson:"source"`
	SourceType    SourceType `json:"source_type" csv:"source_type" bson:"source_type"`
	Brand         string     `json:"brand" csv:"brand" bson:"brand"`
	Description   string     `json:"description" csv:"description" bson:"description"`
	PublishedDate time.Time  `json:"published_date" csv:"published_date" bson:"published_date"`
	FetchDate     time.Time  `json:"fetch_date" csv:"fetch_date" bson:"fetch_date"`

	Content       string `json:"content" csv:"content" bson:"content"`
	ScrapeSuccess bool   `json:"scrape_success" csv:"scrape_success" bson:"scrape_success"`

	Summary           string    `json:"summary" csv:"summary" bson:"summary"`
	Topic             string    `json:"topic" csv:"topic" bson:"topic"`
	Subcategory       string    `json:"subcategory" csv:"subcategory" bson:"subcategory"`
	ProductLine       string    `json:"product_line" csv:"product_line" bson:"product_line"`
	IsRelevant        bool      `json:"is_relevant" csv:"is_relevant" bson:"is_relevant"`
	Sentiment         Sentiment `json:"sentiment" csv:"sentiment" bson:"sentiment"`
	PolarityScore     float64   `json:"polarity_score" csv:"polarity_score" bson:"polarity_score"`
	AnalysisTimestamp time.Time `json:"analysis_timestamp" csv:"analysis_timestamp" bson:"analysis_timestamp"`
	AnalysisError     string    `json:"analysis_error,omitempty" csv:"analysis_error" bson:"analysis_error"`

	RefreshTimestamp time.Time `json:"refresh_timestamp" csv:"refresh_timestamp" bson:"refresh_timestamp"`
}

// DedupKey returns the content hash identifying an article within a run:
// md5 of "lower(trim(title))|lower(trim(url))". An article with an empty
// title or URL has no key and must be discarded by the caller.
func (a *Article) DedupKey() string {
	title := strings.ToLower(strings.TrimSpace(a.Title))
	url := strings.ToLower(strings.TrimSpace(a.URL))
	if title == "" || url == "" {
		return ""
	}
	sum := md5.Sum([]byte(title + "|" + url))
	return hex.EncodeToString(sum[:])
}

// ApplyClassificationDefaults resets every analysis field to its default.
// Downstream consumers rely on these fields never being absent, so every
// path that skips or fails classification must call this.
func (a *Article) ApplyClassificationDefaults() {
	a.Summary = ""
	a.Topic = DefaultTopic
	a.Subcategory = DefaultSubcategory
	a.ProductLine = DefaultProductLine
	a.IsRelevant = false
	a.Sentiment = SentimentNeutral
	a.PolarityScore = 0.0
}

// MarkScrapeFailed clears the content stage after a fetch or parse failure.
func (a *Article) MarkScrapeFailed() {
	a.Content = ""
	a.ScrapeSuccess = false
}
