package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandpulse/logger"
	"brandpulse/models"
	"brandpulse/store"
)

func newCSVStore(t *testing.T) (*store.CSVStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.NewCSVStore(dir, logger.Nop())
	require.NoError(t, err)
	return s, dir
}

func sampleArticles() []models.Article {
	return []models.Article{
		{
			Title:         "Acme expands",
			URL:           "https://example.com/a",
			Source:        "feed",
			SourceType:    models.SourceTypeRSS,
			Brand:         "Acme",
			Content:       "Body text, with a comma and \"quotes\".",
			ScrapeSuccess: true,
			Summary:       "Short summary.",
			Topic:         "Finance",
			Subcategory:   "Earnings",
			ProductLine:   "None",
			IsRelevant:    true,
			Sentiment:     models.SentimentPositive,
			PolarityScore: 0.42,
		},
		{
			Title:       "Acme shrinks",
			URL:         "https://example.com/b",
			Brand:       "Acme",
			Topic:       models.DefaultTopic,
			Subcategory: models.DefaultSubcategory,
			ProductLine: models.DefaultProductLine,
			Sentiment:   models.SentimentNeutral,
		},
	}
}

func ts(value string) time.Time {
	t, err := time.ParseInLocation(store.SnapshotTimeLayout, value, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCSVSaveAndLoadRoundTrip(t *testing.T) {
	s, dir := newCSVStore(t)
	stamp := ts("20260815_120000")

	locator, err := s.Save(context.Background(), sampleArticles(), stamp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processed", "news_analysis_20260815_120000.csv"), locator)

	loaded, err := s.LoadByTimestamp(context.Background(), stamp)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "Acme expands", loaded[0].Title)
	assert.Equal(t, "Body text, with a comma and \"quotes\".", loaded[0].Content)
	assert.True(t, loaded[0].ScrapeSuccess)
	assert.True(t, loaded[0].IsRelevant)
	assert.Equal(t, models.SentimentPositive, loaded[0].Sentiment)
	assert.InDelta(t, 0.42, loaded[0].PolarityScore, 1e-9)
	assert.False(t, loaded[1].ScrapeSuccess)
	assert.Equal(t, models.DefaultTopic, loaded[1].Topic)
}

func TestCSVLoadLatestPicksNewest(t *testing.T) {
	s, _ := newCSVStore(t)

	old := sampleArticles()[:1]
	old[0].Title = "old snapshot"
	_, err := s.Save(context.Background(), old, ts("20260101_090000"))
	require.NoError(t, err)

	fresh := sampleArticles()[:1]
	fresh[0].Title = "fresh snapshot"
	_, err = s.Save(context.Background(), fresh, ts("20260815_120000"))
	require.NoError(t, err)

	loaded, err := s.LoadLatest(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "fresh snapshot", loaded[0].Title)
}

func TestCSVLoadLatestEmptyStore(t *testing.T) {
	s, _ := newCSVStore(t)

	loaded, err := s.LoadLatest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCSVLoadByTimestampMissing(t *testing.T) {
	s, _ := newCSVStore(t)

	loaded, err := s.LoadByTimestamp(context.Background(), ts("20260101_000000"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCSVListTimestampsNewestFirst(t *testing.T) {
	s, _ := newCSVStore(t)

	stamps := []time.Time{ts("20260301_080000"), ts("20260101_090000"), ts("20260815_120000")}
	for _, stamp := range stamps {
		_, err := s.Save(context.Background(), sampleArticles()[:1], stamp)
		require.NoError(t, err)
	}

	listed, err := s.ListTimestamps(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, ts("20260815_120000"), listed[0])
	assert.Equal(t, ts("20260301_080000"), listed[1])
	assert.Equal(t, ts("20260101_090000"), listed[2])
}

func TestCSVArchiveOlderThan(t *testing.T) {
	s, dir := newCSVStore(t)

	oldStamp := time.Now().AddDate(0, 0, -45).Truncate(time.Second)
	newStamp := time.Now().Truncate(time.Second)
	_, err := s.Save(context.Background(), sampleArticles()[:1], oldStamp)
	require.NoError(t, err)
	_, err = s.Save(context.Background(), sampleArticles()[:1], newStamp)
	require.NoError(t, err)

	require.NoError(t, s.ArchiveOlderThan(context.Background(), 30))

	listed, err := s.ListTimestamps(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, newStamp, listed[0])

	archived := filepath.Join(dir, "archive", "news_analysis_"+oldStamp.Format(store.SnapshotTimeLayout)+".csv")
	_, statErr := os.Stat(archived)
	assert.NoError(t, statErr)

	// Archived snapshots stay reachable by timestamp.
	loaded, err := s.LoadByTimestamp(context.Background(), oldStamp)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	// A second pass is a no-op.
	require.NoError(t, s.ArchiveOlderThan(context.Background(), 30))
	listed, err = s.ListTimestamps(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCSVSaveRaw(t *testing.T) {
	s, dir := newCSVStore(t)
	stamp := ts("20260815_120000")

	path, err := s.SaveRaw(context.Background(), "Acme", sampleArticles(), stamp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "raw", "acme_20260815_120000_raw.csv"), path)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
