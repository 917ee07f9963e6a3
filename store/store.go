package store

import (
	"context"
	"time"

	"brandpulse/models"
)

// SnapshotTimeLayout is the timestamp embedded in snapshot locators and
// CSV filenames.
const SnapshotTimeLayout = "20060102_150405"

// Store persists run snapshots: one flat row per article, keyed by the
// run's refresh timestamp.
type Store interface {
	// Save persists the article set under the given refresh timestamp
	// and returns a locator for the snapshot.
	Save(ctx context.Context, articles []models.Article, ts time.Time) (string, error)

	// LoadLatest returns the most recent snapshot, or an empty slice
	// when nothing has been persisted yet.
	LoadLatest(ctx context.Context) ([]models.Article, error)

	// LoadByTimestamp returns the snapshot saved under ts, checking the
	// archive as well.
	LoadByTimestamp(ctx context.Context, ts time.Time) ([]models.Article, error)

	// ListTimestamps returns all available refresh timestamps, newest
	// first.
	ListTimestamps(ctx context.Context) ([]time.Time, error)

	// ArchiveOlderThan moves snapshots older than the retention window
	// out of the active set. Calling it twice in a row is a no-op the
	// second time.
	ArchiveOlderThan(ctx context.Context, days int) error
}

// RawSaver is implemented by stores that can additionally keep the raw
// per-brand fetch output before extraction and analysis.
type RawSaver interface {
	SaveRaw(ctx context.Context, brand string, articles []models.Article, ts time.Time) (string, error)
}
