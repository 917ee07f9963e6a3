package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"brandpulse/logger"
	"brandpulse/models"
)

const snapshotPrefix = "news_analysis_"
const snapshotSuffix = ".csv"

// CSVStore keeps one CSV file per snapshot under dataDir:
//
//	data/processed/news_analysis_<ts>.csv   active snapshots
//	data/archive/news_analysis_<ts>.csv     archived snapshots
//	data/raw/<brand>_<ts>_raw.csv           raw per-brand fetch output
type CSVStore struct {
	processedDir string
	archiveDir   string
	rawDir       string
	log          logger.Logger
}

func NewCSVStore(dataDir string, log logger.Logger) (*CSVStore, error) {
	s := &CSVStore{
		processedDir: filepath.Join(dataDir, "processed"),
		archiveDir:   filepath.Join(dataDir, "archive"),
		rawDir:       filepath.Join(dataDir, "raw"),
		log:          logger.OrNop(log),
	}
	for _, dir := range []string{s.processedDir, s.archiveDir, s.rawDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return s, nil
}

func (s *CSVStore) Save(ctx context.Context, articles []models.Article, ts time.Time) (string, error) {
	path := filepath.Join(s.processedDir, snapshotPrefix+ts.Format(SnapshotTimeLayout)+snapshotSuffix)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&articles, f); err != nil {
		return "", err
	}
	s.log.Infof("saved %d articles to %s", len(articles), path)
	return path, nil
}

func (s *CSVStore) SaveRaw(ctx context.Context, brand string, articles []models.Article, ts time.Time) (string, error) {
	name := fmt.Sprintf("%s_%s_raw.csv", strings.ToLower(brand), ts.Format(SnapshotTimeLayout))
	path := filepath.Join(s.rawDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&articles, f); err != nil {
		return "", err
	}
	return path, nil
}

func (s *CSVStore) LoadLatest(ctx context.Context) ([]models.Article, error) {
	names, err := s.snapshotNames(s.processedDir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []models.Article{}, nil
	}
	// Filenames embed the timestamp, so lexical order is time order.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return s.readSnapshot(filepath.Join(s.processedDir, names[0]))
}

func (s *CSVStore) LoadByTimestamp(ctx context.Context, ts time.Time) ([]models.Article, error) {
	name := snapshotPrefix + ts.Format(SnapshotTimeLayout) + snapshotSuffix

	for _, dir := range []string{s.processedDir, s.archiveDir} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return s.readSnapshot(path)
		}
	}
	return []models.Article{}, nil
}

func (s *CSVStore) ListTimestamps(ctx context.Context) ([]time.Time, error) {
	names, err := s.snapshotNames(s.processedDir)
	if err != nil {
		return nil, err
	}

	var timestamps []time.Time
	for _, name := range names {
		if ts, ok := parseSnapshotName(name); ok {
			timestamps = append(timestamps, ts)
		}
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].After(timestamps[j]) })
	return timestamps, nil
}

func (s *CSVStore) ArchiveOlderThan(ctx context.Context, days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)

	names, err := s.snapshotNames(s.processedDir)
	if err != nil {
		return err
	}

	for _, name := range names {
		ts, ok := parseSnapshotName(name)
		if !ok || !ts.Before(cutoff) {
			continue
		}
		src := filepath.Join(s.processedDir, name)
		dst := filepath.Join(s.archiveDir, name)
		if err := os.Rename(src, dst); err != nil {
			return err
		}
		s.log.Infof("archived snapshot %s", name)
	}
	return nil
}

func (s *CSVStore) snapshotNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, snapshotPrefix) && strings.HasSuffix(name, snapshotSuffix) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *CSVStore) readSnapshot(path string) ([]models.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var articles []models.Article
	if err := gocsv.UnmarshalFile(f, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func parseSnapshotName(name string) (time.Time, bool) {
	raw := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	ts, err := time.ParseInLocation(SnapshotTimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
