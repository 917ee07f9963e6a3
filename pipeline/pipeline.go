package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"brandpulse/config"
	"brandpulse/logger"
	"brandpulse/models"
	"brandpulse/store"
)

// Fetcher gathers candidate article stubs for one brand. Implementations
// absorb per-source failures internally and never abort the brand.
type Fetcher interface {
	FetchForBrand(ctx context.Context, brand config.BrandProfile, sources []config.SourceSpec) []models.Article
}

// Extractor fills the content stage for a batch of articles.
type Extractor interface {
	ExtractAll(ctx context.Context, articles []models.Article) []models.Article
}

// Classifier fills the classification stage for a batch of articles.
type Classifier interface {
	ClassifyAll(ctx context.Context, articles []models.Article, brands map[string]config.BrandProfile) []models.Article
}

// Deps wires the collaborators into the orchestrator.
type Deps struct {
	Fetcher    Fetcher
	Extractor  Extractor
	Classifier Classifier
	Store      store.Store
	Config     *config.AppConfig
	Log        logger.Logger

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

// Orchestrator sequences the fetch, extract and classify stages for one
// run, fans extraction out across a bounded worker pool, and hands the
// merged article set to the store. No stage failure is fatal: the worst
// case is a smaller or lower-quality result set, never an aborted run.
type Orchestrator struct {
	fetcher    Fetcher
	extractor  Extractor
	classifier Classifier
	store      store.Store
	cfg        *config.AppConfig
	log        logger.Logger
	now        func() time.Time
}

func New(deps Deps) *Orchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		store:      deps.Store,
		cfg:        deps.Config,
		log:        logger.OrNop(deps.Log),
		now:        now,
	}
}

// Run executes the full pipeline for the selected brands (all configured
// brands when the selection is empty) and returns the run summary. An
// empty result means there was nothing to do.
func (o *Orchestrator) Run(ctx context.Context, selectedBrands []string) models.RunResult {
	o.log.Info("starting full pipeline run")
	start := o.now()
	runID := uuid.NewString()

	brands := o.resolveBrands(selectedBrands)
	if len(brands) == 0 {
		o.log.Warn("no brands to process")
		return models.RunResult{RunID: runID}
	}

	allArticles := o.fetchStage(ctx, brands)
	if len(allArticles) == 0 {
		o.log.Warn("no articles found for selected brands")
		return models.RunResult{RunID: runID, Brands: len(brands)}
	}

	extracted := o.extractStage(ctx, allArticles)
	analyzed := o.classifyStage(ctx, extracted)

	ts := o.now()
	for i := range analyzed {
		analyzed[i].RefreshTimestamp = ts
	}

	locator, err := o.store.Save(ctx, analyzed, ts)
	if err != nil {
		o.log.Errorf("failed to save results: %v", err)
		locator = ""
	}
	if err := o.store.ArchiveOlderThan(ctx, o.cfg.Storage.ArchiveDays); err != nil {
		o.log.Errorf("failed to archive old snapshots: %v", err)
	}

	scraped := 0
	for _, a := range analyzed {
		if a.ScrapeSuccess {
			scraped++
		}
	}

	elapsed := o.now().Sub(start)
	o.log.Infof("pipeline completed in %.2f seconds", elapsed.Seconds())
	o.log.Infof("processed %d articles from %d brands", len(analyzed), len(brands))

	return models.RunResult{
		RunID:            runID,
		RefreshTimestamp: ts,
		SnapshotLocator:  locator,
		Brands:           len(brands),
		Articles:         len(analyzed),
		Scraped:          scraped,
		ElapsedSeconds:   elapsed.Seconds(),
	}
}

func (o *Orchestrator) resolveBrands(selected []string) []config.BrandProfile {
	if len(selected) == 0 {
		return o.cfg.Brands
	}
	wanted := map[string]bool{}
	for _, name := range selected {
		wanted[name] = true
	}
	var brands []config.BrandProfile
	for _, b := range o.cfg.Brands {
		if wanted[b.Name] {
			brands = append(brands, b)
		}
	}
	return brands
}

// fetchStage fetches per brand, tags each article with its brand, and
// flattens. A brand whose fetch blows up contributes zero articles.
func (o *Orchestrator) fetchStage(ctx context.Context, brands []config.BrandProfile) []models.Article {
	o.log.Infof("fetching news for %d brands", len(brands))

	var all []models.Article
	for _, brand := range brands {
		articles := o.fetchBrand(ctx, brand)
		for i := range articles {
			articles[i].Brand = brand.Name
		}
		if len(articles) > 0 && o.cfg.Storage.SaveRaw {
			if raw, ok := o.store.(store.RawSaver); ok {
				if _, err := raw.SaveRaw(ctx, brand.Name, articles, o.now()); err != nil {
					o.log.Errorf("failed to save raw data for %s: %v", brand.Name, err)
				}
			}
		}
		all = append(all, articles...)
	}
	return all
}

func (o *Orchestrator) fetchBrand(ctx context.Context, brand config.BrandProfile) (articles []models.Article) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("error fetching news for %s: %v", brand.Name, r)
			articles = nil
		}
	}()
	return o.fetcher.FetchForBrand(ctx, brand, o.cfg.Sources)
}

// extractStage extracts serially for small batches and fans out across a
// bounded pool of workers otherwise. Chunk boundaries are contiguous; a
// chunk whose extraction panics is recovered with every member marked as
// a scrape failure, so no article is ever dropped.
func (o *Orchestrator) extractStage(ctx context.Context, articles []models.Article) []models.Article {
	o.log.Infof("scraping content for %d articles", len(articles))

	if len(articles) <= o.cfg.Fetch.ParallelThreshold {
		return o.extractor.ExtractAll(ctx, articles)
	}

	chunkSize := len(articles) / o.cfg.Fetch.MaxWorkers
	if chunkSize < 1 {
		chunkSize = 1
	}
	var chunks [][]models.Article
	for start := 0; start < len(articles); start += chunkSize {
		end := start + chunkSize
		if end > len(articles) {
			end = len(articles)
		}
		chunks = append(chunks, articles[start:end])
	}

	results := make(chan []models.Article, len(chunks))
	var wg sync.WaitGroup
	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []models.Article) {
			defer wg.Done()
			results <- o.extractChunk(ctx, chunk)
		}(chunk)
	}
	wg.Wait()
	close(results)

	merged := make([]models.Article, 0, len(articles))
	for chunkResult := range results {
		merged = append(merged, chunkResult...)
	}
	return merged
}

func (o *Orchestrator) extractChunk(ctx context.Context, chunk []models.Article) (out []models.Article) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("error scraping chunk: %v", r)
			out = make([]models.Article, len(chunk))
			for i, a := range chunk {
				a.MarkScrapeFailed()
				out[i] = a
			}
		}
	}()
	return o.extractor.ExtractAll(ctx, chunk)
}

// classifyStage classifies only articles whose scrape succeeded; the rest
// get default classification fields without any backend cost.
func (o *Orchestrator) classifyStage(ctx context.Context, articles []models.Article) []models.Article {
	o.log.Infof("analyzing content for %d articles", len(articles))

	var successful, failed []models.Article
	for _, a := range articles {
		if a.ScrapeSuccess {
			successful = append(successful, a)
		} else {
			failed = append(failed, a)
		}
	}
	o.log.Infof("successfully scraped: %d/%d articles", len(successful), len(articles))

	analyzed := o.classifier.ClassifyAll(ctx, successful, o.cfg.BrandIndex())

	for i := range failed {
		failed[i].ApplyClassificationDefaults()
	}
	return append(analyzed, failed...)
}
