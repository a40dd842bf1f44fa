package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"library-ingest/feature/reconcile"
	"library-ingest/feature/reconcile/models"

	"go.uber.org/zap"
)

// Fetcher pulls an author's works from the catalog API and stores them.
// Works deduplicate solely on work_key: an existing key is skipped, never
// updated (unlike the CSV pipeline, which merges on match).
type Fetcher struct {
	client *Client
	store  reconcile.Store
	logger *zap.Logger
}

// NewFetcher creates a fetcher over a catalog client and store handle.
func NewFetcher(client *Client, store reconcile.Store, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, store: store, logger: logger}
}

// Run resolves the author by display name, lists up to limit works, fetches
// each work's detail, and inserts new works. It returns insert/skip counters.
func (f *Fetcher) Run(ctx context.Context, authorName string, limit int) (reconcile.Counters, error) {
	var counters reconcile.Counters

	search, err := f.client.SearchAuthors(ctx, authorName, 10)
	if err != nil {
		return counters, err
	}
	if len(search.Docs) == 0 {
		return counters, fmt.Errorf("no author found for %q", authorName)
	}
	author := search.Docs[0]
	f.logger.Info("found author",
		zap.String("name", author.Name),
		zap.String("key", author.Key))

	works, err := f.client.AuthorWorks(ctx, author.Key, limit, 0)
	if err != nil {
		return counters, err
	}
	f.logger.Info("listed works",
		zap.String("author", authorName),
		zap.Int("count", len(works.Entries)))

	batch, err := f.store.Begin(ctx)
	if err != nil {
		return counters, err
	}

	for _, entry := range works.Entries {
		raw, err := f.client.WorkDetail(ctx, entry.Key)
		if err != nil {
			_ = batch.Rollback()
			return counters, err
		}
		result, err := f.saveWork(batch, raw)
		if err != nil {
			_ = batch.Rollback()
			return counters, err
		}
		if result {
			counters.Inserted++
		} else {
			counters.Skipped++
		}
	}

	if err := batch.Commit(); err != nil {
		return counters, err
	}
	return counters, nil
}

// saveWork parses one work detail (strictly, then leniently) and inserts it
// unless its work_key is already stored. It reports whether a row was inserted.
func (f *Fetcher) saveWork(batch reconcile.Batch, raw json.RawMessage) (bool, error) {
	detail, err := ParseWorkDetail(raw)
	if err != nil {
		f.logger.Warn("work detail failed strict parsing, using lenient fallback", zap.Error(err))
		detail = LenientWorkDetail(raw)
	}

	workKey := trimKey(detail.Key)
	if workKey == "" {
		return false, fmt.Errorf("work detail has no usable key")
	}

	existing, err := batch.FindCatalogBookByWorkKey(workKey)
	if err != nil {
		return false, err
	}
	if existing != nil {
		f.logger.Info("skipping duplicate work",
			zap.String("work_key", workKey),
			zap.String("title", detail.Title))
		return false, nil
	}

	subjectList := detail.Subjects
	if subjectList == nil {
		subjectList = []string{}
	}
	subjects, err := json.Marshal(subjectList)
	if err != nil {
		return false, err
	}

	book := &models.CatalogBook{
		WorkKey:          workKey,
		Title:            detail.Title,
		Authors:          FlattenAuthors(raw),
		FirstPublishDate: detail.FirstPublishDate,
		Subjects:         string(subjects),
		Description:      string(detail.Description),
		Raw:              string(raw),
	}
	if err := batch.SaveCatalogBook(book); err != nil {
		return false, err
	}
	f.logger.Info("saved work",
		zap.String("work_key", workKey),
		zap.String("title", detail.Title))
	return true, nil
}
