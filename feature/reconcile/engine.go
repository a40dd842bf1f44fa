package reconcile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"library-ingest/feature/records"
	"library-ingest/feature/reconcile/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Counters accumulates per-entity reconciliation results for one run.
type Counters struct {
	Inserted int
	Updated  int
	Skipped  int
}

// EntityCounters pairs an entity type name with its counters.
type EntityCounters struct {
	Entity string
	Counters
}

// Summary is the final result of a reconciliation run.
type Summary struct {
	Libraries Counters
	Authors   Counters
	Books     Counters
	Members   Counters
}

// PerEntity returns the counters in processing order, for reporting.
func (s *Summary) PerEntity() []EntityCounters {
	return []EntityCounters{
		{Entity: "libraries", Counters: s.Libraries},
		{Entity: "authors", Counters: s.Authors},
		{Entity: "books", Counters: s.Books},
		{Entity: "members", Counters: s.Members},
	}
}

// outcome is the result of reconciling a single row.
type outcome int

const (
	outcomeInserted outcome = iota
	outcomeUpdated
	outcomeSkipped
)

// Engine runs the CSV reconciliation pipeline: validate each row, match it
// against the store by natural key, and insert or merge. Records are
// processed strictly one at a time in source order.
type Engine struct {
	store  Store
	logger *zap.Logger
}

// NewEngine creates an engine over an established store handle.
func NewEngine(store Store, logger *zap.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Run processes all four entity types from the source. Each entity type runs
// in its own batch; a fatal store error rolls that batch back and the run
// continues with the next entity type. The summary always reflects whatever
// was accumulated, and the first fatal error (if any) is returned alongside it.
func (e *Engine) Run(ctx context.Context, source RowSource) (*Summary, error) {
	log := e.logger.With(zap.String("run_id", uuid.NewString()))
	summary := &Summary{}

	steps := []struct {
		file     string
		counters *Counters
		apply    func(Batch, records.Row, *zap.Logger) (outcome, error)
	}{
		{"libraries.csv", &summary.Libraries, applyLibrary},
		{"authors.csv", &summary.Authors, applyAuthor},
		{"books.csv", &summary.Books, applyBook},
		{"members.csv", &summary.Members, applyMember},
	}

	var firstErr error
	for _, step := range steps {
		if err := e.runEntity(ctx, source, step.file, step.counters, step.apply, log); err != nil {
			log.Error("entity batch aborted", zap.String("file", step.file), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("processing %s: %w", step.file, err)
			}
		}
	}

	log.Info("reconciliation finished",
		zap.Int("libraries_inserted", summary.Libraries.Inserted),
		zap.Int("authors_inserted", summary.Authors.Inserted),
		zap.Int("books_inserted", summary.Books.Inserted),
		zap.Int("members_inserted", summary.Members.Inserted))

	return summary, firstErr
}

// runEntity processes one entity type inside one batch. Row-level problems
// are counted and skipped; anything else aborts the batch with a rollback.
func (e *Engine) runEntity(ctx context.Context, source RowSource, file string, counters *Counters, apply func(Batch, records.Row, *zap.Logger) (outcome, error), log *zap.Logger) error {
	reader, err := source.Open(ctx, file)
	if errors.Is(err, ErrFileNotFound) {
		log.Info("input not found, skipping", zap.String("file", file))
		return nil
	}
	if err != nil {
		return err
	}
	defer reader.Close()

	batch, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}

	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			counters.Skipped++
			log.Warn("malformed row skipped", zap.String("file", file), zap.Error(err))
			continue
		}
		if err != nil {
			_ = batch.Rollback()
			return err
		}

		result, err := apply(batch, row, log.With(zap.String("file", file)))
		if err != nil {
			_ = batch.Rollback()
			return err
		}
		switch result {
		case outcomeInserted:
			counters.Inserted++
		case outcomeUpdated:
			counters.Updated++
		case outcomeSkipped:
			counters.Skipped++
		}
	}

	return batch.Commit()
}

// optional returns nil for an empty string, so blank values never overwrite
// stored fields with empty ones.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func applyLibrary(batch Batch, row records.Row, log *zap.Logger) (outcome, error) {
	rec, err := records.ParseLibrary(row)
	if err != nil {
		log.Warn("row skipped", zap.Error(err))
		return outcomeSkipped, nil
	}

	// Natural key priority: email when present, else name.
	var lib *models.Library
	if rec.Email != "" {
		if lib, err = batch.FindLibraryByEmail(rec.Email); err != nil {
			return 0, err
		}
	}
	if lib == nil {
		if lib, err = batch.FindLibraryByName(rec.Name); err != nil {
			return 0, err
		}
	}

	if lib == nil {
		lib = &models.Library{
			Name:  rec.Name,
			Email: optional(rec.Email),
			Phone: optional(rec.Phone),
		}
		return outcomeInserted, batch.SaveLibrary(lib)
	}

	lib.Name = rec.Name
	if rec.Phone != "" {
		lib.Phone = &rec.Phone
	}
	if rec.Email != "" {
		lib.Email = &rec.Email
	}
	return outcomeUpdated, batch.SaveLibrary(lib)
}

func applyAuthor(batch Batch, row records.Row, log *zap.Logger) (outcome, error) {
	rec, err := records.ParseAuthor(row)
	if err != nil {
		log.Warn("row skipped", zap.Error(err))
		return outcomeSkipped, nil
	}

	key := records.DeriveAuthorKey(rec)
	author, err := batch.FindAuthor(key.NormalizedName, key.BirthDate)
	if err != nil {
		return 0, err
	}

	if author == nil {
		author = &models.Author{
			Name:           rec.Name,
			NormalizedName: key.NormalizedName,
			BirthDate:      key.BirthDate,
		}
		return outcomeInserted, batch.SaveAuthor(author)
	}

	// Keep the latest display casing.
	author.Name = rec.Name
	return outcomeUpdated, batch.SaveAuthor(author)
}

func applyBook(batch Batch, row records.Row, log *zap.Logger) (outcome, error) {
	rec, err := records.ParseBook(row)
	if err != nil {
		log.Warn("row skipped", zap.Error(err))
		return outcomeSkipped, nil
	}

	var book *models.Book
	if rec.ISBN != "" {
		if book, err = batch.FindBookByISBN(rec.ISBN); err != nil {
			return 0, err
		}
	}

	var author *models.Author
	if rec.AuthorName != "" {
		if author, err = getOrCreateAuthor(batch, rec.AuthorName); err != nil {
			return 0, err
		}
	}

	// Fallback key: (title, author) when no ISBN was given.
	if book == nil && rec.ISBN == "" && author != nil {
		if book, err = batch.FindBookByTitleAndAuthor(rec.Title, author.ID); err != nil {
			return 0, err
		}
	}

	if book == nil {
		book = &models.Book{
			Title:         rec.Title,
			ISBN:          optional(rec.ISBN),
			PublishedDate: rec.PublishedDate,
		}
		if author != nil {
			book.AuthorID = &author.ID
		}
		return outcomeInserted, batch.SaveBook(book)
	}

	book.Title = rec.Title
	if rec.PublishedDate != nil {
		book.PublishedDate = rec.PublishedDate
	}
	if rec.ISBN != "" {
		book.ISBN = &rec.ISBN
	}
	if author != nil {
		book.AuthorID = &author.ID
	}
	return outcomeUpdated, batch.SaveBook(book)
}

// getOrCreateAuthor resolves a book's author reference. The author is keyed on
// (normalized name, unknown birth date); a miss creates a placeholder with no
// birth date.
func getOrCreateAuthor(batch Batch, name string) (*models.Author, error) {
	normalized := records.NormalizeName(name)
	author, err := batch.FindAuthor(normalized, nil)
	if err != nil {
		return nil, err
	}
	if author != nil {
		return author, nil
	}
	author = &models.Author{Name: normalized, NormalizedName: normalized}
	if err := batch.SaveAuthor(author); err != nil {
		return nil, err
	}
	return author, nil
}

func applyMember(batch Batch, row records.Row, log *zap.Logger) (outcome, error) {
	rec, err := records.ParseMember(row)
	if err != nil {
		log.Warn("row skipped", zap.Error(err))
		return outcomeSkipped, nil
	}

	// Natural key priority: email when present, else (name, phone).
	var member *models.Member
	if rec.Email != "" {
		if member, err = batch.FindMemberByEmail(rec.Email); err != nil {
			return 0, err
		}
	}
	if member == nil {
		if member, err = batch.FindMemberByNameAndPhone(rec.Name, optional(rec.Phone)); err != nil {
			return 0, err
		}
	}

	if member == nil {
		member = &models.Member{
			Name:  rec.Name,
			Email: optional(rec.Email),
			Phone: optional(rec.Phone),
		}
		return outcomeInserted, batch.SaveMember(member)
	}

	member.Name = rec.Name
	if rec.Phone != "" {
		member.Phone = &rec.Phone
	}
	if rec.Email != "" {
		member.Email = &rec.Email
	}
	return outcomeUpdated, batch.SaveMember(member)
}
