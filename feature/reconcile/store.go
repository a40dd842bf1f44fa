package reconcile

import (
	"context"
	"errors"
	"time"

	"library-ingest/feature/reconcile/models"

	"gorm.io/gorm"
)

// Store hands out per-entity-type batches. Each batch wraps one transaction;
// the engine commits a batch after an entity type completes cleanly and rolls
// it back on a fatal store error.
type Store interface {
	Begin(ctx context.Context) (Batch, error)
}

// Batch exposes the persistence primitives the reconciliation engine needs:
// exact-match lookups by natural key fields, upsert-style saves, and
// commit/rollback. Finders return (nil, nil) when no entity matches.
type Batch interface {
	FindLibraryByEmail(email string) (*models.Library, error)
	FindLibraryByName(name string) (*models.Library, error)
	SaveLibrary(lib *models.Library) error

	FindAuthor(normalizedName string, birthDate *time.Time) (*models.Author, error)
	SaveAuthor(author *models.Author) error

	FindBookByISBN(isbn string) (*models.Book, error)
	FindBookByTitleAndAuthor(title string, authorID uint) (*models.Book, error)
	SaveBook(book *models.Book) error

	FindMemberByEmail(email string) (*models.Member, error)
	FindMemberByNameAndPhone(name string, phone *string) (*models.Member, error)
	SaveMember(member *models.Member) error

	FindCatalogBookByWorkKey(workKey string) (*models.CatalogBook, error)
	SaveCatalogBook(book *models.CatalogBook) error

	Commit() error
	Rollback() error
}

// GormStore is the gorm-backed Store implementation.
type GormStore struct {
	db *gorm.DB
}

// NewStore wraps an established gorm connection. The connection is an
// explicit dependency; nothing in this package dials the database itself.
func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Begin(ctx context.Context) (Batch, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormBatch{tx: tx}, nil
}

type gormBatch struct {
	tx *gorm.DB
}

// first runs a query and maps gorm's not-found error to an absent result.
func first[T any](tx *gorm.DB) (*T, error) {
	var out T
	err := tx.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *gormBatch) FindLibraryByEmail(email string) (*models.Library, error) {
	return first[models.Library](b.tx.Where("email = ?", email))
}

func (b *gormBatch) FindLibraryByName(name string) (*models.Library, error) {
	return first[models.Library](b.tx.Where("name = ?", name))
}

func (b *gormBatch) SaveLibrary(lib *models.Library) error {
	return b.tx.Save(lib).Error
}

func (b *gormBatch) FindAuthor(normalizedName string, birthDate *time.Time) (*models.Author, error) {
	tx := b.tx.Where("normalized_name = ?", normalizedName)
	if birthDate == nil {
		tx = tx.Where("birth_date IS NULL")
	} else {
		tx = tx.Where("birth_date = ?", *birthDate)
	}
	return first[models.Author](tx)
}

func (b *gormBatch) SaveAuthor(author *models.Author) error {
	return b.tx.Save(author).Error
}

func (b *gormBatch) FindBookByISBN(isbn string) (*models.Book, error) {
	return first[models.Book](b.tx.Where("isbn = ?", isbn))
}

func (b *gormBatch) FindBookByTitleAndAuthor(title string, authorID uint) (*models.Book, error) {
	return first[models.Book](b.tx.Where("title = ? AND author_id = ?", title, authorID))
}

func (b *gormBatch) SaveBook(book *models.Book) error {
	return b.tx.Save(book).Error
}

func (b *gormBatch) FindMemberByEmail(email string) (*models.Member, error) {
	return first[models.Member](b.tx.Where("email = ?", email))
}

func (b *gormBatch) FindMemberByNameAndPhone(name string, phone *string) (*models.Member, error) {
	tx := b.tx.Where("name = ?", name)
	if phone == nil {
		tx = tx.Where("phone IS NULL")
	} else {
		tx = tx.Where("phone = ?", *phone)
	}
	return first[models.Member](tx)
}

func (b *gormBatch) SaveMember(member *models.Member) error {
	return b.tx.Save(member).Error
}

func (b *gormBatch) FindCatalogBookByWorkKey(workKey string) (*models.CatalogBook, error) {
	return first[models.CatalogBook](b.tx.Where("work_key = ?", workKey))
}

func (b *gormBatch) SaveCatalogBook(book *models.CatalogBook) error {
	return b.tx.Save(book).Error
}

func (b *gormBatch) Commit() error {
	return b.tx.Commit().Error
}

func (b *gormBatch) Rollback() error {
	return b.tx.Rollback().Error
}
