package models

import "time"

// Library is a library branch reconciled from libraries.csv.
// Email, when present, is the primary natural key; name is the fallback.
type Library struct {
	ID    uint    `gorm:"primaryKey"`
	Name  string  `gorm:"size:200;not null;index"`
	Email *string `gorm:"size:255;uniqueIndex"`
	Phone *string `gorm:"size:32"`
}

// Author deduplicates on the (normalized_name, birth_date) pair, which is
// enforced unique. BirthDate is nil for placeholder authors created through
// book ingestion.
type Author struct {
	ID             uint       `gorm:"primaryKey"`
	Name           string     `gorm:"size:200;not null"`
	NormalizedName string     `gorm:"size:200;not null;index;uniqueIndex:uq_author_identity"`
	BirthDate      *time.Time `gorm:"uniqueIndex:uq_author_identity"`
	Books          []Book
}

// Book deduplicates on ISBN when present, else on the (title, author) pair.
type Book struct {
	ID            uint    `gorm:"primaryKey"`
	Title         string  `gorm:"size:300;not null;index"`
	ISBN          *string `gorm:"size:20;uniqueIndex"`
	PublishedDate *time.Time
	AuthorID      *uint
	Author        *Author
}

// Member deduplicates on email when present, else on the (name, phone) pair.
type Member struct {
	ID    uint    `gorm:"primaryKey"`
	Name  string  `gorm:"size:200;not null;index"`
	Email *string `gorm:"size:255;uniqueIndex"`
	Phone *string `gorm:"size:32"`
}

// CatalogBook is a work ingested from the Open Library API. WorkKey is the
// sole natural key; duplicates are skipped, never updated. Raw retains the
// original payload for audit.
type CatalogBook struct {
	ID               uint   `gorm:"primaryKey"`
	WorkKey          string `gorm:"size:64;not null;uniqueIndex"`
	Title            string `gorm:"size:1000;not null"`
	Authors          string `gorm:"size:1000"`
	FirstPublishDate string `gorm:"size:50"`
	Subjects         string `gorm:"type:text"`
	Description      string `gorm:"type:text"`
	Raw              string `gorm:"type:text"`
	CreatedAt        time.Time
}

// All returns every model for schema auto-migration.
func All() []any {
	return []any{&Library{}, &Author{}, &Book{}, &Member{}, &CatalogBook{}}
}
