package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Row is a single raw input record, keyed by CSV header column name.
type Row map[string]string

var validate = validator.New()

// validEmail reports whether s is a syntactically valid email address.
func validEmail(s string) bool {
	return validate.Var(s, "email") == nil
}

// LibraryRecord is a validated, normalized library row.
type LibraryRecord struct {
	Name  string
	Email string
	Phone string
}

// AuthorRecord is a validated, normalized author row. BirthDate is nil when
// the input was blank or unparseable.
type AuthorRecord struct {
	Name      string
	BirthDate *time.Time
}

// BookRecord is a validated, normalized book row. ISBN is already cleaned and
// checksum-verified when present.
type BookRecord struct {
	Title         string
	ISBN          string
	AuthorName    string
	PublishedDate *time.Time
}

// MemberRecord is a validated, normalized member row.
type MemberRecord struct {
	Name  string
	Email string
	Phone string
}

// ParseLibrary validates and normalizes a raw library row. A nil error means
// the record is safe to persist; a non-nil error is the rejection reason.
func ParseLibrary(row Row) (*LibraryRecord, error) {
	name := NormalizeName(row["name"])
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	email := strings.TrimSpace(row["email"])
	if email != "" && !validEmail(email) {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	return &LibraryRecord{
		Name:  name,
		Email: email,
		Phone: NormalizePhone(row["phone"]),
	}, nil
}

// ParseAuthor validates and normalizes a raw author row. An unparseable birth
// date degrades to nil rather than rejecting the record.
func ParseAuthor(row Row) (*AuthorRecord, error) {
	name := NormalizeName(row["name"])
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	return &AuthorRecord{
		Name:      name,
		BirthDate: ParseDate(row["birth_date"]),
	}, nil
}

// ParseBook validates and normalizes a raw book row. A missing ISBN is fine;
// a present ISBN that fails both checksums rejects the whole record.
func ParseBook(row Row) (*BookRecord, error) {
	title := strings.Join(strings.Fields(row["title"]), " ")
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	isbn := ""
	if raw := strings.TrimSpace(row["isbn"]); raw != "" {
		clean := CleanISBN(raw)
		switch {
		case len(clean) == 10 && IsValidISBN10(clean):
			isbn = clean
		case len(clean) == 13 && IsValidISBN13(clean):
			isbn = clean
		default:
			return nil, fmt.Errorf("invalid ISBN %q", raw)
		}
	}

	return &BookRecord{
		Title:         title,
		ISBN:          isbn,
		AuthorName:    NormalizeName(row["author_name"]),
		PublishedDate: ParseDate(row["published_date"]),
	}, nil
}

// ParseMember validates and normalizes a raw member row.
func ParseMember(row Row) (*MemberRecord, error) {
	name := NormalizeName(row["name"])
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	email := strings.TrimSpace(row["email"])
	if email != "" && !validEmail(email) {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	return &MemberRecord{
		Name:  name,
		Email: email,
		Phone: NormalizePhone(row["phone"]),
	}, nil
}

// AuthorKey is the natural key an author deduplicates on.
type AuthorKey struct {
	NormalizedName string
	BirthDate      *time.Time
}

// DeriveAuthorKey computes the author natural key from a parsed record.
// The key derivation uses the same normalization the validator applied, so a
// record always matches the stored entity it produced.
func DeriveAuthorKey(rec *AuthorRecord) AuthorKey {
	return AuthorKey{
		NormalizedName: NormalizeName(rec.Name),
		BirthDate:      rec.BirthDate,
	}
}
