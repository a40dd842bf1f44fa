package reconcile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"library-ingest/core/storage"
	"library-ingest/feature/records"

	"github.com/minio/minio-go/v7"
)

// ErrFileNotFound marks a missing input file. The engine logs it and moves on
// to the next entity type; it is not an error for a CSV drop to be partial.
var ErrFileNotFound = errors.New("input file not found")

// RowReader iterates the rows of a single CSV input. Next returns io.EOF when
// the input is exhausted.
type RowReader interface {
	Next() (records.Row, error)
	Close() error
}

// RowSource opens named CSV inputs. Implementations exist for a local
// directory and for an object-storage bucket.
type RowSource interface {
	Open(ctx context.Context, name string) (RowReader, error)
}

// DirSource reads CSV files from a local directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over a local directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Open(_ context.Context, name string) (RowReader, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, err
	}
	return newCSVRowReader(f)
}

// BucketSource reads CSV drops from an object-storage bucket.
type BucketSource struct {
	client storage.Client
	bucket string
	prefix string
}

// NewBucketSource creates a source over a bucket, optionally under a prefix.
func NewBucketSource(client storage.Client, bucket, prefix string) *BucketSource {
	return &BucketSource{client: client, bucket: bucket, prefix: prefix}
}

func (s *BucketSource) Open(ctx context.Context, name string) (RowReader, error) {
	objectName := name
	if s.prefix != "" {
		objectName = path.Join(s.prefix, name)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, objectName)
		}
		return nil, err
	}
	reader, err := newCSVRowReader(obj)
	if err != nil {
		// Minio defers missing-object errors until the first read.
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, objectName)
		}
		return nil, err
	}
	return reader, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// csvRowReader maps CSV records onto header column names. Ragged rows are
// tolerated: short rows leave trailing columns empty.
type csvRowReader struct {
	closer io.Closer
	reader *csv.Reader
	header []string
}

func newCSVRowReader(rc io.ReadCloser) (*csvRowReader, error) {
	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		// Empty file: valid, yields no rows.
		header = nil
	} else if err != nil {
		rc.Close()
		return nil, err
	}
	return &csvRowReader{closer: rc, reader: r, header: header}, nil
}

func (r *csvRowReader) Next() (records.Row, error) {
	if r.header == nil {
		return nil, io.EOF
	}
	rec, err := r.reader.Read()
	if err != nil {
		return nil, err
	}
	row := make(records.Row, len(r.header))
	for i, col := range r.header {
		if i < len(rec) {
			row[col] = rec[i]
		} else {
			row[col] = ""
		}
	}
	return row, nil
}

func (r *csvRowReader) Close() error {
	return r.closer.Close()
}
