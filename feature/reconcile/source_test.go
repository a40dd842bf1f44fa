package reconcile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"library-ingest/core/storage/mocks"
	"library-ingest/feature/records"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func readAll(t *testing.T, r RowReader) []records.Row {
	t.Helper()
	var rows []records.Row
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "libraries.csv",
		"name,email,phone\nCentral,central@example.org,555 0001\nEastside,,\n")

	source := NewDirSource(dir)

	t.Run("maps header columns", func(t *testing.T) {
		reader, err := source.Open(context.Background(), "libraries.csv")
		require.NoError(t, err)
		defer reader.Close()

		rows := readAll(t, reader)
		require.Len(t, rows, 2)
		assert.Equal(t, "Central", rows[0]["name"])
		assert.Equal(t, "central@example.org", rows[0]["email"])
		assert.Equal(t, "", rows[1]["email"])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := source.Open(context.Background(), "authors.csv")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}

func TestCSVRowReaderShortRows(t *testing.T) {
	body := "name,email,phone\nCentral,central@example.org\n"
	reader, err := newCSVRowReader(io.NopCloser(strings.NewReader(body)))
	require.NoError(t, err)
	defer reader.Close()

	rows := readAll(t, reader)
	require.Len(t, rows, 1)
	// A short row still carries every header column, trailing ones empty.
	assert.Equal(t, "Central", rows[0]["name"])
	assert.Equal(t, "", rows[0]["phone"])
	assert.Len(t, rows[0], 3)
}

func TestCSVRowReaderEmptyFile(t *testing.T) {
	reader, err := newCSVRowReader(io.NopCloser(strings.NewReader("")))
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestBucketSource(t *testing.T) {
	t.Run("reads object under prefix", func(t *testing.T) {
		client := new(mocks.Client)
		body := io.NopCloser(strings.NewReader("name\nCentral\n"))
		client.On("GetObject", mock.Anything, "ingest-drops", "daily/libraries.csv", mock.Anything).
			Return(body, nil)

		source := NewBucketSource(client, "ingest-drops", "daily")
		reader, err := source.Open(context.Background(), "libraries.csv")
		require.NoError(t, err)
		defer reader.Close()

		rows := readAll(t, reader)
		require.Len(t, rows, 1)
		assert.Equal(t, "Central", rows[0]["name"])
		client.AssertExpectations(t)
	})

	t.Run("missing object", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "ingest-drops", "libraries.csv", mock.Anything).
			Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

		source := NewBucketSource(client, "ingest-drops", "")
		_, err := source.Open(context.Background(), "libraries.csv")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}
