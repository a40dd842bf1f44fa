package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptionCoercion(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{"bare string", `{"description":"A fine novel."}`, "A fine novel."},
		{"typed object", `{"description":{"type":"/type/text","value":"A fine novel."}}`, "A fine novel."},
		{"missing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var detail WorkDetail
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &detail))
			assert.Equal(t, tt.expected, string(detail.Description))
		})
	}
}

func TestParseWorkDetail(t *testing.T) {
	t.Run("complete payload", func(t *testing.T) {
		raw := json.RawMessage(`{
			"key": "/works/OL45883W",
			"title": "Great Expectations",
			"description": {"type": "/type/text", "value": "An orphan's rise."},
			"subjects": ["Fiction", "Orphans"],
			"first_publish_date": "1861",
			"covers": [1234]
		}`)
		detail, err := ParseWorkDetail(raw)
		require.NoError(t, err)
		assert.Equal(t, "/works/OL45883W", detail.Key)
		assert.Equal(t, "Great Expectations", detail.Title)
		assert.Equal(t, "An orphan's rise.", string(detail.Description))
		assert.Equal(t, []string{"Fiction", "Orphans"}, detail.Subjects)
		assert.Equal(t, "1861", detail.FirstPublishDate)
	})

	t.Run("missing title fails strict parse", func(t *testing.T) {
		_, err := ParseWorkDetail(json.RawMessage(`{"key": "/works/OL45883W"}`))
		assert.ErrorContains(t, err, "missing title")
	})

	t.Run("missing key fails strict parse", func(t *testing.T) {
		_, err := ParseWorkDetail(json.RawMessage(`{"title": "Nameless"}`))
		assert.ErrorContains(t, err, "missing key")
	})
}

func TestLenientWorkDetail(t *testing.T) {
	t.Run("salvages key and title", func(t *testing.T) {
		detail := LenientWorkDetail(json.RawMessage(`{"key": "/works/OL1W", "title": "Partial", "subjects": "not-a-list"}`))
		assert.Equal(t, "/works/OL1W", detail.Key)
		assert.Equal(t, "Partial", detail.Title)
	})

	t.Run("defaults title", func(t *testing.T) {
		detail := LenientWorkDetail(json.RawMessage(`{"key": "/works/OL1W"}`))
		assert.Equal(t, "Untitled", detail.Title)
	})
}

func TestFlattenAuthors(t *testing.T) {
	raw := json.RawMessage(`{"authors": [
		{"author": {"key": "/authors/OL1A"}},
		{"author": {"key": "/authors/OL2A"}}
	]}`)
	assert.Equal(t, "/authors/OL1A, /authors/OL2A", FlattenAuthors(raw))
	assert.Equal(t, "", FlattenAuthors(json.RawMessage(`{}`)))
}
