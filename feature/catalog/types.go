package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AuthorSearchResult is a single document from the author search endpoint.
type AuthorSearchResult struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	TopWork   string `json:"top_work"`
	WorkCount int    `json:"work_count"`
}

// AuthorSearchResponse is the author search endpoint payload.
type AuthorSearchResponse struct {
	NumFound int                  `json:"numFound"`
	Docs     []AuthorSearchResult `json:"docs"`
}

// WorkEntry is a single work in an author's works listing.
type WorkEntry struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// WorkList is the author works endpoint payload.
type WorkList struct {
	Size    int         `json:"size"`
	Entries []WorkEntry `json:"entries"`
}

// Description is a work description coerced to text. The API returns either a
// bare JSON string or an object of the form {"type": ..., "value": "..."}.
type Description string

func (d *Description) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = Description(s)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		*d = Description(obj.Value)
		return nil
	}
	// Unknown shape: keep the raw JSON text rather than failing the record.
	*d = Description(string(b))
	return nil
}

// WorkAuthorRef is an author reference inside a work detail payload.
type WorkAuthorRef struct {
	Author struct {
		Key string `json:"key"`
	} `json:"author"`
}

// WorkDetail is the parsed work detail payload.
type WorkDetail struct {
	Key              string          `json:"key"`
	Title            string          `json:"title"`
	Description      Description     `json:"description"`
	Subjects         []string        `json:"subjects"`
	FirstPublishDate string          `json:"first_publish_date"`
	Covers           []int           `json:"covers"`
	Authors          []WorkAuthorRef `json:"authors"`
}

// ParseWorkDetail strictly parses a work detail payload. Key and title are
// required; anything else degrades to zero values.
func ParseWorkDetail(raw json.RawMessage) (*WorkDetail, error) {
	var detail WorkDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("decoding work detail: %w", err)
	}
	if detail.Key == "" {
		return nil, fmt.Errorf("work detail missing key")
	}
	if detail.Title == "" {
		return nil, fmt.Errorf("work detail missing title")
	}
	return &detail, nil
}

// LenientWorkDetail builds a minimal detail from whatever key and title can be
// salvaged from the payload. It is the explicit fallback path for records that
// fail strict parsing; the raw payload is retained separately for audit.
func LenientWorkDetail(raw json.RawMessage) *WorkDetail {
	var loose map[string]any
	_ = json.Unmarshal(raw, &loose)

	detail := &WorkDetail{Title: "Untitled"}
	if key, ok := loose["key"].(string); ok {
		detail.Key = key
	}
	if title, ok := loose["title"].(string); ok && title != "" {
		detail.Title = title
	}
	return detail
}

// FlattenAuthors extracts author reference keys from a raw work detail
// payload and joins them into a single display string.
func FlattenAuthors(raw json.RawMessage) string {
	var payload struct {
		Authors []WorkAuthorRef `json:"authors"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	keys := make([]string, 0, len(payload.Authors))
	for _, ref := range payload.Authors {
		keys = append(keys, ref.Author.Key)
	}
	return strings.Join(keys, ", ")
}
