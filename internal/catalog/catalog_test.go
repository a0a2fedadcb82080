package catalog

import (
	"testing"

	"github.com/yusakuma/feed-service/internal/domain"
)

func TestParseDropsInvalidRecords(t *testing.T) {
	manifest := []byte(`[
		{"id": "v1", "type": "dmm_iframe", "title": "First", "offer": {"name": "A", "url": "https://example.com/1"}},
		{"id": "", "type": "dmm_iframe", "title": "No ID", "offer": {"name": "A", "url": "https://example.com/2"}},
		{"id": "v3", "type": "dmm_iframe", "title": "No offer", "offer": {"name": "A", "url": ""}},
		{"id": "v4", "type": "dmm_iframe", "title": "", "offer": {"name": "A", "url": "https://example.com/4"}},
		{"id": "v5", "type": "duga", "title": "Last", "offer": {"name": "B", "url": "https://example.com/5"}}
	]`)

	cat, err := Parse(manifest)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cat.Len() != 2 {
		t.Errorf("expected 2 valid records, got %d", cat.Len())
	}
	if _, ok := cat.Get("v1"); !ok {
		t.Error("v1 should survive validation")
	}
	if _, ok := cat.Get("v3"); ok {
		t.Error("v3 has no offer url and should be dropped")
	}
}

func TestParseMalformedManifest(t *testing.T) {
	if _, err := Parse([]byte(`{"not": "an array"}`)); err == nil {
		t.Error("expected error for non-array manifest")
	}
}

func TestDuplicateIDsDropped(t *testing.T) {
	cat := New([]domain.VideoRecord{
		{ID: "v1", Title: "First", Offer: domain.Offer{URL: "https://example.com/1"}},
		{ID: "v1", Title: "Duplicate", Offer: domain.Offer{URL: "https://example.com/1b"}},
	})

	if cat.Len() != 1 {
		t.Fatalf("expected 1 record after dedupe, got %d", cat.Len())
	}
	v, _ := cat.Get("v1")
	if v.Title != "First" {
		t.Errorf("first occurrence should win, got %q", v.Title)
	}
}

func TestPrimaryCategoryRule(t *testing.T) {
	cat := New([]domain.VideoRecord{
		{
			ID: "with-genre", Title: "t", Offer: domain.Offer{URL: "u"},
			Attributes: &domain.Attributes{Genre: []string{"drama", "other"}, Tags: []string{"tag1"}},
		},
		{
			ID: "tags-only", Title: "t", Offer: domain.Offer{URL: "u"},
			Attributes: &domain.Attributes{Tags: []string{"pov", "amateur"}},
		},
		{ID: "bare", Title: "t", Offer: domain.Offer{URL: "u"}},
	})

	cases := map[string]string{
		"with-genre": "drama",
		"tags-only":  "pov",
		"bare":       domain.FallbackCategory,
	}
	for id, want := range cases {
		v, ok := cat.Get(id)
		if !ok {
			t.Fatalf("record %s missing", id)
		}
		if v.Category != want {
			t.Errorf("record %s: expected category %q, got %q", id, want, v.Category)
		}
	}
}

func TestTagsAdoptedFromAttributes(t *testing.T) {
	cat := New([]domain.VideoRecord{
		{
			ID: "v1", Title: "t", Offer: domain.Offer{URL: "u"},
			Attributes: &domain.Attributes{Tags: []string{"a", "b"}},
		},
	})

	v, _ := cat.Get("v1")
	if len(v.Tags) != 2 {
		t.Errorf("expected tags lifted from attributes, got %v", v.Tags)
	}
}
