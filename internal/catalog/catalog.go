package catalog

import (
	"fmt"
	"log"
	"os"

	"github.com/goccy/go-json"
	"github.com/yusakuma/feed-service/internal/domain"
)

// Catalog is an immutable, validated snapshot of the video manifest.
type Catalog struct {
	videos []domain.VideoRecord
	byID   map[string]*domain.VideoRecord
}

// Load reads and parses a manifest file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a manifest JSON array. Records failing validation are dropped
// and logged; a parse failure of the array itself is fatal to the batch.
func Parse(data []byte) (*Catalog, error) {
	var raw []domain.VideoRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return New(raw), nil
}

// New validates and adapts a list of records into a catalog.
func New(raw []domain.VideoRecord) *Catalog {
	c := &Catalog{byID: make(map[string]*domain.VideoRecord, len(raw))}
	for _, v := range raw {
		if err := validate(&v); err != nil {
			log.Printf("[catalog] dropping record %q: %v", v.ID, err)
			continue
		}
		if _, dup := c.byID[v.ID]; dup {
			log.Printf("[catalog] dropping record %q: duplicate id", v.ID)
			continue
		}
		adapt(&v)
		c.videos = append(c.videos, v)
		c.byID[v.ID] = nil
	}
	// Index after appending: append may have moved the backing array.
	for i := range c.videos {
		c.byID[c.videos[i].ID] = &c.videos[i]
	}
	return c
}

func validate(v *domain.VideoRecord) error {
	if v.ID == "" {
		return fmt.Errorf("missing id")
	}
	if v.Title == "" {
		return fmt.Errorf("missing title")
	}
	if v.Offer.URL == "" {
		return fmt.Errorf("missing offer url")
	}
	return nil
}

// adapt fills the flat fields from the legacy attributes block: tags from
// attributes when absent, primary category = first genre, else first tag,
// else the fallback constant.
func adapt(v *domain.VideoRecord) {
	attrs := v.Attributes
	if len(v.Tags) == 0 && attrs != nil {
		v.Tags = attrs.Tags
	}
	if v.Category == "" {
		switch {
		case attrs != nil && len(attrs.Genre) > 0:
			v.Category = attrs.Genre[0]
		case len(v.Tags) > 0:
			v.Category = v.Tags[0]
		default:
			v.Category = domain.FallbackCategory
		}
	}
}

// Videos returns the validated records in manifest order. Callers must treat
// the slice as read-only.
func (c *Catalog) Videos() []domain.VideoRecord {
	return c.videos
}

func (c *Catalog) Get(id string) (*domain.VideoRecord, bool) {
	v, ok := c.byID[id]
	return v, ok
}

func (c *Catalog) Len() int {
	return len(c.videos)
}
