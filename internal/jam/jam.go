// Package jam defines the domain model shared by the crawler, the store,
// and the CLI: the jam record itself, its owners, and the category a jam
// is classified into.
package jam

import (
	"fmt"
	"strings"
	"time"
)

// SiteURL is the base URL of the site jams are hosted on.
const SiteURL = "https://itch.io"

// Category is the classification of a jam.
type Category int

const (
	// CategoryUnclassified marks a jam no keyword rule or human has
	// categorized yet.
	CategoryUnclassified Category = iota
	// CategoryTabletop marks a jam for analog games.
	CategoryTabletop
	// CategoryDigital marks a jam for video games.
	CategoryDigital
)

// String returns the lowercase name of the category.
func (c Category) String() string {
	switch c {
	case CategoryUnclassified:
		return "unclassified"
	case CategoryTabletop:
		return "tabletop"
	case CategoryDigital:
		return "digital"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryUnclassified, CategoryTabletop, CategoryDigital:
		return true
	}
	return false
}

// ParseCategory converts a user-supplied name into a Category. Matching is
// case-insensitive and accepts "ttrpg" as an input alias for tabletop;
// String never produces the alias.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unclassified":
		return CategoryUnclassified, nil
	case "tabletop", "ttrpg":
		return CategoryTabletop, nil
	case "digital":
		return CategoryDigital, nil
	default:
		return CategoryUnclassified, fmt.Errorf("unknown category %q", s)
	}
}

// Owner is an itch.io account hosting one or more jams. ID is the
// account's itch.io subdomain; Name is the display name shown on the jam
// page at crawl time.
type Owner struct {
	ID   string
	Name string
}

// Jam is one crawled game jam.
type Jam struct {
	// ID is the trailing segment of the jam's /jam/<id> URL.
	ID string
	// Name is the jam title.
	Name string
	// Start is the UTC instant the jam opens.
	Start time.Time
	// DurationDays is the whole number of days the jam runs for.
	DurationDays int
	// Category is the current classification.
	Category Category
	// Hashtag is the social hashtag announced on the jam page, if any.
	Hashtag string
	// Description is the raw HTML of the jam's description block.
	Description string
	// Owners are the accounts hosting the jam, at least one.
	Owners []Owner
}

// New builds a validated Jam with CategoryUnclassified. Start is
// normalized to UTC and owners are deduplicated by ID, keeping the last
// name seen for a repeated ID.
func New(id, name string, start time.Time, durationDays int, owners []Owner) (*Jam, error) {
	j := &Jam{
		ID:           strings.TrimSpace(id),
		Name:         strings.TrimSpace(name),
		Start:        start.UTC(),
		DurationDays: durationDays,
		Category:     CategoryUnclassified,
		Owners:       dedupeOwners(owners),
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// Validate checks the invariants every stored jam must hold.
func (j *Jam) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("jam ID is required")
	}
	if j.Name == "" {
		return fmt.Errorf("jam %s: name is required", j.ID)
	}
	if j.Start.IsZero() {
		return fmt.Errorf("jam %s: start time is required", j.ID)
	}
	if j.DurationDays < 0 {
		return fmt.Errorf("jam %s: negative duration %d", j.ID, j.DurationDays)
	}
	if !j.Category.Valid() {
		return fmt.Errorf("jam %s: invalid category %d", j.ID, int(j.Category))
	}
	if len(j.Owners) == 0 {
		return fmt.Errorf("jam %s: at least one owner is required", j.ID)
	}
	for _, o := range j.Owners {
		if o.ID == "" {
			return fmt.Errorf("jam %s: owner with empty ID", j.ID)
		}
	}
	return nil
}

// End returns the UTC instant the jam closes, derived from Start and
// DurationDays. Sub-day remainders of the original schedule are not
// stored, so End is accurate to the day.
func (j *Jam) End() time.Time {
	return j.Start.AddDate(0, 0, j.DurationDays)
}

// URL returns the jam's page on the live site.
func (j *Jam) URL() string {
	return SiteURL + "/jam/" + j.ID
}

func dedupeOwners(owners []Owner) []Owner {
	if len(owners) == 0 {
		return nil
	}
	idx := make(map[string]int, len(owners))
	out := make([]Owner, 0, len(owners))
	for _, o := range owners {
		o.ID = strings.TrimSpace(o.ID)
		o.Name = strings.TrimSpace(o.Name)
		if i, ok := idx[o.ID]; ok {
			out[i].Name = o.Name
			continue
		}
		idx[o.ID] = len(out)
		out = append(out, o)
	}
	return out
}
