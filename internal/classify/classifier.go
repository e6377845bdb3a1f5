// Package classify assigns jams a category from keyword rules.
package classify

import (
	"strings"

	"github.com/jamscout/jamscout/internal/jam"
)

// Classifier applies case-insensitive keyword rules to a jam's page text.
// Tabletop keywords match only the description; digital keywords match
// the description or the jam name.
type Classifier struct {
	tabletop []string
	digital  []string
}

// New builds a Classifier. Terms are matched lowercase; empty terms are
// dropped.
func New(k Keywords) *Classifier {
	return &Classifier{
		tabletop: normalizeTerms(k.Tabletop),
		digital:  normalizeTerms(k.Digital),
	}
}

// Classify decides the category for a jam. A non-Unclassified existing
// category always wins, so earlier manual classifications survive
// recrawls.
func (c *Classifier) Classify(description, name string, existing jam.Category) jam.Category {
	if existing != jam.CategoryUnclassified {
		return existing
	}
	desc := strings.ToLower(description)
	for _, term := range c.tabletop {
		if strings.Contains(desc, term) {
			return jam.CategoryTabletop
		}
	}
	lowerName := strings.ToLower(name)
	for _, term := range c.digital {
		if strings.Contains(desc, term) || strings.Contains(lowerName, term) {
			return jam.CategoryDigital
		}
	}
	return jam.CategoryUnclassified
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
