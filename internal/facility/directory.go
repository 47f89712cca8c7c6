// =============================================================================
// Scorecard Import - Facility Directory
// =============================================================================
//
// The directory is the list of valid facilities a scorecard may be filed
// under. Scorecards only carry a free-text facility name, so every card is
// resolved against the directory with a fuzzy name match. The best match and
// its score are reported; the caller decides whether the score is good enough.
//
// SOURCES:
//   - CSV  (id, name, aliases)           see loader.go
//   - YAML (facilities: [{id, name}])    see loader.go
//
// =============================================================================

package facility

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
)

// Facility is one valid facility.
type Facility struct {
	ID      string   `json:"id" yaml:"id" validate:"required"`
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Directory is an immutable, ID-indexed facility list.
type Directory struct {
	facilities []Facility
	byID       map[string]int
	normalized [][]string
}

// NewDirectory validates the facilities and builds the lookup indexes.
// Facility IDs must be unique.
func NewDirectory(facilities []Facility) (*Directory, error) {
	d := &Directory{
		facilities: make([]Facility, 0, len(facilities)),
		byID:       make(map[string]int, len(facilities)),
		normalized: make([][]string, 0, len(facilities)),
	}

	for i, f := range facilities {
		f.ID = strings.TrimSpace(f.ID)
		f.Name = strings.TrimSpace(f.Name)
		if err := scorecard.Validator().Struct(f); err != nil {
			return nil, eris.Wrapf(err, "facility: entry %d", i+1)
		}
		if _, dup := d.byID[f.ID]; dup {
			return nil, eris.Errorf("facility: duplicate id %q", f.ID)
		}

		names := []string{NormalizeName(f.Name)}
		for _, alias := range f.Aliases {
			if n := NormalizeName(alias); n != "" {
				names = append(names, n)
			}
		}

		d.byID[f.ID] = len(d.facilities)
		d.facilities = append(d.facilities, f)
		d.normalized = append(d.normalized, names)
	}

	return d, nil
}

// Len returns the number of facilities.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.facilities)
}

// All returns a copy of the facilities in load order.
func (d *Directory) All() []Facility {
	if d == nil {
		return nil
	}
	out := make([]Facility, len(d.facilities))
	copy(out, d.facilities)
	return out
}

// Names returns the facility display names sorted alphabetically.
func (d *Directory) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.facilities))
	for i, f := range d.facilities {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}

// Lookup returns the facility with the given ID.
func (d *Directory) Lookup(id string) (Facility, bool) {
	if d == nil {
		return Facility{}, false
	}
	i, ok := d.byID[strings.TrimSpace(id)]
	if !ok {
		return Facility{}, false
	}
	return d.facilities[i], true
}
