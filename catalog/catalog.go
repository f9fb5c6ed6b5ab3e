// Package catalog holds the static material catalog. Items are loaded once
// at process start and never mutated.
package catalog

// DesignKind groups items by the design page they belong to.
type DesignKind string

const (
	DesignInterior  DesignKind = "interior"
	DesignExterior  DesignKind = "exterior"
	DesignAcoustics DesignKind = "acoustics"
)

// MaterialTag categorizes an item for filtering.
type MaterialTag string

const (
	TagACP            MaterialTag = "acp"
	TagWPC            MaterialTag = "wpc"
	TagReflector      MaterialTag = "reflector"
	TagDiffuser       MaterialTag = "diffuser"
	TagSoundproofDoor MaterialTag = "soundproof-door"
)

// Item is a selectable material entry.
type Item struct {
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Design      DesignKind    `json:"design"`
	Tags        []MaterialTag `json:"tags"`
}

var items = []Item{
	{
		Slug:        "interior-wpc-oak",
		Name:        "Interior WPC (Oak)",
		Description: "Warm WPC slats for interior wall paneling.",
		Image:       "/materials/samples/wpc-oak.jpg",
		Design:      DesignInterior,
		Tags:        []MaterialTag{TagWPC},
	},
	{
		Slug:        "exterior-acp-brushed-gold",
		Name:        "Exterior ACP (Brushed Gold)",
		Description: "Premium brushed ACP for trims/facades.",
		Image:       "/materials/samples/acp-brushed-gold.jpg",
		Design:      DesignExterior,
		Tags:        []MaterialTag{TagACP},
	},
	{
		Slug:        "exterior-wpc-cladding-oak",
		Name:        "Exterior WPC Cladding (Oak)",
		Description: "UV-stable WPC boards for exterior walls.",
		Image:       "/materials/samples/wpc-oak.jpg",
		Design:      DesignExterior,
		Tags:        []MaterialTag{TagWPC},
	},
	{
		Slug:        "acp-perforated-reflector-silver",
		Name:        "ACP Perforated Reflector (Silver)",
		Description: "Aluminum composite acoustic reflector panel.",
		Image:       "/materials/samples/acp-perforated-silver.jpg",
		Design:      DesignAcoustics,
		Tags:        []MaterialTag{TagReflector, TagACP},
	},
	{
		Slug:        "wpc-2d-diffuser-oak",
		Name:        "WPC 2D Diffuser (Oak)",
		Description: "2D diffuser slats for better speech clarity.",
		Image:       "/materials/samples/wpc-oak.jpg",
		Design:      DesignAcoustics,
		Tags:        []MaterialTag{TagDiffuser, TagWPC},
	},
	{
		Slug:        "acoustic-soundproof-door-stc35",
		Name:        "Acoustic Soundproof Door (STC 35–40)",
		Description: "Steel acoustic door with perimeter seals.",
		Image:       "/materials/samples/soundproof-door.jpg",
		Design:      DesignAcoustics,
		Tags:        []MaterialTag{TagSoundproofDoor},
	},
}

// All returns every catalog item.
func All() []Item {
	return items
}

// Get returns the item with the given slug, or nil.
func Get(slug string) *Item {
	for i := range items {
		if items[i].Slug == slug {
			return &items[i]
		}
	}
	return nil
}

// ListByAnyTags returns items carrying at least one of the given tags. An
// empty tag list returns the full catalog.
func ListByAnyTags(tags []MaterialTag) []Item {
	if len(tags) == 0 {
		return All()
	}
	set := make(map[MaterialTag]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}

	var result []Item
	for _, item := range items {
		for _, t := range item.Tags {
			if set[t] {
				result = append(result, item)
				break
			}
		}
	}
	return result
}

// ListByDesign returns items for one design kind.
func ListByDesign(kind DesignKind) []Item {
	var result []Item
	for _, item := range items {
		if item.Design == kind {
			result = append(result, item)
		}
	}
	return result
}

// Names maps slugs to display names, skipping unknown slugs.
func Names(slugs []string) []string {
	var result []string
	for _, slug := range slugs {
		if item := Get(slug); item != nil {
			result = append(result, item.Name)
		}
	}
	return result
}
