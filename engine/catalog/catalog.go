package catalog

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Category is the fixed garment category enumeration. It drives the overlay
// placement rules in the scene package.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryTops
	CategoryBottoms
	CategoryDresses
	CategoryOuterwear
	CategoryAccessories
)

var categoryNames = map[Category]string{
	CategoryTops:        "tops",
	CategoryBottoms:     "bottoms",
	CategoryDresses:     "dresses",
	CategoryOuterwear:   "outerwear",
	CategoryAccessories: "accessories",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c *Category) UnmarshalText(text []byte) error {
	for cat, name := range categoryNames {
		if name == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown garment category %q", string(text))
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Swatch is one selectable color: a display name plus a hex color value.
type Swatch struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

// GarmentDescriptor is a static catalog entry. Read-only once loaded.
type GarmentDescriptor struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	Category     Category `toml:"category"`
	Brand        string   `toml:"brand"`
	Price        float64  `toml:"price"`
	OverlayImage string   `toml:"overlay_image"`
	Thumbnail    string   `toml:"thumbnail"`
	Style        string   `toml:"style"`
	Description  string   `toml:"description"`
	Tags         []string `toml:"tags"`
	Swatches     []Swatch `toml:"swatches"`
	Sizes        []string `toml:"sizes"`
}

type catalogFile struct {
	Garments []GarmentDescriptor `toml:"garment"`
}

// Catalog is an ordered, validated set of garment descriptors.
type Catalog struct {
	mu       sync.RWMutex
	garments []GarmentDescriptor
	byID     map[string]int
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Load reads and validates a catalog TOML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw catalog TOML.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]int)}
	for i, g := range file.Garments {
		if err := validateGarment(&g); err != nil {
			return nil, fmt.Errorf("garment %d (%s): %w", i, g.ID, err)
		}
		if _, exists := c.byID[g.ID]; exists {
			return nil, fmt.Errorf("duplicate garment id %q", g.ID)
		}
		c.byID[g.ID] = len(c.garments)
		c.garments = append(c.garments, g)
	}
	return c, nil
}

func validateGarment(g *GarmentDescriptor) error {
	if g.ID == "" {
		return fmt.Errorf("missing id")
	}
	if g.Name == "" {
		return fmt.Errorf("missing name")
	}
	if g.Category == CategoryUnknown {
		return fmt.Errorf("missing category")
	}
	if g.Price < 0 {
		return fmt.Errorf("negative price %f", g.Price)
	}
	for _, s := range g.Swatches {
		if !hexColorPattern.MatchString(s.Value) {
			return fmt.Errorf("swatch %q has malformed color %q", s.Name, s.Value)
		}
	}
	return nil
}

// Get returns the descriptor for the given id.
func (c *Catalog) Get(id string) (GarmentDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[id]
	if !ok {
		return GarmentDescriptor{}, false
	}
	return c.garments[idx], true
}

// List returns the descriptors in catalog order.
func (c *Catalog) List() []GarmentDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]GarmentDescriptor, len(c.garments))
	copy(out, c.garments)
	return out
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.garments)
}

// replace swaps the catalog contents. Used by the watcher on reload.
func (c *Catalog) replace(other *Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.garments = other.garments
	c.byID = other.byID
}
