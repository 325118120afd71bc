package location

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Category is one entry of the POI catalog.
type Category struct {
	Name     string `yaml:"name"`
	Label    string `yaml:"label"`
	Category string `yaml:"category"`
	Icon     string `yaml:"icon"`
}

// Catalog resolves OSM names and group labels to display metadata.
type Catalog struct {
	byName  map[string]Category
	byLabel map[string]Category
	ordered []Category
}

// ParseCatalog reads a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		byName:  make(map[string]Category, len(doc.Categories)),
		byLabel: make(map[string]Category, len(doc.Categories)),
	}
	for _, entry := range doc.Categories {
		if entry.Name == "" || entry.Label == "" {
			return nil, fmt.Errorf("parse catalog: entry %q has no name or label", entry.Name)
		}
		c.byName[entry.Name] = entry
		c.byLabel[entry.Label] = entry
		c.ordered = append(c.ordered, entry)
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// Lookup finds a category by OSM name.
func (c *Catalog) Lookup(name string) (Category, bool) {
	entry, ok := c.byName[strings.TrimSpace(name)]
	return entry, ok
}

// LabelFor returns the group label for an entity: its own label, the catalog
// label for its OSM name, or the raw name.
func (c *Catalog) LabelFor(entity OsmEntity) string {
	if label := strings.TrimSpace(entity.Label); label != "" {
		return label
	}
	if entry, ok := c.Lookup(entity.Name); ok {
		return entry.Label
	}
	return entity.Name
}

// IconForLabel returns the icon of a group label. The second value is false
// when the label has no icon; such groups are left out of legends.
func (c *Catalog) IconForLabel(label string) (string, bool) {
	entry, ok := c.byLabel[label]
	if !ok || entry.Icon == "" {
		return "", false
	}
	return entry.Icon, true
}

// Icons returns a label to icon map for every catalog entry with an icon.
func (c *Catalog) Icons() map[string]string {
	icons := make(map[string]string, len(c.ordered))
	for _, entry := range c.ordered {
		if entry.Icon != "" {
			icons[entry.Label] = entry.Icon
		}
	}
	return icons
}
