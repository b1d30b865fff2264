// Package tilelayer holds the base map providers the map can be drawn over.
package tilelayer

import (
	_ "embed"
	"errors"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed layers.yaml
var defaultLayers []byte

// Layer is one tile provider.
type Layer struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Attribution string `yaml:"attribution"`
	Subdomains  string `yaml:"subdomains,omitempty"`
	MaxZoom     int    `yaml:"max_zoom,omitempty"`
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PlainAttribution returns the attribution with markup removed, for
// terminal output.
func (l Layer) PlainAttribution() string {
	s := html.UnescapeString(tagPattern.ReplaceAllString(l.Attribution, ""))
	return strings.Join(strings.Fields(s), " ")
}

// Catalog is an ordered, non-empty list of layers with unique names.
type Catalog struct {
	layers []Layer
}

type catalogFile struct {
	Layers []Layer `yaml:"layers"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultLayers)
	if err != nil {
		panic(fmt.Sprintf("tilelayer: embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from path, or returns the built-in catalog when path
// is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tile layers: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode tile layers: %w", err)
	}
	if len(f.Layers) == 0 {
		return nil, errors.New("tile layer catalog is empty")
	}

	seen := make(map[string]bool, len(f.Layers))
	for i, l := range f.Layers {
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			return nil, fmt.Errorf("layer %d: name is required", i)
		}
		key := strings.ToLower(l.Name)
		if seen[key] {
			return nil, fmt.Errorf("layer %q: duplicate name", l.Name)
		}
		seen[key] = true
		for _, p := range []string{"{x}", "{y}", "{z}"} {
			if !strings.Contains(l.URL, p) {
				return nil, fmt.Errorf("layer %q: url must contain %s", l.Name, p)
			}
		}
		if strings.Contains(l.URL, "{s}") && l.Subdomains == "" {
			l.Subdomains = "abc"
		}
		f.Layers[i] = l
	}
	return &Catalog{layers: f.Layers}, nil
}

// Layers returns the layers in catalog order.
func (c *Catalog) Layers() []Layer {
	out := make([]Layer, len(c.layers))
	copy(out, c.layers)
	return out
}

// Names returns the layer names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.layers))
	for i, l := range c.layers {
		out[i] = l.Name
	}
	return out
}

// First returns the default layer.
func (c *Catalog) First() Layer { return c.layers[0] }

// Lookup finds a layer by case-insensitive name.
func (c *Catalog) Lookup(name string) (Layer, bool) {
	if i := c.index(name); i >= 0 {
		return c.layers[i], true
	}
	return Layer{}, false
}

// Resolve returns the named layer, or the first layer when name is empty or
// unknown.
func (c *Catalog) Resolve(name string) Layer {
	if l, ok := c.Lookup(name); ok {
		return l
	}
	return c.First()
}

// Next returns the layer after name, wrapping around. An unknown name yields
// the first layer.
func (c *Catalog) Next(name string) Layer {
	i := c.index(name)
	if i < 0 {
		return c.First()
	}
	return c.layers[(i+1)%len(c.layers)]
}

func (c *Catalog) index(name string) int {
	name = strings.TrimSpace(name)
	for i, l := range c.layers {
		if strings.EqualFold(l.Name, name) {
			return i
		}
	}
	return -1
}
