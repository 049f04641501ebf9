// Package catalog maps monster, object and trap names to the numeric
// indices the level loader understands.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind selects one of the catalog's name tables.
type Kind int

const (
	Monsters Kind = iota
	Objects
	Traps
	kindCount
)

func (k Kind) String() string {
	switch k {
	case Monsters:
		return "monster"
	case Objects:
		return "object"
	case Traps:
		return "trap"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Entry is one named thing. Its index is its position in its list.
type Entry struct {
	Name  string `yaml:"name"`
	Class string `yaml:"class"`
}

// yamlCatalogFile is the on-disk layout of a catalog.
type yamlCatalogFile struct {
	Monsters []Entry `yaml:"monsters"`
	Objects  []Entry `yaml:"objects"`
	Traps    []Entry `yaml:"traps"`
}

// Catalog resolves names case-insensitively.
type Catalog struct {
	entries [kindCount][]Entry
	index   [kindCount]map[string]int
}

// LoadFromFile reads and validates a catalog YAML file.
//
// Precondition: path must point to a readable YAML file.
// Postcondition: Returns a validated Catalog or a non-nil error.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a catalog from YAML bytes.
//
// Postcondition: Returns a validated Catalog or an error naming every
// empty or duplicated entry.
func LoadFromBytes(data []byte) (*Catalog, error) {
	var file yamlCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}
	c := &Catalog{}
	c.entries[Monsters] = file.Monsters
	c.entries[Objects] = file.Objects
	c.entries[Traps] = file.Traps
	if err := c.build(); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return c, nil
}

func (c *Catalog) build() error {
	var errs []error
	for k := range kindCount {
		c.index[k] = make(map[string]int, len(c.entries[k]))
		for i, e := range c.entries[k] {
			key := strings.ToLower(strings.TrimSpace(e.Name))
			if key == "" {
				errs = append(errs, fmt.Errorf("%s %d: name must not be empty", k, i))
				continue
			}
			if prev, dup := c.index[k][key]; dup {
				errs = append(errs, fmt.Errorf("%s %q: duplicated at %d and %d", k, e.Name, prev, i))
				continue
			}
			c.index[k][key] = i
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the index of name in the kind's table. A nil Catalog
// resolves nothing.
func (c *Catalog) Lookup(k Kind, name string) (int, bool) {
	if c == nil || k < 0 || k >= kindCount {
		return 0, false
	}
	i, ok := c.index[k][strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

// Entry returns the entry at index i of the kind's table.
func (c *Catalog) Entry(k Kind, i int) (Entry, bool) {
	if c == nil || k < 0 || k >= kindCount || i < 0 || i >= len(c.entries[k]) {
		return Entry{}, false
	}
	return c.entries[k][i], true
}

// Len returns the number of entries of a kind.
func (c *Catalog) Len(k Kind) int {
	if c == nil || k < 0 || k >= kindCount {
		return 0
	}
	return len(c.entries[k])
}
