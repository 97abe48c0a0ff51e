package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
)

//go:embed pipeline.json
var defaultDocument []byte

// Group is one spare type and its records, in document order.
type Group struct {
	Name    string
	Records []Record
}

// Catalog maps spare-type names to their records. Spare-type order follows
// the key order of the source document. A Catalog is never mutated after
// construction.
type Catalog struct {
	spares  []string
	records map[string][]Record
}

// New builds a Catalog from groups. Later groups with a repeated name
// replace earlier ones but keep the first position.
func New(groups ...Group) *Catalog {
	c := &Catalog{records: make(map[string][]Record, len(groups))}
	for _, g := range groups {
		if _, ok := c.records[g.Name]; !ok {
			c.spares = append(c.spares, g.Name)
		}
		c.records[g.Name] = slices.Clone(g.Records)
	}
	return c
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultDocument))
}

// Load reads a catalog document from path. An empty path loads the
// embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a document shaped {"<spare type>": [record, ...], ...}.
// The object is walked token by token so spare types keep document order.
func Parse(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("catalog must be a JSON object")
	}

	seen := make(map[string]bool)
	var groups []Group
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading spare type: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate spare type %q", name)
		}
		seen[name] = true

		var records []Record
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding records for %q: %w", name, err)
		}
		groups = append(groups, Group{Name: name, Records: records})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("reading catalog end: %w", err)
	}

	return New(groups...), nil
}

// Spares returns the spare-type names in document order.
func (c *Catalog) Spares() []string {
	return slices.Clone(c.spares)
}

// Has reports whether spare is a known spare type.
func (c *Catalog) Has(spare string) bool {
	_, ok := c.records[spare]
	return ok
}

// Records returns a copy of the records filed under spare, or nil.
func (c *Catalog) Records(spare string) []Record {
	return slices.Clone(c.records[spare])
}

// Len returns the number of spare types.
func (c *Catalog) Len() int {
	return len(c.spares)
}
