package selection

import "github.com/kalambet/sparelist/internal/catalog"

// Sizes returns the distinct SIZE values under spare in first-seen order.
func Sizes(c *catalog.Catalog, spare string) []string {
	if spare == "" {
		return []string{}
	}
	var d distinct
	for _, r := range c.Records(spare) {
		d.add(r.Size)
	}
	return d.values()
}

// Ratings returns the distinct non-empty RATING values among the records of
// spare with the given size.
func Ratings(c *catalog.Catalog, spare, size string) []string {
	if spare == "" || size == "" {
		return []string{}
	}
	var d distinct
	for _, r := range c.Records(spare) {
		if r.Size == size && r.Rating != "" {
			d.add(r.Rating)
		}
	}
	return d.values()
}

// Schedules returns the distinct schedules among the records matching size
// and, when rating is set, rating. An unset rating matches every record.
func Schedules(c *catalog.Catalog, spare, size, rating string) []string {
	if spare == "" || size == "" {
		return []string{}
	}
	var d distinct
	for _, r := range c.Records(spare) {
		if r.Size == size && (rating == "" || r.Rating == rating) {
			d.add(r.Schedule)
		}
	}
	return d.values()
}

// Resolve returns the first record matching the state's size, and its rating
// and schedule when those are set.
func Resolve(c *catalog.Catalog, s State) (catalog.Record, bool) {
	if s.Spare == "" || s.Size == "" {
		return catalog.Record{}, false
	}
	for _, r := range c.Records(s.Spare) {
		if r.Size != s.Size {
			continue
		}
		if s.Rating != "" && r.Rating != s.Rating {
			continue
		}
		if s.Schedule != "" && r.Schedule != s.Schedule {
			continue
		}
		return r, true
	}
	return catalog.Record{}, false
}

// distinct collects strings once each, in insertion order.
type distinct struct {
	seen  map[string]struct{}
	order []string
}

func (d *distinct) add(v string) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, ok := d.seen[v]; ok {
		return
	}
	d.seen[v] = struct{}{}
	d.order = append(d.order, v)
}

func (d *distinct) values() []string {
	if d.order == nil {
		return []string{}
	}
	return d.order
}
