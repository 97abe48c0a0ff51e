package selection

import (
	"errors"
	"fmt"

	"github.com/kalambet/sparelist/internal/catalog"
)

// ErrUnknownField is returned when a selection names a field outside the cascade.
var ErrUnknownField = errors.New("unknown selection field")

// Field names one level of the cascade.
type Field string

const (
	FieldSpare    Field = "spare"
	FieldSize     Field = "size"
	FieldRating   Field = "rating"
	FieldSchedule Field = "schedule"
)

// ParseField maps a user-supplied name to a Field.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldSpare, FieldSize, FieldRating, FieldSchedule:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// State is the in-progress cascade. An empty string means unset.
type State struct {
	Spare    string `json:"spare"`
	Size     string `json:"size"`
	Rating   string `json:"rating"`
	Schedule string `json:"schedule"`
}

// Options is everything the form needs to render the cascade for a State.
type Options struct {
	Spares    []string        `json:"spares"`
	Sizes     []string        `json:"sizes"`
	Ratings   []string        `json:"ratings"`
	Schedules []string        `json:"schedules"`
	Record    *catalog.Record `json:"record,omitempty"`
}

// Engine applies cascade transitions over a fixed catalog.
type Engine struct {
	cat          *catalog.Catalog
	autoSchedule bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAutoSchedule makes Derive pick the first available schedule once the
// rating is settled and no schedule has been chosen.
func WithAutoSchedule(enabled bool) Option {
	return func(e *Engine) { e.autoSchedule = enabled }
}

// NewEngine creates an Engine over cat.
func NewEngine(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{cat: cat}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// Select sets field to value, clears every level below it, and re-derives.
func (e *Engine) Select(s State, field Field, value string) (State, error) {
	switch field {
	case FieldSpare:
		s = State{Spare: value}
	case FieldSize:
		s.Size = value
		s.Rating = ""
		s.Schedule = ""
	case FieldRating:
		s.Rating = value
		s.Schedule = ""
	case FieldSchedule:
		s.Schedule = value
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return e.Derive(s), nil
}

// Derive applies the auto-resolution rules: a single available rating is
// picked when none is chosen, and the rating is cleared when none exist.
func (e *Engine) Derive(s State) State {
	ratings := Ratings(e.cat, s.Spare, s.Size)
	switch {
	case len(ratings) == 1 && s.Rating == "":
		s.Rating = ratings[0]
	case len(ratings) == 0:
		s.Rating = ""
	}

	if e.autoSchedule && s.Schedule == "" && (s.Rating != "" || len(ratings) == 0) {
		if schedules := Schedules(e.cat, s.Spare, s.Size, s.Rating); len(schedules) > 0 {
			s.Schedule = schedules[0]
		}
	}
	return s
}

// Options derives the available values at every level for s.
func (e *Engine) Options(s State) Options {
	o := Options{
		Spares:    e.cat.Spares(),
		Sizes:     Sizes(e.cat, s.Spare),
		Ratings:   Ratings(e.cat, s.Spare, s.Size),
		Schedules: Schedules(e.cat, s.Spare, s.Size, s.Rating),
	}
	if r, ok := Resolve(e.cat, s); ok {
		o.Record = &r
	}
	return o
}

// Resolve returns the record the state currently points at.
func (e *Engine) Resolve(s State) (catalog.Record, bool) {
	return Resolve(e.cat, s)
}
