package selection

import (
	"errors"
	"slices"
	"testing"

	"github.com/kalambet/sparelist/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(
		catalog.Group{Name: "VALVE", Records: []catalog.Record{
			{Size: "2in", Rating: "150", Schedule: "40", AMOCCode: "V-2-150-40"},
			{Size: "1in", Rating: "300", Schedule: "80", AMOCCode: "V-1-300-80"},
			{Size: "2in", Rating: "300", Schedule: "80", AMOCCode: "V-2-300-80"},
			{Size: "2in", Rating: "150", Schedule: "80", AMOCCode: "V-2-150-80"},
			{Size: "2in", Rating: "150", Schedule: "40", AMOCCode: "V-2-150-40-dup"},
			{Size: "4in", Rating: "600", Schedule: "160", AMOCCode: "V-4-600-160"},
		}},
		catalog.Group{Name: "PIPE", Records: []catalog.Record{
			{Size: "2in", Schedule: "40", AMOCCode: "P-2-40"},
			{Size: "2in", Schedule: "80", AMOCCode: "P-2-80"},
		}},
	)
}

func TestSizes_DistinctFirstSeenOrder(t *testing.T) {
	got := Sizes(testCatalog(), "VALVE")
	want := []string{"2in", "1in", "4in"}
	if !slices.Equal(got, want) {
		t.Errorf("Sizes = %v, want %v", got, want)
	}
}

func TestSizes_UnsetSpare(t *testing.T) {
	if got := Sizes(testCatalog(), ""); len(got) != 0 {
		t.Errorf("Sizes(\"\") = %v, want empty", got)
	}
	if got := Sizes(testCatalog(), "UNKNOWN"); len(got) != 0 {
		t.Errorf("Sizes(UNKNOWN) = %v, want empty", got)
	}
}

func TestRatings(t *testing.T) {
	cat := testCatalog()

	if got, want := Ratings(cat, "VALVE", "2in"), []string{"150", "300"}; !slices.Equal(got, want) {
		t.Errorf("Ratings(VALVE, 2in) = %v, want %v", got, want)
	}
	if got := Ratings(cat, "PIPE", "2in"); len(got) != 0 {
		t.Errorf("Ratings(PIPE, 2in) = %v, want empty", got)
	}
	if got := Ratings(cat, "VALVE", ""); len(got) != 0 {
		t.Errorf("Ratings with unset size = %v, want empty", got)
	}
}

func TestSchedules_RatingIsDontCareWhenUnset(t *testing.T) {
	cat := testCatalog()

	if got, want := Schedules(cat, "VALVE", "2in", ""), []string{"40", "80"}; !slices.Equal(got, want) {
		t.Errorf("Schedules(no rating) = %v, want %v", got, want)
	}
	if got, want := Schedules(cat, "VALVE", "2in", "300"), []string{"80"}; !slices.Equal(got, want) {
		t.Errorf("Schedules(300) = %v, want %v", got, want)
	}
	if got := Schedules(cat, "", "2in", ""); len(got) != 0 {
		t.Errorf("Schedules with unset spare = %v, want empty", got)
	}
}

func TestResolve_FirstMatch(t *testing.T) {
	cat := testCatalog()

	r, ok := Resolve(cat, State{Spare: "VALVE", Size: "2in", Rating: "150", Schedule: "40"})
	if !ok {
		t.Fatal("expected a match")
	}
	if r.AMOCCode != "V-2-150-40" {
		t.Errorf("AMOCCode = %q, want first match V-2-150-40", r.AMOCCode)
	}

	r, ok = Resolve(cat, State{Spare: "VALVE", Size: "2in"})
	if !ok || r.AMOCCode != "V-2-150-40" {
		t.Errorf("Resolve(size only) = %q, %v", r.AMOCCode, ok)
	}

	if _, ok := Resolve(cat, State{Spare: "VALVE", Size: "2in", Rating: "600"}); ok {
		t.Error("expected no match for rating 600 at 2in")
	}
	if _, ok := Resolve(cat, State{Spare: "VALVE"}); ok {
		t.Error("expected no match with unset size")
	}
}

func TestSelect_SpareClearsDownstream(t *testing.T) {
	e := NewEngine(testCatalog())
	s := State{Spare: "VALVE", Size: "2in", Rating: "150", Schedule: "40"}

	got, err := e.Select(s, FieldSpare, "PIPE")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	want := State{Spare: "PIPE"}
	if got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
}

func TestSelect_SizeClearsRatingAndSchedule(t *testing.T) {
	e := NewEngine(testCatalog())
	s := State{Spare: "VALVE", Size: "2in", Rating: "300", Schedule: "80"}

	got, err := e.Select(s, FieldSize, "2in")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Rating != "" || got.Schedule != "" {
		t.Errorf("state = %+v, want rating and schedule cleared", got)
	}
}

func TestSelect_RatingClearsSchedule(t *testing.T) {
	e := NewEngine(testCatalog())
	s := State{Spare: "VALVE", Size: "2in", Rating: "150", Schedule: "40"}

	got, err := e.Select(s, FieldRating, "300")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Rating != "300" || got.Schedule != "" {
		t.Errorf("state = %+v, want rating 300 and schedule cleared", got)
	}
}

func TestSelect_AutoPicksSingleRating(t *testing.T) {
	e := NewEngine(testCatalog())

	got, err := e.Select(State{Spare: "VALVE"}, FieldSize, "4in")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Rating != "600" {
		t.Errorf("Rating = %q, want auto-selected 600", got.Rating)
	}
	if got.Schedule != "" {
		t.Errorf("Schedule = %q, want unset without auto schedule", got.Schedule)
	}
}

func TestSelect_MultipleRatingsNotAutoPicked(t *testing.T) {
	e := NewEngine(testCatalog())

	got, _ := e.Select(State{Spare: "VALVE"}, FieldSize, "2in")
	if got.Rating != "" {
		t.Errorf("Rating = %q, want unset with two ratings available", got.Rating)
	}
}

func TestDerive_ClearsRatingWhenNoneAvailable(t *testing.T) {
	e := NewEngine(testCatalog())

	got := e.Derive(State{Spare: "PIPE", Size: "2in", Rating: "stale"})
	if got.Rating != "" {
		t.Errorf("Rating = %q, want cleared", got.Rating)
	}
}

func TestDerive_KeepsChosenRating(t *testing.T) {
	e := NewEngine(testCatalog())

	s := State{Spare: "VALVE", Size: "2in", Rating: "300"}
	if got := e.Derive(s); got != s {
		t.Errorf("Derive changed a settled state: %+v", got)
	}
}

func TestDerive_AutoSchedule(t *testing.T) {
	e := NewEngine(testCatalog(), WithAutoSchedule(true))

	got, _ := e.Select(State{Spare: "VALVE"}, FieldSize, "4in")
	if got.Rating != "600" || got.Schedule != "160" {
		t.Errorf("state = %+v, want rating 600 and schedule 160", got)
	}

	got, _ = e.Select(State{Spare: "PIPE"}, FieldSize, "2in")
	if got.Schedule != "40" {
		t.Errorf("Schedule = %q, want first schedule 40 when no ratings exist", got.Schedule)
	}

	got, _ = e.Select(State{Spare: "VALVE"}, FieldSize, "2in")
	if got.Schedule != "" {
		t.Errorf("Schedule = %q, want unset while rating is undecided", got.Schedule)
	}
}

func TestSelect_UnknownField(t *testing.T) {
	e := NewEngine(testCatalog())
	_, err := e.Select(State{}, Field("colour"), "red")
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("error = %v, want ErrUnknownField", err)
	}
}

func TestParseField(t *testing.T) {
	for _, name := range []string{"spare", "size", "rating", "schedule"} {
		if _, err := ParseField(name); err != nil {
			t.Errorf("ParseField(%q): %v", name, err)
		}
	}
	if _, err := ParseField("material"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("ParseField(material) error = %v, want ErrUnknownField", err)
	}
}

func TestOptions(t *testing.T) {
	e := NewEngine(testCatalog())

	o := e.Options(State{Spare: "VALVE", Size: "2in", Rating: "300"})
	if !slices.Equal(o.Spares, []string{"VALVE", "PIPE"}) {
		t.Errorf("Spares = %v", o.Spares)
	}
	if !slices.Equal(o.Schedules, []string{"80"}) {
		t.Errorf("Schedules = %v", o.Schedules)
	}
	if o.Record == nil || o.Record.AMOCCode != "V-2-300-80" {
		t.Errorf("Record = %+v, want V-2-300-80", o.Record)
	}

	o = e.Options(State{})
	if o.Record != nil {
		t.Errorf("Record = %+v, want nil for empty state", o.Record)
	}
}
