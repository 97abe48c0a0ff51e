package worklist

import "github.com/kalambet/sparelist/internal/catalog"

// DefaultCount is stored for quantity and position when the operator
// leaves them blank.
const DefaultCount = "0"

// Meta is the operator-supplied part of a selection.
type Meta struct {
	AssetTag string `json:"assetTag"`
	Quantity string `json:"quantity"`
	Position string `json:"position"`
}

// Entry is one worklist row: the operator metadata plus every field of the
// catalog record resolved at append time. JSON keys match the catalog's
// so that the persisted payload and merge comparisons use the same names.
type Entry struct {
	AssetTag    string `json:"assetTag"`
	Spare       string `json:"SPARE,omitempty"`
	Size        string `json:"SIZE"`
	Rating      string `json:"RATING,omitempty"`
	Schedule    string `json:"SCHEDULE "`
	Material    string `json:"MATERIAL"`
	ShortDesc   string `json:"SHORT DESC."`
	LongDesc    string `json:"LONG DESC."`
	AMOCCode    string `json:"AMOC CODE"`
	AMOCCodeOld string `json:"AMOC CODE (OLD)"`
	Ends        string `json:"ENDS,omitempty"`
	Quantity    string `json:"quantity"`
	Position    string `json:"position"`
}

// NewEntry merges meta with rec. Blank quantity and position become
// DefaultCount; a record without SPARE takes the spare-type name.
func NewEntry(meta Meta, spare string, rec catalog.Record) Entry {
	e := Entry{
		AssetTag:    meta.AssetTag,
		Spare:       rec.Spare,
		Size:        rec.Size,
		Rating:      rec.Rating,
		Schedule:    rec.Schedule,
		Material:    rec.Material,
		ShortDesc:   rec.ShortDesc,
		LongDesc:    rec.LongDesc,
		AMOCCode:    rec.AMOCCode,
		AMOCCodeOld: rec.AMOCCodeOld,
		Ends:        rec.Ends,
		Quantity:    orDefault(meta.Quantity),
		Position:    orDefault(meta.Position),
	}
	if e.Spare == "" {
		e.Spare = spare
	}
	return e
}

func orDefault(v string) string {
	if v == "" {
		return DefaultCount
	}
	return v
}

// Field is a key/value pair present on an entry.
type Field struct {
	Key   string
	Value string
}

// Fields returns the fields present on e in JSON key order. Optional
// fields (SPARE, RATING, ENDS) are present only when non-empty, mirroring
// the JSON encoding.
func (e Entry) Fields() []Field {
	fields := []Field{{"assetTag", e.AssetTag}}
	if e.Spare != "" {
		fields = append(fields, Field{"SPARE", e.Spare})
	}
	fields = append(fields, Field{"SIZE", e.Size})
	if e.Rating != "" {
		fields = append(fields, Field{"RATING", e.Rating})
	}
	fields = append(fields,
		Field{"SCHEDULE ", e.Schedule},
		Field{"MATERIAL", e.Material},
		Field{"SHORT DESC.", e.ShortDesc},
		Field{"LONG DESC.", e.LongDesc},
		Field{"AMOC CODE", e.AMOCCode},
		Field{"AMOC CODE (OLD)", e.AMOCCodeOld},
	)
	if e.Ends != "" {
		fields = append(fields, Field{"ENDS", e.Ends})
	}
	return append(fields,
		Field{"quantity", e.Quantity},
		Field{"position", e.Position},
	)
}
