package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one catalog row. The JSON keys, including the trailing space
// on "SCHEDULE ", match the catalog document and the worklist payload.
type Record struct {
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
}

// UnmarshalJSON accepts strings, numbers and null for every field.
// Catalog sheets exported to JSON often carry sizes and ratings as numbers.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	fields := map[string]*string{
		"SPARE":           &r.Spare,
		"SIZE":            &r.Size,
		"RATING":          &r.Rating,
		"SCHEDULE ":       &r.Schedule,
		"MATERIAL":        &r.Material,
		"SHORT DESC.":     &r.ShortDesc,
		"LONG DESC.":      &r.LongDesc,
		"AMOC CODE":       &r.AMOCCode,
		"AMOC CODE (OLD)": &r.AMOCCodeOld,
		"ENDS":            &r.Ends,
	}
	for key, dst := range fields {
		v, ok := raw[key]
		if !ok {
			continue
		}
		s, err := text(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		*dst = s
	}
	return nil
}

func text(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(raw))
	}
}
