package model

import (
	"fmt"
	"sort"

	"UpliftAPI/internal/domain/models"
)

const (
	unknownError  = "error"
	unknownIgnore = "ignore"
)

// EncoderSpec describes how a TreatmentVariant becomes a named numeric vector.
// Categorical columns are one-hot encoded into "<column>=<value>" features.
type EncoderSpec struct {
	Columns       []string            `json:"columns,omitempty"`
	Numeric       []string            `json:"numeric"`
	Categorical   map[string][]string `json:"categorical"`
	HandleUnknown string              `json:"handle_unknown"`
	Scaler        *ScalerSpec         `json:"scaler,omitempty"`
}

// ScalerSpec standardizes numeric columns as (x - mean) / scale.
type ScalerSpec struct {
	Mean  map[string]float64 `json:"mean"`
	Scale map[string]float64 `json:"scale"`
}

type encoder struct {
	numeric       []string
	categorical   map[string]map[string]struct{}
	handleUnknown string
	scaler        *ScalerSpec
	names         map[string]struct{}
}

func newEncoder(spec EncoderSpec, inputColumns []string) (*encoder, error) {
	if len(spec.Columns) > 0 && !sameColumns(spec.Columns, inputColumns) {
		return nil, fmt.Errorf("input columns %v do not match %v", spec.Columns, inputColumns)
	}

	knownNumeric := models.TreatmentVariant{}.Numeric()
	knownCategorical := models.TreatmentVariant{}.Categorical()

	e := &encoder{
		categorical:   make(map[string]map[string]struct{}, len(spec.Categorical)),
		handleUnknown: spec.HandleUnknown,
		scaler:        spec.Scaler,
		names:         make(map[string]struct{}),
	}
	if e.handleUnknown == "" {
		e.handleUnknown = unknownError
	}
	if e.handleUnknown != unknownError && e.handleUnknown != unknownIgnore {
		return nil, fmt.Errorf("handle_unknown must be %q or %q, got %q", unknownError, unknownIgnore, e.handleUnknown)
	}

	hasTreat := false
	for _, col := range spec.Numeric {
		if _, ok := knownNumeric[col]; !ok {
			return nil, fmt.Errorf("unknown numeric column %q", col)
		}
		if col == models.ColTreat {
			hasTreat = true
		}
		e.numeric = append(e.numeric, col)
		e.names[col] = struct{}{}
	}
	if !hasTreat {
		return nil, fmt.Errorf("numeric columns must include %q", models.ColTreat)
	}

	for col, values := range spec.Categorical {
		if _, ok := knownCategorical[col]; !ok {
			return nil, fmt.Errorf("unknown categorical column %q", col)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("categorical column %q has no categories", col)
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
			e.names[oneHotName(col, v)] = struct{}{}
		}
		e.categorical[col] = set
	}

	if e.scaler != nil {
		for col, s := range e.scaler.Scale {
			if _, ok := knownNumeric[col]; !ok {
				return nil, fmt.Errorf("scaler references unknown column %q", col)
			}
			if s == 0 {
				return nil, fmt.Errorf("scaler scale for %q is zero", col)
			}
		}
	}

	return e, nil
}

// has reports whether name is a feature produced by the encoder.
func (e *encoder) has(name string) bool {
	_, ok := e.names[name]
	return ok
}

// encode returns the encoded features. One-hot features that are off are omitted.
func (e *encoder) encode(v models.TreatmentVariant) (map[string]float64, error) {
	num := v.Numeric()
	out := make(map[string]float64, len(e.numeric)+len(e.categorical))

	for _, col := range e.numeric {
		x := num[col]
		if e.scaler != nil {
			if s, ok := e.scaler.Scale[col]; ok {
				x = (x - e.scaler.Mean[col]) / s
			}
		}
		out[col] = x
	}

	cat := v.Categorical()
	for col, known := range e.categorical {
		val := cat[col]
		if _, ok := known[val]; !ok {
			if e.handleUnknown == unknownError {
				return nil, fmt.Errorf("found unknown category %q in column %q", val, col)
			}
			continue
		}
		out[oneHotName(col, val)] = 1
	}
	return out, nil
}

func oneHotName(col, value string) string {
	return col + "=" + value
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
