package model

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"UpliftAPI/internal/domain/models"
)

// LogisticSpec holds fitted logistic regression parameters keyed by encoded feature name.
type LogisticSpec struct {
	Intercept float64            `json:"intercept"`
	Coef      map[string]float64 `json:"coef"`
}

type term struct {
	name   string
	weight float64
}

type logistic struct {
	enc       *encoder
	intercept float64
	// sorted by name so the sum is evaluated in a fixed order
	terms []term
}

func newLogistic(enc *encoder, spec *LogisticSpec) (*logistic, error) {
	if spec == nil {
		return nil, fmt.Errorf("logistic section is required")
	}
	if len(spec.Coef) == 0 {
		return nil, fmt.Errorf("logistic coefficients are empty")
	}
	terms := make([]term, 0, len(spec.Coef))
	for name, w := range spec.Coef {
		if !enc.has(name) {
			return nil, fmt.Errorf("coefficient for unknown feature %q", name)
		}
		terms = append(terms, term{name: name, weight: w})
	}
	slices.SortFunc(terms, func(a, b term) int { return cmp.Compare(a.name, b.name) })
	return &logistic{enc: enc, intercept: spec.Intercept, terms: terms}, nil
}

func (m *logistic) PredictProba(_ context.Context, v models.TreatmentVariant) (float64, error) {
	x, err := m.enc.encode(v)
	if err != nil {
		return 0, err
	}
	z := m.intercept
	for _, t := range m.terms {
		z += t.weight * x[t.name]
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1 + ez)
}
