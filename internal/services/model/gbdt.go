package model

import (
	"context"
	"fmt"

	"UpliftAPI/internal/domain/models"
)

// GBDTSpec is an additive ensemble of regression trees with a logistic link:
// p = sigmoid(base_score + learning_rate * sum(tree(x))).
type GBDTSpec struct {
	BaseScore    float64    `json:"base_score"`
	LearningRate float64    `json:"learning_rate"`
	Trees        []TreeSpec `json:"trees"`
}

// TreeSpec stores nodes in a flat array; node 0 is the root.
type TreeSpec struct {
	Nodes []NodeSpec `json:"nodes"`
}

// NodeSpec is either a split (x[feature] <= threshold goes left) or a leaf.
type NodeSpec struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   string  `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

type gbdt struct {
	enc   *encoder
	base  float64
	rate  float64
	trees []TreeSpec
}

func newGBDT(enc *encoder, spec *GBDTSpec) (*gbdt, error) {
	if spec == nil {
		return nil, fmt.Errorf("gbdt section is required")
	}
	if len(spec.Trees) == 0 {
		return nil, fmt.Errorf("gbdt has no trees")
	}
	rate := spec.LearningRate
	if rate == 0 {
		rate = 1
	}
	for ti, tree := range spec.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range tree.Nodes {
			if n.Leaf {
				continue
			}
			if !enc.has(n.Feature) {
				return nil, fmt.Errorf("tree %d node %d splits on unknown feature %q", ti, ni, n.Feature)
			}
			// children must point forward so evaluation always terminates
			if n.Left <= ni || n.Left >= len(tree.Nodes) || n.Right <= ni || n.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("tree %d node %d has invalid children %d/%d", ti, ni, n.Left, n.Right)
			}
		}
	}
	return &gbdt{enc: enc, base: spec.BaseScore, rate: rate, trees: spec.Trees}, nil
}

func (m *gbdt) PredictProba(_ context.Context, v models.TreatmentVariant) (float64, error) {
	x, err := m.enc.encode(v)
	if err != nil {
		return 0, err
	}
	raw := m.base
	for _, t := range m.trees {
		raw += m.rate * evalTree(t, x)
	}
	return sigmoid(raw), nil
}

func evalTree(t TreeSpec, x map[string]float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
