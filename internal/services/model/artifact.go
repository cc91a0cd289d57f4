package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"UpliftAPI/internal/domain/models"
	domsvc "UpliftAPI/internal/domain/service"
	"UpliftAPI/internal/services/features"
	xhttp "UpliftAPI/pkg/http"
)

// Supported artifact kinds.
const (
	KindLogistic = "logistic"
	KindGBDT     = "gbdt"
	KindRemote   = "remote"
)

// Artifact is the serialized form of a trained S-learner classifier.
type Artifact struct {
	Name     string        `json:"name"`
	Version  string        `json:"version"`
	Kind     string        `json:"kind"`
	Encoder  *EncoderSpec  `json:"encoder,omitempty"`
	Logistic *LogisticSpec `json:"logistic,omitempty"`
	GBDT     *GBDTSpec     `json:"gbdt,omitempty"`
	Remote   *RemoteSpec   `json:"remote,omitempty"`
}

// Model is a decoded, ready-to-use classifier. It is immutable and safe for concurrent use.
type Model struct {
	Name    string
	Version string
	Kind    string

	predictor domsvc.ScoringModel
}

// PredictProba returns the positive-class probability for the row.
func (m *Model) PredictProba(ctx context.Context, v models.TreatmentVariant) (float64, error) {
	return m.predictor.PredictProba(ctx, v)
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	client *xhttp.Client
}

// WithHTTPClient sets the client used by remote predictors.
func WithHTTPClient(c *xhttp.Client) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.client = c
	}
}

// Decode parses an artifact document into a Model. Any structural problem is
// reported as models.ErrArtifactCorrupt.
func Decode(data []byte, opts ...DecodeOption) (*Model, error) {
	cfg := &decodeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var a Artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, corrupt("parse: %v", err)
	}

	p, err := build(&a, cfg)
	if err != nil {
		return nil, corrupt("%s: %v", a.Kind, err)
	}
	return &Model{Name: a.Name, Version: a.Version, Kind: a.Kind, predictor: p}, nil
}

func build(a *Artifact, cfg *decodeConfig) (domsvc.ScoringModel, error) {
	if a.Kind == KindRemote {
		return newRemote(a.Remote, cfg.client)
	}

	if a.Encoder == nil {
		return nil, fmt.Errorf("encoder section is required")
	}
	inputs := append(features.Columns(), models.ColTreat)
	enc, err := newEncoder(*a.Encoder, inputs)
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}

	switch a.Kind {
	case KindLogistic:
		return newLogistic(enc, a.Logistic)
	case KindGBDT:
		return newGBDT(enc, a.GBDT)
	default:
		return nil, fmt.Errorf("unsupported kind %q", a.Kind)
	}
}

func corrupt(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrArtifactCorrupt, fmt.Sprintf(format, args...))
}
