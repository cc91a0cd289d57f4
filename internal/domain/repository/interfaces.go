package repository

import (
	"context"
	"time"
)

// Artifact is a raw serialized model as fetched from storage.
type Artifact struct {
	Name     string
	Source   string // human readable location, e.g. file path or URL
	Data     []byte
	Checksum string // hex sha256 of Data
}

// ArtifactStore fetches serialized model artifacts by file name.
type ArtifactStore interface {
	Fetch(ctx context.Context, name string) (*Artifact, error)
}

// DecisionCache stores encoded scoring responses keyed by a content hash.
type DecisionCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Metrics interface {
	RecordPrediction(offer string)
	RecordUplift(model string, uplift float64)
	RecordError(kind string)
	RecordCache(result string)
	RecordLatency(op string, seconds float64)
}
