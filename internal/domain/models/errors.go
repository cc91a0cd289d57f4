package models

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactMissing is returned when a model artifact cannot be found at its configured location.
	ErrArtifactMissing = errors.New("model artifact missing")
	// ErrArtifactCorrupt is returned when an artifact exists but does not decode into a usable predictor.
	ErrArtifactCorrupt = errors.New("model artifact corrupt")
	// ErrModelsUnavailable is returned to requests when the models could not be loaded.
	ErrModelsUnavailable = errors.New("models unavailable")
)

// ScoringError reports a failed probability prediction for one branch of the S-learner.
type ScoringError struct {
	Model  string
	Branch string // "treated" or "control"
	Err    error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("score %s (%s): %v", e.Model, e.Branch, e.Err)
}

// Unwrap returns the underlying prediction error.
func (e *ScoringError) Unwrap() error { return e.Err }
