package service

import (
	"context"

	"UpliftAPI/internal/domain/models"
)

// ScoringModel is a trained binary classifier over a treatment-augmented feature row.
// Implementations must be safe for concurrent use.
type ScoringModel interface {
	PredictProba(ctx context.Context, row models.TreatmentVariant) (float64, error)
}
