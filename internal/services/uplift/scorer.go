package uplift

import (
	"context"
	"fmt"
	"math"

	"UpliftAPI/internal/domain/models"
	domsvc "UpliftAPI/internal/domain/service"
)

const (
	branchTreated = "treated"
	branchControl = "control"
)

// Score estimates a treatment effect with the S-learner technique: the same row is
// scored with the treatment flag set to 1 and to 0, and uplift is the difference.
// Either branch failing fails the whole call.
func Score(ctx context.Context, name string, model domsvc.ScoringModel, row models.FeatureRow) (models.UpliftEstimate, error) {
	treated, err := predict(ctx, name, branchTreated, model, row.WithTreatment(1))
	if err != nil {
		return models.UpliftEstimate{}, err
	}
	control, err := predict(ctx, name, branchControl, model, row.WithTreatment(0))
	if err != nil {
		return models.UpliftEstimate{}, err
	}

	return models.UpliftEstimate{
		TreatedProbability: treated,
		ControlProbability: control,
		Uplift:             treated - control,
	}, nil
}

func predict(ctx context.Context, name, branch string, model domsvc.ScoringModel, v models.TreatmentVariant) (float64, error) {
	if model == nil {
		return 0, &models.ScoringError{Model: name, Branch: branch, Err: fmt.Errorf("model not loaded")}
	}
	p, err := model.PredictProba(ctx, v)
	if err != nil {
		return 0, &models.ScoringError{Model: name, Branch: branch, Err: err}
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, &models.ScoringError{Model: name, Branch: branch, Err: fmt.Errorf("probability %v outside [0,1]", p)}
	}
	return p, nil
}
