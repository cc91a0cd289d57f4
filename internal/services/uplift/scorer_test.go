package uplift

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"UpliftAPI/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedModel returns one probability for treated rows and another for control rows.
type fixedModel struct {
	treated, control float64
	failOn           int // -1 never, otherwise the treat value that fails

	mu   sync.Mutex
	seen []models.TreatmentVariant
}

func newFixed(treated, control float64) *fixedModel {
	return &fixedModel{treated: treated, control: control, failOn: -1}
}

func (m *fixedModel) PredictProba(_ context.Context, v models.TreatmentVariant) (float64, error) {
	m.mu.Lock()
	m.seen = append(m.seen, v)
	m.mu.Unlock()
	if v.Treat == m.failOn {
		return 0, errors.New("unseen category")
	}
	if v.Treat == 1 {
		return m.treated, nil
	}
	return m.control, nil
}

func sampleRow() models.FeatureRow {
	return models.FeatureRow{
		Recency: 5, History: 200,
		RecencyLog: math.Log1p(5), HistoryLog: math.Log1p(200),
		ZipCode: "90210", Channel: "web",
	}
}

func TestScoreComputesUplift(t *testing.T) {
	m := newFixed(0.7, 0.5)
	est, err := Score(context.Background(), "discount", m, sampleRow())
	require.NoError(t, err)

	assert.Equal(t, 0.7, est.TreatedProbability)
	assert.Equal(t, 0.5, est.ControlProbability)
	assert.Equal(t, est.TreatedProbability-est.ControlProbability, est.Uplift)
	assert.InDelta(t, 0.2, est.Uplift, 1e-12)
}

func TestScoreTogglesOnlyTreatment(t *testing.T) {
	m := newFixed(0.4, 0.45)
	row := sampleRow()
	_, err := Score(context.Background(), "bogo", m, row)
	require.NoError(t, err)

	require.Len(t, m.seen, 2)
	treats := []int{m.seen[0].Treat, m.seen[1].Treat}
	assert.ElementsMatch(t, []int{0, 1}, treats)
	for _, v := range m.seen {
		assert.Equal(t, row, v.FeatureRow)
	}
}

func TestScoreNegativeUpliftNotClipped(t *testing.T) {
	est, err := Score(context.Background(), "bogo", newFixed(0.4, 0.45), sampleRow())
	require.NoError(t, err)
	assert.InDelta(t, -0.05, est.Uplift, 1e-12)
}

func TestScoreFailureIsWhole(t *testing.T) {
	for _, treat := range []int{0, 1} {
		m := newFixed(0.7, 0.5)
		m.failOn = treat
		est, err := Score(context.Background(), "discount", m, sampleRow())
		require.Error(t, err)
		assert.Equal(t, models.UpliftEstimate{}, est)

		var se *models.ScoringError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "discount", se.Model)
		assert.EqualError(t, errors.Unwrap(err), "unseen category")
	}
}

func TestScoreRejectsOutOfRangeProbability(t *testing.T) {
	for _, p := range []float64{-0.1, 1.5, math.NaN()} {
		_, err := Score(context.Background(), "discount", newFixed(p, 0.5), sampleRow())
		var se *models.ScoringError
		require.ErrorAs(t, err, &se, "p=%v", p)
		assert.Equal(t, branchTreated, se.Branch)
	}
}

func TestScoreNilModel(t *testing.T) {
	_, err := Score(context.Background(), "bogo", nil, sampleRow())
	var se *models.ScoringError
	require.ErrorAs(t, err, &se)
}

func TestScoreDeterministic(t *testing.T) {
	m := newFixed(0.61, 0.33)
	a, err := Score(context.Background(), "discount", m, sampleRow())
	require.NoError(t, err)
	b, err := Score(context.Background(), "discount", m, sampleRow())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
