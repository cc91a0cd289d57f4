package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"UpliftAPI/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioCustomer = models.CustomerFeatures{
	Recency:      5,
	History:      200,
	ZipCode:      "Urban",
	Channel:      "Web",
	IsReferral:   true,
	UsedDiscount: false,
	UsedBogo:     true,
}

func modelSet(discount, bogo *probModel) *ModelSet {
	return &ModelSet{Discount: discount, Bogo: bogo, DiscountChecksum: "d1", BogoChecksum: "b1"}
}

func TestRecommendPicksDiscount(t *testing.T) {
	metrics := newFakeMetrics()
	r := NewOfferRecommender(staticProvider{set: modelSet(
		&probModel{treated: 0.7, control: 0.5},
		&probModel{treated: 0.4, control: 0.45},
	)}, metrics, nil)

	resp, err := r.Recommend(context.Background(), scenarioCustomer)
	require.NoError(t, err)

	assert.Equal(t, models.OfferDiscount, resp.Decision.BestOffer)
	assert.InDelta(t, 0.2, resp.Decision.BestUplift, 1e-12)
	assert.InDelta(t, 0.2, resp.Decision.UpliftDiscount, 1e-12)
	assert.InDelta(t, -0.05, resp.Decision.UpliftBogo, 1e-12)

	assert.Equal(t, 0.7, resp.Offers[models.OfferDiscount].TreatedProbability)
	assert.Equal(t, 0.45, resp.Offers[models.OfferBuyOneGetOne].ControlProbability)

	assert.Equal(t, 5.0, resp.Features.Recency)
	assert.Equal(t, 1, resp.Features.IsReferral)
	assert.Equal(t, 0, resp.Features.UsedDiscount)
	assert.InDelta(t, math.Log1p(5), resp.Features.RecencyLog, 1e-12)
	assert.InDelta(t, math.Log1p(200), resp.Features.HistoryLog, 1e-12)

	assert.Equal(t, 1, metrics.predictions["Discount"])
}

func TestRecommendNoOffer(t *testing.T) {
	r := NewOfferRecommender(staticProvider{set: modelSet(
		&probModel{treated: 0.3, control: 0.35},
		&probModel{treated: 0.2, control: 0.2},
	)}, newFakeMetrics(), nil)

	resp, err := r.Recommend(context.Background(), scenarioCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.OfferNone, resp.Decision.BestOffer)
	assert.Equal(t, 0.0, resp.Decision.BestUplift)
}

func TestRecommendIsDeterministic(t *testing.T) {
	r := NewOfferRecommender(staticProvider{set: modelSet(
		&probModel{treated: 0.61, control: 0.55},
		&probModel{treated: 0.58, control: 0.49},
	)}, newFakeMetrics(), nil)

	first, err := r.Recommend(context.Background(), scenarioCustomer)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Recommend(context.Background(), scenarioCustomer)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, models.OfferBuyOneGetOne, first.Decision.BestOffer)
}

func TestRecommendScoringFailure(t *testing.T) {
	metrics := newFakeMetrics()
	r := NewOfferRecommender(staticProvider{set: modelSet(
		&probModel{treated: 0.7, control: 0.5},
		&probModel{err: errors.New(`unknown category "90210"`)},
	)}, metrics, nil)

	resp, err := r.Recommend(context.Background(), scenarioCustomer)
	assert.Nil(t, resp)
	var se *models.ScoringError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bogo", se.Model)
	assert.Equal(t, 1, metrics.errors["scoring"])
	assert.Empty(t, metrics.predictions)
}

func TestRecommendModelsUnavailable(t *testing.T) {
	cause := fmt.Errorf("%w: %w", models.ErrModelsUnavailable, models.ErrArtifactMissing)
	metrics := newFakeMetrics()
	r := NewOfferRecommender(staticProvider{err: cause}, metrics, nil)

	_, err := r.Recommend(context.Background(), scenarioCustomer)
	assert.ErrorIs(t, err, models.ErrModelsUnavailable)
	assert.Equal(t, 1, metrics.errors["models_unavailable"])
}

func TestRecommendCacheHit(t *testing.T) {
	discount := &probModel{treated: 0.7, control: 0.5}
	bogo := &probModel{treated: 0.4, control: 0.45}
	cache := newMapCache()
	metrics := newFakeMetrics()
	r := NewOfferRecommender(staticProvider{set: modelSet(discount, bogo)}, metrics, nil,
		WithDecisionCache(cache, time.Minute))

	first, err := r.Recommend(context.Background(), scenarioCustomer)
	require.NoError(t, err)
	assert.EqualValues(t, 2, discount.calls.Load())
	require.Len(t, cache.data, 1)
	for k := range cache.data {
		assert.Contains(t, k, "uplift:")
	}

	second, err := r.Recommend(context.Background(), scenarioCustomer)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, discount.calls.Load(), "cache hit must not rescore")
	assert.Equal(t, 1, metrics.cache["hit"])
	assert.Equal(t, 1, metrics.cache["miss"])

	// a different customer is a different key
	other := scenarioCustomer
	other.UsedDiscount = true
	_, err = r.Recommend(context.Background(), other)
	require.NoError(t, err)
	assert.Len(t, cache.data, 2)
}

func TestRecommendCacheErrorsAreIgnored(t *testing.T) {
	cache := newMapCache()
	cache.getErr = errors.New("redis: connection refused")
	metrics := newFakeMetrics()
	r := NewOfferRecommender(staticProvider{set: modelSet(
		&probModel{treated: 0.7, control: 0.5},
		&probModel{treated: 0.4, control: 0.45},
	)}, metrics, nil, WithDecisionCache(cache, time.Minute))

	resp, err := r.Recommend(context.Background(), scenarioCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.OfferDiscount, resp.Decision.BestOffer)
	assert.Equal(t, 1, metrics.cache["error"])
}

func TestDecisionKeyDependsOnChecksums(t *testing.T) {
	a := decisionKey(scenarioCustomer, &ModelSet{DiscountChecksum: "d1", BogoChecksum: "b1"})
	b := decisionKey(scenarioCustomer, &ModelSet{DiscountChecksum: "d2", BogoChecksum: "b1"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, decisionKey(scenarioCustomer, &ModelSet{DiscountChecksum: "d1", BogoChecksum: "b1"}))
}

// wideArtifact weights every encoded feature so the logistic sum has many terms.
func wideArtifact(name string, shift float64) []byte {
	coef := map[string]float64{}
	names := []string{
		"recency_log", "history_log", "is_referral", "used_discount", "used_bogo", "treat",
		"zip_code=Rural", "zip_code=Surburban", "zip_code=Urban",
		"channel=Multichannel", "channel=Phone", "channel=Web",
	}
	for i, n := range names {
		coef[n] = math.Cos(float64(i)*0.91+shift) * 0.37
	}
	doc := fmt.Sprintf(`{"name": %q, "version": "1", "kind": "logistic",
		"encoder": {"numeric": ["recency_log", "history_log", "is_referral", "used_discount", "used_bogo", "treat"],
			"categorical": {"zip_code": ["Rural", "Surburban", "Urban"], "channel": ["Multichannel", "Phone", "Web"]}},
		"logistic": {"intercept": 0.05, "coef": %s}}`, name, mustJSON(coef))
	return []byte(doc)
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func TestRecommendRoundTripOverDecodedArtifacts(t *testing.T) {
	store := newFakeStore(map[string][]byte{
		"model_discount.json": wideArtifact("discount", 0),
		"model_bogo.json":     wideArtifact("bogo", 0.4),
	})
	host := NewModelHost(store, hostConfig, nil)
	require.NoError(t, host.Load(context.Background()))

	r := NewOfferRecommender(host, newFakeMetrics(), nil)

	first, err := r.Recommend(context.Background(), scenarioCustomer)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		again, err := r.Recommend(context.Background(), scenarioCustomer)
		require.NoError(t, err)
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		require.Equal(t, string(firstJSON), string(againJSON))
	}
}
