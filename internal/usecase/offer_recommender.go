package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"UpliftAPI/internal/domain/models"
	domrepo "UpliftAPI/internal/domain/repository"
	"UpliftAPI/internal/services/features"
	"UpliftAPI/internal/services/uplift"
	applogger "UpliftAPI/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const cacheKeyPrefix = "uplift:"

// ModelProvider hands out the loaded classifier pair.
type ModelProvider interface {
	Models(ctx context.Context) (*ModelSet, error)
}

// OfferRecommender scores both treatments for a customer and picks the offer.
type OfferRecommender struct {
	models   ModelProvider
	cache    domrepo.DecisionCache
	cacheTTL time.Duration
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

// RecommenderOption configures OfferRecommender.
type RecommenderOption func(*OfferRecommender)

// WithDecisionCache memoises responses for ttl. Identical inputs scored by the
// same model artifacts always produce the same response, so hits are exact.
func WithDecisionCache(c domrepo.DecisionCache, ttl time.Duration) RecommenderOption {
	return func(r *OfferRecommender) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

func NewOfferRecommender(mp ModelProvider, metrics domrepo.Metrics, l *applogger.Logger, opts ...RecommenderOption) *OfferRecommender {
	if l == nil {
		l = applogger.Nop()
	}
	r := &OfferRecommender{models: mp, metrics: metrics, l: l}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend returns the scored decision for c. Errors are either
// models.ErrModelsUnavailable (wrapped) or a *models.ScoringError.
func (r *OfferRecommender) Recommend(ctx context.Context, c models.CustomerFeatures) (*models.PredictResponse, error) {
	start := time.Now()
	defer func() { r.metrics.RecordLatency("recommend", time.Since(start).Seconds()) }()

	set, err := r.models.Models(ctx)
	if err != nil {
		r.metrics.RecordError("models_unavailable")
		return nil, err
	}

	key := ""
	if r.cache != nil {
		key = decisionKey(c, set)
		if resp, ok := r.cached(ctx, key); ok {
			r.metrics.RecordPrediction(string(resp.Decision.BestOffer))
			return resp, nil
		}
	}

	row := features.Prepare(c)

	var discount, bogo models.UpliftEstimate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		discount, err = uplift.Score(gctx, string(models.TreatmentDiscount), set.Discount, row)
		return err
	})
	g.Go(func() error {
		var err error
		bogo, err = uplift.Score(gctx, string(models.TreatmentBogo), set.Bogo, row)
		return err
	})
	if err := g.Wait(); err != nil {
		r.metrics.RecordError("scoring")
		r.l.Error("scoring failed", applogger.Error(err))
		return nil, err
	}

	decision := uplift.Decide(discount, bogo)
	r.metrics.RecordUplift(string(models.TreatmentDiscount), discount.Uplift)
	r.metrics.RecordUplift(string(models.TreatmentBogo), bogo.Uplift)
	r.metrics.RecordPrediction(string(decision.BestOffer))
	r.l.Debug("offer decided",
		applogger.String("offer", string(decision.BestOffer)),
		applogger.Float64("uplift_discount", discount.Uplift),
		applogger.Float64("uplift_bogo", bogo.Uplift),
	)

	resp := models.NewPredictResponse(models.Prediction{
		Decision: decision,
		Discount: discount,
		Bogo:     bogo,
		Row:      row,
	})
	if r.cache != nil {
		r.store(ctx, key, &resp)
	}
	return &resp, nil
}

// cache failures never fail a request
func (r *OfferRecommender) cached(ctx context.Context, key string) (*models.PredictResponse, bool) {
	b, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.metrics.RecordCache("error")
		r.l.Warn("decision cache get failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	if !ok {
		r.metrics.RecordCache("miss")
		return nil, false
	}
	var resp models.PredictResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		r.metrics.RecordCache("error")
		r.l.Warn("decision cache entry unreadable", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	r.metrics.RecordCache("hit")
	return &resp, true
}

func (r *OfferRecommender) store(ctx context.Context, key string, resp *models.PredictResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		r.l.Warn("decision cache encode failed", applogger.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, b, r.cacheTTL); err != nil {
		r.metrics.RecordCache("error")
		r.l.Warn("decision cache set failed", applogger.String("key", key), applogger.Error(err))
	}
}

// decisionKey hashes the raw input together with both model checksums, so a
// different artifact never serves a stale decision.
func decisionKey(c models.CustomerFeatures, set *ModelSet) string {
	b, _ := json.Marshal(struct {
		Customer models.CustomerFeatures
		Discount string
		Bogo     string
	}{c, set.DiscountChecksum, set.BogoChecksum})
	sum := sha256.Sum256(b)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
