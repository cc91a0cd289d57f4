package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"UpliftAPI/internal/domain/models"
	domrepo "UpliftAPI/internal/domain/repository"
	domsvc "UpliftAPI/internal/domain/service"
	"UpliftAPI/internal/services/model"
	applogger "UpliftAPI/pkg/logger"
)

// ModelHostConfig names the two artifacts and how long one load may take.
type ModelHostConfig struct {
	Discount string
	Bogo     string
	Timeout  time.Duration
}

// ModelSet is the pair of classifiers used for one request.
type ModelSet struct {
	Discount         domsvc.ScoringModel
	Bogo             domsvc.ScoringModel
	DiscountChecksum string
	BogoChecksum     string
}

type loadedModel struct {
	model *model.Model
	info  models.ModelInfo
}

type modelSlot struct {
	load   func() (*loadedModel, error)
	ready  atomic.Pointer[loadedModel]
	failed atomic.Pointer[error]
}

// ModelHost owns the process-wide classifiers. Each model is fetched and decoded
// at most once; the outcome, success or failure, is kept for the process lifetime.
type ModelHost struct {
	store   domrepo.ArtifactStore
	opts    []model.DecodeOption
	timeout time.Duration
	l       *applogger.Logger

	discount *modelSlot
	bogo     *modelSlot
}

func NewModelHost(store domrepo.ArtifactStore, cfg ModelHostConfig, l *applogger.Logger, opts ...model.DecodeOption) *ModelHost {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if l == nil {
		l = applogger.Nop()
	}
	h := &ModelHost{store: store, opts: opts, timeout: cfg.Timeout, l: l}
	h.discount = h.newSlot(models.TreatmentDiscount, cfg.Discount)
	h.bogo = h.newSlot(models.TreatmentBogo, cfg.Bogo)
	return h
}

func (h *ModelHost) newSlot(t models.Treatment, file string) *modelSlot {
	s := &modelSlot{}
	s.load = sync.OnceValues(func() (*loadedModel, error) {
		lm, err := h.loadOne(t, file)
		if err != nil {
			h.l.Error("model load failed",
				applogger.String("treatment", string(t)),
				applogger.String("file", file),
				applogger.Error(err),
			)
			s.failed.Store(&err)
			return nil, err
		}
		s.ready.Store(lm)
		return lm, nil
	})
	return s
}

// loadOne is detached from any request context so a cancelled first request
// cannot poison the memoised result.
func (h *ModelHost) loadOne(t models.Treatment, file string) (*loadedModel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	start := time.Now()
	a, err := h.store.Fetch(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("load %s model: %w", t, err)
	}
	m, err := model.Decode(a.Data, h.opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s model from %s: %w", t, a.Source, err)
	}

	h.l.Info("model ready",
		applogger.String("treatment", string(t)),
		applogger.String("name", m.Name),
		applogger.String("kind", m.Kind),
		applogger.String("version", m.Version),
		applogger.Duration("took", time.Since(start)),
	)
	return &loadedModel{
		model: m,
		info: models.ModelInfo{
			Treatment: t,
			Name:      m.Name,
			Kind:      m.Kind,
			Version:   m.Version,
			Source:    a.Source,
			Checksum:  a.Checksum,
		},
	}, nil
}

// Load loads both models and returns the first failure, unwrapped, so callers
// can classify it with errors.Is(err, models.ErrArtifactMissing) and friends.
func (h *ModelHost) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := h.discount.load(); err != nil {
		return err
	}
	if _, err := h.bogo.load(); err != nil {
		return err
	}
	return nil
}

// Models returns the loaded pair, loading on first use. Failures wrap
// models.ErrModelsUnavailable around the load error.
func (h *ModelHost) Models(ctx context.Context) (*ModelSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := h.discount.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrModelsUnavailable, err)
	}
	b, err := h.bogo.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrModelsUnavailable, err)
	}
	return &ModelSet{
		Discount:         d.model,
		Bogo:             b.model,
		DiscountChecksum: d.info.Checksum,
		BogoChecksum:     b.info.Checksum,
	}, nil
}

// Ready reports whether both models are loaded, without triggering a load.
func (h *ModelHost) Ready() bool {
	return h.discount.ready.Load() != nil && h.bogo.ready.Load() != nil
}

// LoadError returns the memoised load failure, if any, without triggering a load.
func (h *ModelHost) LoadError() error {
	for _, s := range []*modelSlot{h.discount, h.bogo} {
		if err := s.failed.Load(); err != nil {
			return *err
		}
	}
	return nil
}

// Info describes the models loaded so far.
func (h *ModelHost) Info() []models.ModelInfo {
	out := make([]models.ModelInfo, 0, 2)
	for _, s := range []*modelSlot{h.discount, h.bogo} {
		if lm := s.ready.Load(); lm != nil {
			out = append(out, lm.info)
		}
	}
	return out
}
