package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"UpliftAPI/internal/domain/models"
	domrepo "UpliftAPI/internal/domain/repository"
)

// a logistic artifact whose treated/control probabilities are 0.75/0.5
const testArtifact = `{
	"name": "s_learner_%s",
	"version": "1",
	"kind": "logistic",
	"encoder": {
		"numeric": ["recency_log", "history_log", "is_referral", "used_discount", "used_bogo", "treat"],
		"categorical": {"zip_code": ["Rural", "Surburban", "Urban"], "channel": ["Multichannel", "Phone", "Web"]}
	},
	"logistic": {"intercept": 0, "coef": {"treat": 1.0986122886681098}}
}`

type fakeStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	fetches map[string]int
	delay   time.Duration
}

func newFakeStore(files map[string][]byte) *fakeStore {
	return &fakeStore{files: files, fetches: map[string]int{}}
}

func (s *fakeStore) Fetch(_ context.Context, name string) (*domrepo.Artifact, error) {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[name]++
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrArtifactMissing, name)
	}
	sum := sha256.Sum256(data)
	return &domrepo.Artifact{Name: name, Source: "mem://" + name, Data: data, Checksum: hex.EncodeToString(sum[:])}, nil
}

func (s *fakeStore) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[name]
}

// probModel returns fixed probabilities per branch and counts calls.
type probModel struct {
	treated, control float64
	err              error
	calls            atomic.Int64
}

func (m *probModel) PredictProba(_ context.Context, v models.TreatmentVariant) (float64, error) {
	m.calls.Add(1)
	if m.err != nil {
		return 0, m.err
	}
	if v.Treat == 1 {
		return m.treated, nil
	}
	return m.control, nil
}

type staticProvider struct {
	set *ModelSet
	err error
}

func (p staticProvider) Models(context.Context) (*ModelSet, error) { return p.set, p.err }

type fakeMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	errors      map[string]int
	cache       map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{predictions: map[string]int{}, errors: map[string]int{}, cache: map[string]int{}}
}

func (m *fakeMetrics) RecordPrediction(offer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[offer]++
}

func (m *fakeMetrics) RecordUplift(string, float64) {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordCache(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[result]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type mapCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}
