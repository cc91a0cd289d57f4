package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"UpliftAPI/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hostConfig = ModelHostConfig{Discount: "model_discount.json", Bogo: "model_bogo.json", Timeout: time.Second}

func validFiles() map[string][]byte {
	return map[string][]byte{
		"model_discount.json": []byte(fmt.Sprintf(testArtifact, "discount")),
		"model_bogo.json":     []byte(fmt.Sprintf(testArtifact, "bogo")),
	}
}

func TestModelHostEagerLoad(t *testing.T) {
	store := newFakeStore(validFiles())
	h := NewModelHost(store, hostConfig, nil)

	assert.False(t, h.Ready())
	assert.Empty(t, h.Info())

	require.NoError(t, h.Load(context.Background()))
	assert.True(t, h.Ready())
	assert.NoError(t, h.LoadError())

	info := h.Info()
	require.Len(t, info, 2)
	assert.Equal(t, models.TreatmentDiscount, info[0].Treatment)
	assert.Equal(t, "s_learner_discount", info[0].Name)
	assert.Equal(t, "logistic", info[0].Kind)
	assert.Equal(t, "mem://model_discount.json", info[0].Source)
	assert.Len(t, info[0].Checksum, 64)
	assert.Equal(t, models.TreatmentBogo, info[1].Treatment)

	set, err := h.Models(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, set.DiscountChecksum, set.BogoChecksum)

	p, err := set.Discount.PredictProba(context.Background(), models.FeatureRow{ZipCode: "Rural", Channel: "Web"}.WithTreatment(1))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, p, 1e-9)

	// already loaded: no refetch
	require.NoError(t, h.Load(context.Background()))
	assert.Equal(t, 1, store.count("model_discount.json"))
	assert.Equal(t, 1, store.count("model_bogo.json"))
}

func TestModelHostConcurrentFirstUseLoadsOnce(t *testing.T) {
	store := newFakeStore(validFiles())
	store.delay = 20 * time.Millisecond
	h := NewModelHost(store, hostConfig, nil)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Models(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, store.count("model_discount.json"))
	assert.Equal(t, 1, store.count("model_bogo.json"))
}

func TestModelHostMissingArtifact(t *testing.T) {
	files := validFiles()
	delete(files, "model_bogo.json")
	store := newFakeStore(files)
	h := NewModelHost(store, hostConfig, nil)

	err := h.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrArtifactMissing)
	assert.NotErrorIs(t, err, models.ErrModelsUnavailable)

	_, err = h.Models(context.Background())
	assert.ErrorIs(t, err, models.ErrModelsUnavailable)
	assert.ErrorIs(t, err, models.ErrArtifactMissing)

	// the failure is memoised
	_, _ = h.Models(context.Background())
	assert.Equal(t, 1, store.count("model_bogo.json"))
	assert.False(t, h.Ready())
	assert.Len(t, h.Info(), 1)
	assert.ErrorIs(t, h.LoadError(), models.ErrArtifactMissing)
}

func TestModelHostCorruptArtifact(t *testing.T) {
	files := validFiles()
	files["model_discount.json"] = []byte(`{"kind": "logistic", "encoder": `)
	h := NewModelHost(newFakeStore(files), hostConfig, nil)

	err := h.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrArtifactCorrupt)
}

func TestModelHostCanceledCaller(t *testing.T) {
	h := NewModelHost(newFakeStore(validFiles()), hostConfig, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Models(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// a cancelled caller does not poison later loads
	_, err = h.Models(context.Background())
	assert.NoError(t, err)
}
