package logger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_WritesTypedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	l.With(String("component", "scorer")).Info("scored",
		String("offer", "Discount"),
		Int("count", 2),
		Float64("uplift", 0.25),
		Bool("cached", true),
		Error(nil),
	)
	l.Error("scoring failed", Error(errors.New("boom")))

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "scorer", lines[0]["component"])
	assert.Equal(t, "Discount", lines[0]["offer"])
	assert.EqualValues(t, 2, lines[0]["count"])
	assert.EqualValues(t, 0.25, lines[0]["uplift"])
	assert.Equal(t, true, lines[0]["cached"])
	assert.NotContains(t, lines[0], "error")
	assert.Contains(t, lines[0]["caller"], "logger_test.go")

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	require.Error(t, err)
}

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
	err     error
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return p.err
}

func (p *recordingPublisher) snapshot() [][]AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]AggregatedLogEntry(nil), p.batches...)
}

func TestCollector_DeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "uplift-logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "scoring failed", map[string]any{"model": "discount"}, "/x.go:1")
	}
	c.AddLog("error", "scoring failed", map[string]any{"model": "bogo"}, "/x.go:1")
	c.Close()
	c.Close()

	batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"uplift-logs"}, pub.topics)

	counts := map[string]int{}
	for _, e := range batches[0] {
		counts[e.Fields["model"].(string)] = e.Count
	}
	assert.Equal(t, map[string]int{"discount": 3, "bogo": 1}, counts)
}

func TestCollector_FlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "c")
	c.AddLog("error", "b", nil, "c")

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, pub.snapshot()[0], 2)
}

func TestCollector_ReportsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	var (
		mu   sync.Mutex
		seen []error
	)
	c := NewLogCollector(&CollectionConfig{
		TimeInterval: time.Hour,
		Publisher:    pub,
		OnPublishError: func(err error) {
			mu.Lock()
			seen = append(seen, err)
			mu.Unlock()
		},
	})

	c.AddLog("error", "a", nil, "c")
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.EqualError(t, seen[0], "broker down")
}

func TestLogger_ErrorFeedsCollector(t *testing.T) {
	pub := &recordingPublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})

	l.Info("ignored")
	l.Error("model load failed", String("model", "discount"), Duration("took", 1500*time.Millisecond))
	l.RemoveCollector()

	batches := pub.snapshot()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	e := batches[0][0]
	assert.Equal(t, "model load failed", e.Message)
	assert.Equal(t, "discount", e.Fields["model"])
	assert.EqualValues(t, 1500, e.Fields["took"])
	assert.Contains(t, e.Caller, "logger_test.go")
}
