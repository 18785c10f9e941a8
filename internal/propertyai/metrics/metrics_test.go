package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordQuery(t *testing.T) {
	m := Get()
	m.Reset()

	m.RecordQuery(true, nil)
	m.RecordQuery(false, nil)
	m.RecordQuery(false, errors.New("boom"))

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})
	assert.Equal(t, uint64(3), queries["total"])
	assert.Equal(t, uint64(1), queries["errors"])
	assert.Equal(t, uint64(1), queries["cache_hits"])
	assert.Equal(t, uint64(1), queries["cache_misses"])
	assert.Equal(t, 0.5, queries["cache_hit_rate"])
}

func TestMetrics_RecordGenerationTiers(t *testing.T) {
	m := Get()
	m.Reset()

	m.RecordGeneration("primary", 10*time.Millisecond, nil)
	m.RecordGeneration("primary", 10*time.Millisecond, nil)
	m.RecordGeneration("local", time.Millisecond, nil)

	stats := m.Stats()
	generation := stats["generation"].(map[string]interface{})
	tiers := generation["tiers"].(map[string]uint64)
	assert.Equal(t, uint64(2), tiers["primary"])
	assert.Equal(t, uint64(1), tiers["local"])
	assert.Equal(t, uint64(3), generation["total"])
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m := Get()
	m.Reset()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordQuery(false, nil)
			m.RecordRetrieval(time.Millisecond, nil)
			m.RecordGeneration("local", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})
	require.Equal(t, uint64(50), queries["total"])
	retrieval := stats["retrieval"].(map[string]interface{})
	require.Equal(t, uint64(50), retrieval["total"])
}

func TestGet_Singleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}
