// Package metrics collects service counters for the QA pipeline.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks query, retrieval, generation, and ingestion activity. All
// counters are safe for concurrent use.
type Metrics struct {
	queriesTotal  uint64
	queriesErrors uint64
	cacheHits     uint64
	cacheMisses   uint64

	retrievalTotal    uint64
	retrievalErrors   uint64
	retrievalDuration float64

	generationTotal    uint64
	generationErrors   uint64
	generationDuration float64
	tierUsage          sync.Map // tier name -> *uint64

	filesIngested uint64
	chunksIndexed uint64
	ingestErrors  uint64

	durationMu sync.Mutex
	startTime  time.Time
}

var (
	global *Metrics
	once   sync.Once
)

// Get returns the process-wide metrics instance.
func Get() *Metrics {
	once.Do(func() {
		global = &Metrics{startTime: time.Now()}
	})
	return global
}

// RecordQuery records one query and its cache outcome.
func (m *Metrics) RecordQuery(cacheHit bool, err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesErrors, 1)
		return
	}
	if cacheHit {
		atomic.AddUint64(&m.cacheHits, 1)
	} else {
		atomic.AddUint64(&m.cacheMisses, 1)
	}
}

// RecordRetrieval records one similarity search.
func (m *Metrics) RecordRetrieval(duration time.Duration, err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
		return
	}
	m.durationMu.Lock()
	m.retrievalDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordGeneration records one composed answer and which tier produced it.
func (m *Metrics) RecordGeneration(tier string, duration time.Duration, err error) {
	atomic.AddUint64(&m.generationTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.generationErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.generationDuration += duration.Seconds()
	m.durationMu.Unlock()

	counter, _ := m.tierUsage.LoadOrStore(tier, new(uint64))
	atomic.AddUint64(counter.(*uint64), 1)
}

// RecordIngest records one ingestion run.
func (m *Metrics) RecordIngest(files, chunks int, err error) {
	if err != nil {
		atomic.AddUint64(&m.ingestErrors, 1)
		return
	}
	atomic.AddUint64(&m.filesIngested, uint64(files))
	atomic.AddUint64(&m.chunksIndexed, uint64(chunks))
}

// Stats returns a snapshot for the stats endpoint.
func (m *Metrics) Stats() map[string]interface{} {
	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	generationDuration := m.generationDuration
	m.durationMu.Unlock()

	hits := atomic.LoadUint64(&m.cacheHits)
	misses := atomic.LoadUint64(&m.cacheMisses)
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	retrievalTotal := atomic.LoadUint64(&m.retrievalTotal)
	avgRetrieval := 0.0
	if retrievalTotal > 0 {
		avgRetrieval = retrievalDuration / float64(retrievalTotal)
	}

	generationTotal := atomic.LoadUint64(&m.generationTotal)
	avgGeneration := 0.0
	if generationTotal > 0 {
		avgGeneration = generationDuration / float64(generationTotal)
	}

	tiers := make(map[string]uint64)
	m.tierUsage.Range(func(key, value any) bool {
		tiers[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	return map[string]interface{}{
		"queries": map[string]interface{}{
			"total":          atomic.LoadUint64(&m.queriesTotal),
			"errors":         atomic.LoadUint64(&m.queriesErrors),
			"cache_hits":     hits,
			"cache_misses":   misses,
			"cache_hit_rate": hitRate,
		},
		"retrieval": map[string]interface{}{
			"total":             retrievalTotal,
			"errors":            atomic.LoadUint64(&m.retrievalErrors),
			"avg_duration_secs": avgRetrieval,
		},
		"generation": map[string]interface{}{
			"total":             generationTotal,
			"errors":            atomic.LoadUint64(&m.generationErrors),
			"avg_duration_secs": avgGeneration,
			"tiers":             tiers,
		},
		"ingestion": map[string]interface{}{
			"files_ingested": atomic.LoadUint64(&m.filesIngested),
			"chunks_indexed": atomic.LoadUint64(&m.chunksIndexed),
			"errors":         atomic.LoadUint64(&m.ingestErrors),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset clears all counters. Test use only.
func (m *Metrics) Reset() {
	atomic.StoreUint64(&m.queriesTotal, 0)
	atomic.StoreUint64(&m.queriesErrors, 0)
	atomic.StoreUint64(&m.cacheHits, 0)
	atomic.StoreUint64(&m.cacheMisses, 0)
	atomic.StoreUint64(&m.retrievalTotal, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.generationTotal, 0)
	atomic.StoreUint64(&m.generationErrors, 0)
	atomic.StoreUint64(&m.filesIngested, 0)
	atomic.StoreUint64(&m.chunksIndexed, 0)
	atomic.StoreUint64(&m.ingestErrors, 0)

	m.tierUsage.Range(func(key, _ any) bool {
		m.tierUsage.Delete(key)
		return true
	})

	m.durationMu.Lock()
	m.retrievalDuration = 0
	m.generationDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
