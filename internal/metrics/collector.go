package metrics

import (
	"math"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/kimberlykao/gifforge/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	ActiveSessions    int
	TotalFiles        int
	CachedConversions int
	CacheBytes        int64
	UploadBytes       int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	lastGCRuns    uint32
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectRuntime()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	ActiveSessions.Set(float64(stats.ActiveSessions))
	SessionFilesTotal.Set(float64(stats.TotalFiles))
	SessionUploadBytes.Set(float64(stats.UploadBytes))
	ConversionCacheEntries.Set(float64(stats.CachedConversions))
	ConversionCacheBytes.Set(float64(stats.CacheBytes))

	logging.Debug("Metrics collected: sessions=%d, files=%d, cached=%d, cache_bytes=%d",
		stats.ActiveSessions, stats.TotalFiles, stats.CachedConversions, stats.CacheBytes)
}

func (c *Collector) collectRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	GoMemAllocBytes.Set(float64(m.Alloc))
	GoMemSysBytes.Set(float64(m.Sys))

	// Passing -1 reads the current limit without changing it. An unset
	// limit comes back as MaxInt64, reported as -1 instead.
	limit := debug.SetMemoryLimit(-1)
	if limit == math.MaxInt64 {
		GoMemLimit.Set(-1)
	} else {
		GoMemLimit.Set(float64(limit))
	}

	if delta := m.NumGC - c.lastGCRuns; delta > 0 {
		GoGCRuns.Add(float64(delta))
		c.lastGCRuns = m.NumGC
	}
}
