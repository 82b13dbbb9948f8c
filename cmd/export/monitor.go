package main

import (
	"runtime"
	"sync"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/logger"
)

type ProfilerStats struct {
	PeakGoroutines int
	PeakMemoryMB   uint64
}

// MemoryMonitor samples goroutine count and heap size while snapshots are
// decoded; wide parquet files are the memory hot spot of an export.
type MemoryMonitor struct {
	mu    sync.Mutex
	stats ProfilerStats
	stop  chan struct{}
	done  chan struct{}
}

func NewMonitor() *MemoryMonitor {
	return &MemoryMonitor{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (m *MemoryMonitor) Start(interval time.Duration, appLogger *logger.Logger) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.update(appLogger)
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *MemoryMonitor) update(appLogger *logger.Logger) {
	const component = "Monitor"

	var mStats runtime.MemStats
	runtime.ReadMemStats(&mStats)

	currentGoroutines := runtime.NumGoroutine()
	currentMemoryMB := mStats.Alloc / 1024 / 1024

	m.mu.Lock()
	defer m.mu.Unlock()

	if currentGoroutines > m.stats.PeakGoroutines {
		m.stats.PeakGoroutines = currentGoroutines
	}
	if currentMemoryMB > m.stats.PeakMemoryMB {
		m.stats.PeakMemoryMB = currentMemoryMB
	}

	appLogger.Debug(component, "goroutines=%d memoryMB=%d peakGoroutines=%d peakMemoryMB=%d", currentGoroutines, currentMemoryMB, m.stats.PeakGoroutines, m.stats.PeakMemoryMB)
}

// Stop ends sampling and returns the peaks seen. It must be called once.
func (m *MemoryMonitor) Stop() ProfilerStats {
	close(m.stop)
	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
