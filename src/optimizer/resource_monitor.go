package optimizer

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

// GopsutilSampler reads process and system usage through gopsutil. Battery
// and GPU figures are reported as -1: this host class has no portable
// source for them, and the monitor treats negatives as "unknown".
type GopsutilSampler struct {
	proc *process.Process
}

func NewGopsutilSampler() (*GopsutilSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &GopsutilSampler{proc: proc}, nil
}

func (s *GopsutilSampler) Sample(ctx context.Context) (*models.ResourceSnapshot, error) {
	snap := &models.ResourceSnapshot{
		Timestamp:      time.Now(),
		LoadAvg1:       -1,
		GPUMemoryMB:    -1,
		BatteryPercent: -1,
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemoryPercent = vm.UsedPercent
	}
	if info, err := s.proc.MemoryInfoWithContext(ctx); err == nil {
		snap.ProcessMemoryMB = float64(info.RSS) / (1024 * 1024)
	}
	// Interval 0 measures since the previous call, which fits a periodic
	// sampler without blocking it.
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		snap.LoadAvg1 = avg.Load1
	}

	return snap, nil
}

// ResourceMonitor runs a background sampling loop and keeps exactly one
// current snapshot under a lock. CheckConstraints is a pure read and safe
// to call at any rate.
type ResourceMonitor struct {
	sampler  models.ResourceSampler
	interval time.Duration

	mu      sync.RWMutex
	current models.ResourceSnapshot

	cancel context.CancelFunc
	done   chan struct{}
}

func NewResourceMonitor(sampler models.ResourceSampler, interval time.Duration) *ResourceMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &ResourceMonitor{
		sampler: sampler,
		interval: interval,
		current: models.ResourceSnapshot{
			LoadAvg1:       -1,
			GPUMemoryMB:    -1,
			BatteryPercent: -1,
		},
	}
}

// Start launches the sampling loop. An immediate first sample is taken so
// Current is meaningful before the first tick.
func (m *ResourceMonitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	m.sampleOnce(ctx)

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sampleOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit.
func (m *ResourceMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

func (m *ResourceMonitor) sampleOnce(ctx context.Context) {
	snap, err := m.sampler.Sample(ctx)
	if err != nil {
		log.WithError(err).Debug("resource sample failed")
		return
	}
	m.mu.Lock()
	m.current = *snap
	m.mu.Unlock()
}

// Current returns a copy of the latest snapshot.
func (m *ResourceMonitor) Current() models.ResourceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CheckConstraints returns the subset of constraints currently violated.
// Unknown readings (negative) never count as violations.
func (m *ResourceMonitor) CheckConstraints(constraints config.ResourceConstraints) []models.ResourceViolation {
	snap := m.Current()

	var violations []models.ResourceViolation
	if constraints.MaxMemoryMB > 0 && snap.ProcessMemoryMB > constraints.MaxMemoryMB {
		violations = append(violations, models.ViolationMemory)
	}
	if constraints.MaxCPUPercent > 0 && snap.CPUPercent > constraints.MaxCPUPercent {
		violations = append(violations, models.ViolationCPU)
	}
	if constraints.MaxGPUMemoryMB > 0 && snap.GPUMemoryMB > constraints.MaxGPUMemoryMB {
		violations = append(violations, models.ViolationGPUMemory)
	}
	if constraints.BatteryThresholdPercent > 0 && snap.BatteryPercent >= 0 &&
		snap.BatteryPercent < constraints.BatteryThresholdPercent {
		violations = append(violations, models.ViolationBattery)
	}
	return violations
}
