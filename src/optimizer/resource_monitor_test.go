package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/mocks"
	"github.com/vanta-labs/vanta/src/models"
)

func testConstraints() config.ResourceConstraints {
	return config.ResourceConstraints{
		MaxMemoryMB:             8192,
		MaxCPUPercent:           80,
		MaxGPUMemoryMB:          4096,
		TargetLatencyMs:         2000,
		MaxCostPerRequest:       0.05,
		BatteryThresholdPercent: 20,
	}
}

func TestResourceMonitor_StartSamplesImmediately(t *testing.T) {
	sampler := &mocks.StaticSampler{Snapshot: models.ResourceSnapshot{
		ProcessMemoryMB: 1234,
		CPUPercent:      42,
		BatteryPercent:  -1,
		GPUMemoryMB:     -1,
	}}
	m := NewResourceMonitor(sampler, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	snap := m.Current()
	assert.Equal(t, 1234.0, snap.ProcessMemoryMB)
	assert.Equal(t, 42.0, snap.CPUPercent)
}

func TestResourceMonitor_NoViolationsWhenIdle(t *testing.T) {
	m := NewResourceMonitor(&mocks.StaticSampler{Snapshot: models.ResourceSnapshot{
		ProcessMemoryMB: 512,
		CPUPercent:      10,
		BatteryPercent:  -1,
		GPUMemoryMB:     -1,
	}}, time.Minute)
	m.sampleOnce(context.Background())

	assert.Empty(t, m.CheckConstraints(testConstraints()))
}

func TestResourceMonitor_DetectsViolations(t *testing.T) {
	m := NewResourceMonitor(&mocks.StaticSampler{Snapshot: models.ResourceSnapshot{
		ProcessMemoryMB: 9000,
		CPUPercent:      95,
		GPUMemoryMB:     5000,
		BatteryPercent:  15,
	}}, time.Minute)
	m.sampleOnce(context.Background())

	violations := m.CheckConstraints(testConstraints())

	assert.Contains(t, violations, models.ViolationMemory)
	assert.Contains(t, violations, models.ViolationCPU)
	assert.Contains(t, violations, models.ViolationGPUMemory)
	assert.Contains(t, violations, models.ViolationBattery)
}

func TestResourceMonitor_UnknownReadingsNeverViolate(t *testing.T) {
	m := NewResourceMonitor(&mocks.StaticSampler{Snapshot: models.ResourceSnapshot{
		ProcessMemoryMB: 512,
		CPUPercent:      10,
		GPUMemoryMB:     -1,
		BatteryPercent:  -1,
	}}, time.Minute)
	m.sampleOnce(context.Background())

	violations := m.CheckConstraints(testConstraints())

	assert.NotContains(t, violations, models.ViolationGPUMemory)
	assert.NotContains(t, violations, models.ViolationBattery)
}

func TestResourceMonitor_StopHaltsLoop(t *testing.T) {
	m := NewResourceMonitor(&mocks.StaticSampler{Snapshot: models.ResourceSnapshot{}}, time.Millisecond)

	m.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	m.Stop()
}
