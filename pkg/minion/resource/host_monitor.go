/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package resource

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/blockdevice"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
)

// sample is one point-in-time reading derived from two consecutive
// procfs scrapes.
type sample struct {
	at         time.Time
	cpuPercent float64
	load1      float64
	ioPercent  float64
}

// HostMonitor samples /proc at a fixed interval and answers windowed
// averages from a ring of recent samples.
type HostMonitor struct {
	procFS   procfs.FS
	blockFS  blockdevice.FS
	interval time.Duration
	clock    clock.WithTicker
	cores    int

	mu      sync.Mutex
	samples []sample
	maxKeep int

	// previous scrape, for rate computation
	lastCPUBusy  float64
	lastCPUTotal float64
	lastIOTicks  uint64
	lastScrapeAt time.Time
	haveLast     bool
}

// NewHostMonitor builds a monitor over the given proc and sys mount
// points. keepWindow bounds how much history is retained and should be
// at least the largest averaging window the throttle config uses.
func NewHostMonitor(procMount, sysMount string, interval, keepWindow time.Duration, c clock.WithTicker) (*HostMonitor, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %v", interval)
	}
	procFS, err := procfs.NewFS(procMount)
	if err != nil {
		return nil, fmt.Errorf("opening procfs at %s: %w", procMount, err)
	}
	blockFS, err := blockdevice.NewFS(procMount, sysMount)
	if err != nil {
		return nil, fmt.Errorf("opening blockdevice fs: %w", err)
	}
	cores := runtime.NumCPU()
	if stat, err := procFS.Stat(); err == nil && len(stat.CPU) > 0 {
		cores = len(stat.CPU)
	}
	maxKeep := int(keepWindow/interval) + 1
	if maxKeep < 2 {
		maxKeep = 2
	}
	return &HostMonitor{
		procFS:   procFS,
		blockFS:  blockFS,
		interval: interval,
		clock:    c,
		cores:    cores,
		maxKeep:  maxKeep,
	}, nil
}

// Run samples until the context is cancelled. It is meant to be run in
// its own goroutine; readers see samples through the Monitor methods.
// Pacing comes from the injected clock, the same source the sample
// timestamps and window cutoffs use.
func (m *HostMonitor) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		if err := m.scrape(); err != nil {
			klog.ErrorS(err, "Host resource scrape failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

func (m *HostMonitor) scrape() error {
	now := m.clock.Now()

	stat, err := m.procFS.Stat()
	if err != nil {
		return fmt.Errorf("reading /proc/stat: %w", err)
	}
	cpu := stat.CPUTotal
	busy := cpu.User + cpu.Nice + cpu.System + cpu.IRQ + cpu.SoftIRQ + cpu.Steal
	total := busy + cpu.Idle + cpu.Iowait

	loadavg, err := m.procFS.LoadAvg()
	if err != nil {
		return fmt.Errorf("reading /proc/loadavg: %w", err)
	}

	ioTicks, err := m.busiestDeviceTicks()
	if err != nil {
		return fmt.Errorf("reading diskstats: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.haveLast {
		s := sample{at: now, load1: loadavg.Load1}
		if dt := total - m.lastCPUTotal; dt > 0 {
			s.cpuPercent = 100 * (busy - m.lastCPUBusy) / dt
		}
		if wall := now.Sub(m.lastScrapeAt); wall > 0 && ioTicks >= m.lastIOTicks {
			// IOsTotalTicks is milliseconds with IO in flight.
			s.ioPercent = 100 * float64(ioTicks-m.lastIOTicks) / float64(wall.Milliseconds())
			if s.ioPercent > 100 {
				s.ioPercent = 100
			}
		}
		m.samples = append(m.samples, s)
		if len(m.samples) > m.maxKeep {
			m.samples = m.samples[len(m.samples)-m.maxKeep:]
		}
	}
	m.lastCPUBusy = busy
	m.lastCPUTotal = total
	m.lastIOTicks = ioTicks
	m.lastScrapeAt = now
	m.haveLast = true
	return nil
}

// busiestDeviceTicks returns the largest cumulative IO-busy tick count
// across block devices. The busiest device dominates the utilization
// signal the admission gate cares about.
func (m *HostMonitor) busiestDeviceTicks() (uint64, error) {
	stats, err := m.blockFS.ProcDiskstats()
	if err != nil {
		return 0, err
	}
	var max uint64
	for _, d := range stats {
		if d.IOStats.IOsTotalTicks > max {
			max = d.IOStats.IOsTotalTicks
		}
	}
	return max, nil
}

func (m *HostMonitor) CPUAverage(window time.Duration) (float64, bool) {
	return m.average(window, func(s sample) float64 { return s.cpuPercent })
}

func (m *HostMonitor) LoadAverage(window time.Duration) (float64, bool) {
	return m.average(window, func(s sample) float64 { return s.load1 })
}

func (m *HostMonitor) IOAverage(window time.Duration) (float64, bool) {
	return m.average(window, func(s sample) float64 { return s.ioPercent })
}

func (m *HostMonitor) CoreCount() int {
	return m.cores
}

func (m *HostMonitor) average(window time.Duration, value func(sample) float64) (float64, bool) {
	cutoff := m.clock.Now().Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	var sum float64
	var n int
	for i := len(m.samples) - 1; i >= 0; i-- {
		if m.samples[i].at.Before(cutoff) {
			break
		}
		sum += value(m.samples[i])
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
