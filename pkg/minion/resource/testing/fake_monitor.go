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

package testing

import (
	"sync"
	"time"
)

// FakeMonitor is a scriptable resource monitor for tests. All state is
// behind the setters so concurrent readers never race a test's writes.
// Scripting no data simulates a monitor without samples, which the
// throttle engine must treat as over threshold.
type FakeMonitor struct {
	mu      sync.Mutex
	cpu     float64
	load    float64
	io      float64
	hasData bool
	cores   int
}

// NewFakeMonitor returns a monitor reporting an idle 4-core host.
func NewFakeMonitor() *FakeMonitor {
	return &FakeMonitor{hasData: true, cores: 4}
}

func (f *FakeMonitor) CPUAverage(time.Duration) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cpu, f.hasData
}

func (f *FakeMonitor) LoadAverage(time.Duration) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load, f.hasData
}

func (f *FakeMonitor) IOAverage(time.Duration) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.io, f.hasData
}

func (f *FakeMonitor) CoreCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cores
}

// SetUtilization updates all three signals at once.
func (f *FakeMonitor) SetUtilization(cpu, load, io float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cpu, f.load, f.io = cpu, load, io
	f.hasData = true
}

// SetNoData makes every windowed average report no data.
func (f *FakeMonitor) SetNoData() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hasData = false
}

// SetCoreCount overrides the reported core count.
func (f *FakeMonitor) SetCoreCount(cores int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cores = cores
}
