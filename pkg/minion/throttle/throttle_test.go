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

package throttle

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"k8s.io/minion-scheduler/pkg/minion/queue"
	resourcetest "k8s.io/minion-scheduler/pkg/minion/resource/testing"
	"k8s.io/minion-scheduler/pkg/minion/types"
)

func relaxedConfig() Config {
	return Config{
		MaxStarting:   10,
		MaxCPUPercent: 80,
		MaxLoadAvg:    8,
		MaxIOPercent:  80,
		CPUWindow:     10 * time.Second,
		LoadWindow:    time.Minute,
		IOWindow:      10 * time.Second,
		MinRate:       0.1,
		MaxRate:       100,
		Burst:         100,
	}
}

func fillQueue(t *testing.T, q *queue.PendingQueue, now time.Time, n int) []types.ContainerKey {
	t.Helper()
	keys := make([]types.ContainerKey, n)
	for i := 0; i < n; i++ {
		keys[i] = types.ContainerKey{PodUID: "pod-1", Name: fmt.Sprintf("c%03d", i)}
		require.True(t, q.Enqueue(keys[i], now.Add(time.Duration(i)*time.Millisecond)))
	}
	return keys
}

func TestAdmitRespectsSlotCap(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	monitor := resourcetest.NewFakeMonitor()
	cfg := relaxedConfig()
	cfg.MaxStarting = 3
	a := NewAdmitter(cfg, monitor, fakeClock)

	q := queue.NewPendingQueue()
	fillQueue(t, q, fakeClock.Now(), 10)

	admitted := a.Admit(q, 1)
	assert.Len(t, admitted, 2, "only maxStarting-starting slots may be filled")
	assert.Equal(t, 8, q.Len())

	assert.Empty(t, a.Admit(q, 3), "no admissions at the cap")
}

func TestAdmitRejectsNegativeSlots(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	a := NewAdmitter(relaxedConfig(), resourcetest.NewFakeMonitor(), fakeClock)
	q := queue.NewPendingQueue()
	fillQueue(t, q, fakeClock.Now(), 1)

	// A starting count above the cap is an internal defect; the admitter
	// must refuse to act on it.
	assert.Empty(t, a.Admit(q, relaxedConfig().MaxStarting+1))
	assert.Equal(t, 1, q.Len())
}

func TestAdmitFIFO(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	a := NewAdmitter(relaxedConfig(), resourcetest.NewFakeMonitor(), fakeClock)
	q := queue.NewPendingQueue()
	keys := fillQueue(t, q, fakeClock.Now(), 5)

	admitted := a.Admit(q, 0)
	assert.Equal(t, keys, admitted, "admission order equals pending-queue entry order")
}

func TestResourceGateBlocksAdmission(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	monitor := resourcetest.NewFakeMonitor()
	cfg := relaxedConfig()
	cfg.MinRate = 0 // no floor; the gate decides alone
	a := NewAdmitter(cfg, monitor, fakeClock)
	q := queue.NewPendingQueue()
	fillQueue(t, q, fakeClock.Now(), 3)

	testCases := []struct {
		name          string
		cpu, load, io float64
		wantAdmitted  int
	}{
		{"all below thresholds", 10, 1, 5, 3},
		{"cpu over", 90, 1, 5, 0},
		{"load over", 10, 9, 5, 0},
		{"io over", 10, 1, 95, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			monitor.SetUtilization(tc.cpu, tc.load, tc.io)
			admitted := a.Admit(q, 0)
			assert.Len(t, admitted, tc.wantAdmitted)
			for _, k := range admitted {
				q.Enqueue(k, fakeClock.Now())
			}
		})
	}
}

func TestMonitorWithoutDataFailsClosed(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	monitor := resourcetest.NewFakeMonitor()
	monitor.SetNoData()
	cfg := relaxedConfig()
	cfg.MinRate = 0
	a := NewAdmitter(cfg, monitor, fakeClock)
	q := queue.NewPendingQueue()
	fillQueue(t, q, fakeClock.Now(), 1)

	assert.Empty(t, a.Admit(q, 0), "no data must read as over threshold")
}

func TestMinRateFloorUnderSustainedOverload(t *testing.T) {
	// One admission every 10 seconds must happen even though the gate
	// never opens.
	fakeClock := testingclock.NewFakeClock(time.Now())
	monitor := resourcetest.NewFakeMonitor()
	monitor.SetUtilization(100, 50, 100)
	cfg := relaxedConfig()
	cfg.MinRate = 0.1
	a := NewAdmitter(cfg, monitor, fakeClock)
	q := queue.NewPendingQueue()
	fillQueue(t, q, fakeClock.Now(), 3)

	assert.Empty(t, a.Admit(q, 0), "floor not yet due")

	fakeClock.Step(9 * time.Second)
	assert.Empty(t, a.Admit(q, 0), "floor not due at 9s")

	fakeClock.Step(time.Second)
	admitted := a.Admit(q, 0)
	require.Len(t, admitted, 1, "exactly one forced admission at the 10s mark")

	// The forced admission resets the floor.
	assert.Empty(t, a.Admit(q, 1))
	fakeClock.Step(10 * time.Second)
	assert.Len(t, a.Admit(q, 1), 1)
}

func TestMinRateFloorNeverBypassesSlotCap(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	monitor := resourcetest.NewFakeMonitor()
	monitor.SetUtilization(100, 50, 100)
	cfg := relaxedConfig()
	cfg.MaxStarting = 2
	a := NewAdmitter(cfg, monitor, fakeClock)
	q := queue.NewPendingQueue()
	fillQueue(t, q, fakeClock.Now(), 1)

	fakeClock.Step(time.Hour)
	assert.Empty(t, a.Admit(q, 2), "floor must not override the cap")
}

func TestMinRateFloorNeverBypassesTokenBucket(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	monitor := resourcetest.NewFakeMonitor()
	monitor.SetUtilization(100, 50, 100)
	cfg := relaxedConfig()
	cfg.MinRate = 1
	cfg.MaxRate = 0.01
	cfg.Burst = 1
	a := NewAdmitter(cfg, monitor, fakeClock)
	q := queue.NewPendingQueue()
	fillQueue(t, q, fakeClock.Now(), 2)

	fakeClock.Step(time.Second)
	require.Len(t, a.Admit(q, 0), 1, "first admission spends the only token")

	fakeClock.Step(time.Second)
	assert.Empty(t, a.Admit(q, 1), "floor due but bucket empty; no admission")
}

func TestBurstThenTrickle(t *testing.T) {
	// 100 containers become eligible at once: the burst admits 10
	// immediately, then admissions trickle at maxRate.
	fakeClock := testingclock.NewFakeClock(time.Now())
	monitor := resourcetest.NewFakeMonitor()
	cfg := relaxedConfig()
	cfg.MaxStarting = 1000
	cfg.MaxRate = 10
	cfg.Burst = 10
	a := NewAdmitter(cfg, monitor, fakeClock)
	q := queue.NewPendingQueue()
	fillQueue(t, q, fakeClock.Now(), 100)

	assert.Len(t, a.Admit(q, 0), 10, "initial burst")
	assert.Empty(t, a.Admit(q, 10), "bucket drained")

	fakeClock.Step(time.Second)
	assert.Len(t, a.Admit(q, 10), 10, "one second refills maxRate tokens")

	fakeClock.Step(500 * time.Millisecond)
	assert.Len(t, a.Admit(q, 20), 5)
}

func TestAdmitEmptyQueue(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	a := NewAdmitter(relaxedConfig(), resourcetest.NewFakeMonitor(), fakeClock)
	assert.Empty(t, a.Admit(queue.NewPendingQueue(), 0))
}
