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

// Package throttle is the admission controller deciding which Pending
// containers enter Starting. Three mechanisms compose:
//
//   - a hard concurrency cap (maxStartingContainers), never bypassed;
//   - a token bucket bounding admission rate at maxRate with a burst;
//   - a resource gate over sliding-window CPU, load and IO, with a
//     minRate floor that bypasses the gate (and only the gate) so a
//     perpetually loaded host cannot livelock startup.
package throttle

import (
	"fmt"
	"time"

	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/util/flowcontrol"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"k8s.io/minion-scheduler/pkg/minion/metrics"
	"k8s.io/minion-scheduler/pkg/minion/queue"
	"k8s.io/minion-scheduler/pkg/minion/resource"
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// Config are the resolved (absolute, post per-core expansion) throttle
// settings for one minion.
type Config struct {
	// MaxStarting is the hard cap on concurrently Starting containers.
	MaxStarting int
	// MaxCPUPercent, MaxLoadAvg and MaxIOPercent are the resource gate
	// thresholds.
	MaxCPUPercent float64
	MaxLoadAvg    float64
	MaxIOPercent  float64
	// CPUWindow, LoadWindow and IOWindow are the averaging windows the
	// gate evaluates against.
	CPUWindow  time.Duration
	LoadWindow time.Duration
	IOWindow   time.Duration
	// MinRate is the livelock-avoidance floor in admissions per second.
	// Zero disables the floor.
	MinRate float64
	// MaxRate is the token refill rate in admissions per second.
	MaxRate float32
	// Burst is the token bucket capacity.
	Burst int
}

// Admitter holds the per-minion throttle state. It is owned by the
// scheduler loop and not safe for concurrent use.
type Admitter struct {
	cfg     Config
	monitor resource.Monitor
	clock   clock.PassiveClock
	limiter flowcontrol.PassiveRateLimiter

	lastAdmission time.Time
}

// NewAdmitter builds the admitter. lastAdmission starts at the current
// clock reading, so the minRate floor measures from construction, not
// from the zero time.
func NewAdmitter(cfg Config, monitor resource.Monitor, c clock.PassiveClock) *Admitter {
	return &Admitter{
		cfg:           cfg,
		monitor:       monitor,
		clock:         c,
		limiter:       flowcontrol.NewTokenBucketPassiveRateLimiterWithClock(cfg.MaxRate, cfg.Burst, c),
		lastAdmission: c.Now(),
	}
}

// Admit pops containers off the pending queue for as long as a slot, a
// token and an open gate (or the minRate floor) are all available, and
// returns the popped keys in admission order. startingCount is the
// number of containers currently in Starting.
func (a *Admitter) Admit(pending *queue.PendingQueue, startingCount int) []types.ContainerKey {
	available := a.cfg.MaxStarting - startingCount
	if available < 0 {
		// Starting count above the cap is an internal defect: the cap is
		// the structural guarantee for already-serving workloads.
		utilruntime.HandleError(fmt.Errorf("starting count %d exceeds cap %d", startingCount, a.cfg.MaxStarting))
		return nil
	}

	resourceOK := a.resourceOK()
	var admitted []types.ContainerKey
	for available > 0 && pending.Len() > 0 {
		forced := false
		if !resourceOK {
			if !a.forceDue() {
				break
			}
			forced = true
		}
		if !a.limiter.TryAccept() {
			break
		}
		key, ok := pending.Dequeue()
		if !ok {
			break
		}
		a.lastAdmission = a.clock.Now()
		available--
		admitted = append(admitted, key)
		metrics.Admissions.WithLabelValues(fmt.Sprint(forced)).Inc()
		if forced {
			klog.V(2).InfoS("Admission forced by minRate floor despite resource pressure", "container", key)
		}
	}
	return admitted
}

// resourceOK evaluates the gate. A window with no data counts as over
// threshold so unknown host conditions never admit optimistically.
func (a *Admitter) resourceOK() bool {
	cpu, ok := a.monitor.CPUAverage(a.cfg.CPUWindow)
	if !ok || cpu >= a.cfg.MaxCPUPercent {
		return false
	}
	load, ok := a.monitor.LoadAverage(a.cfg.LoadWindow)
	if !ok || load >= a.cfg.MaxLoadAvg {
		return false
	}
	io, ok := a.monitor.IOAverage(a.cfg.IOWindow)
	if !ok || io >= a.cfg.MaxIOPercent {
		return false
	}
	return true
}

// forceDue reports whether the minRate floor entitles an admission:
// at least 1/minRate has elapsed since the last one. The floor bypasses
// the resource gate only, never the slot cap or the token bucket.
func (a *Admitter) forceDue() bool {
	if a.cfg.MinRate <= 0 {
		return false
	}
	minInterval := time.Duration(float64(time.Second) / a.cfg.MinRate)
	return a.clock.Since(a.lastAdmission) >= minInterval
}
