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

package prober

import (
	"context"
	"time"

	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/klog/v2"

	"k8s.io/minion-scheduler/pkg/minion/prober/results"
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// worker probes one Starting container. Each worker has a goroutine
// that probes at the configured period until the first success, the
// failure deadline, or a stop signal, whichever comes first. Exactly
// one results.Update is sent for the first two cases; none for a stop.
type worker struct {
	manager *manager

	key     types.ContainerKey
	check   types.LivenessCheck
	period  time.Duration
	timeout time.Duration
	// startedAt is when the container entered Starting; the failure
	// deadline is measured from it, not from worker creation.
	startedAt time.Time

	// Buffered so stop() never blocks.
	stopCh chan struct{}
}

func newWorker(m *manager, key types.ContainerKey, spec types.ContainerSpec, startedAt time.Time) *worker {
	w := &worker{
		manager:   m,
		key:       key,
		check:     spec.Liveness,
		period:    m.defaultPeriod,
		timeout:   m.defaultTimeout,
		startedAt: startedAt,
		stopCh:    make(chan struct{}, 1),
	}
	if spec.Liveness.PeriodSeconds > 0 {
		w.period = time.Duration(spec.Liveness.PeriodSeconds) * time.Second
	}
	if spec.FailureTimeoutSeconds > 0 {
		w.timeout = time.Duration(spec.FailureTimeoutSeconds) * time.Second
	}
	return w
}

// run is the worker goroutine body.
func (w *worker) run() {
	defer func() {
		w.manager.removeWorker(w.key)
	}()
	defer utilruntime.HandleCrash()

	deadline := w.startedAt.Add(w.timeout)
	remaining := deadline.Sub(w.manager.clock.Now())
	if remaining <= 0 {
		w.manager.deliver(results.Update{Key: w.key, Result: results.Timeout})
		return
	}
	deadlineTimer := w.manager.clock.NewTimer(remaining)
	defer deadlineTimer.Stop()

	ticker := w.manager.clock.NewTicker(w.period)
	defer ticker.Stop()

	// Probe once immediately so a no-check container does not wait a
	// full period to become Ready.
	for {
		if w.probeOnce() {
			w.manager.deliver(results.Update{Key: w.key, Result: results.Success})
			return
		}
		select {
		case <-w.stopCh:
			return
		case <-deadlineTimer.C():
			w.manager.deliver(results.Update{Key: w.key, Result: results.Timeout})
			return
		case <-ticker.C():
		}
	}
}

// probeOnce runs a single liveness check attempt.
func (w *worker) probeOnce() bool {
	ctx, cancel := context.WithTimeout(context.Background(), w.period)
	defer cancel()

	ok, err := w.manager.checker.Check(ctx, w.check)
	if err != nil {
		// Checker errors are thrown away; the deadline decides failure.
		klog.V(3).InfoS("Liveness check errored", "container", w.key, "err", err)
		return false
	}
	return ok
}

// stop signals the worker to exit without delivering a result. Safe to
// call more than once.
func (w *worker) stop() {
	select {
	case w.stopCh <- struct{}{}:
	default:
	}
}
