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

// Package prober is the readiness monitor: it polls liveness signals
// for Starting containers and reports the first success or the failure
// timeout back to the scheduler loop as results updates.
package prober

import (
	"sync"
	"time"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"k8s.io/minion-scheduler/pkg/minion/prober/results"
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// Manager starts and stops probe workers for Starting containers.
type Manager interface {
	// AddContainer starts probing the container. startedAt is when it
	// entered Starting; the failure deadline runs from there.
	AddContainer(key types.ContainerKey, spec types.ContainerSpec, startedAt time.Time)
	// RemoveContainer stops probing without a result, for containers
	// leaving Starting for reasons the prober did not decide (pod
	// deletion).
	RemoveContainer(key types.ContainerKey)
	// Updates delivers one update per probed container.
	Updates() <-chan results.Update
}

type manager struct {
	checker        Checker
	clock          clock.WithTicker
	defaultPeriod  time.Duration
	defaultTimeout time.Duration

	updates chan results.Update

	// workerLock guards workers; workers remove themselves from their
	// own goroutines.
	workerLock sync.Mutex
	workers    map[types.ContainerKey]*worker
}

// NewManager builds a readiness monitor. defaultPeriod and
// defaultTimeout apply to containers whose spec leaves them zero.
func NewManager(checker Checker, c clock.WithTicker, defaultPeriod, defaultTimeout time.Duration) Manager {
	return &manager{
		checker:        checker,
		clock:          c,
		defaultPeriod:  defaultPeriod,
		defaultTimeout: defaultTimeout,
		updates:        make(chan results.Update, 64),
		workers:        make(map[types.ContainerKey]*worker),
	}
}

func (m *manager) AddContainer(key types.ContainerKey, spec types.ContainerSpec, startedAt time.Time) {
	m.workerLock.Lock()
	defer m.workerLock.Unlock()
	if _, exists := m.workers[key]; exists {
		klog.ErrorS(nil, "Probe worker already exists", "container", key)
		return
	}
	w := newWorker(m, key, spec, startedAt)
	m.workers[key] = w
	go w.run()
}

func (m *manager) RemoveContainer(key types.ContainerKey) {
	m.workerLock.Lock()
	defer m.workerLock.Unlock()
	if w, exists := m.workers[key]; exists {
		w.stop()
	}
}

func (m *manager) Updates() <-chan results.Update {
	return m.updates
}

func (m *manager) removeWorker(key types.ContainerKey) {
	m.workerLock.Lock()
	defer m.workerLock.Unlock()
	delete(m.workers, key)
}

func (m *manager) deliver(update results.Update) {
	m.updates <- update
}
