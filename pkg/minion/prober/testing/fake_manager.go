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

	"k8s.io/minion-scheduler/pkg/minion/prober/results"
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// FakeManager records which containers are being probed and lets tests
// script the outcomes.
type FakeManager struct {
	mu      sync.Mutex
	probing map[types.ContainerKey]time.Time
	updates chan results.Update
}

func NewFakeManager() *FakeManager {
	return &FakeManager{
		probing: make(map[types.ContainerKey]time.Time),
		updates: make(chan results.Update, 64),
	}
}

func (f *FakeManager) AddContainer(key types.ContainerKey, _ types.ContainerSpec, startedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probing[key] = startedAt
}

func (f *FakeManager) RemoveContainer(key types.ContainerKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.probing, key)
}

func (f *FakeManager) Updates() <-chan results.Update {
	return f.updates
}

// Probing reports whether a probe worker would be running for key.
func (f *FakeManager) Probing(key types.ContainerKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.probing[key]
	return ok
}

// Succeed scripts a successful liveness signal for key.
func (f *FakeManager) Succeed(key types.ContainerKey) {
	f.updates <- results.Update{Key: key, Result: results.Success}
}

// Expire scripts a failure-timeout outcome for key.
func (f *FakeManager) Expire(key types.ContainerKey) {
	f.updates <- results.Update{Key: key, Result: results.Timeout}
}
