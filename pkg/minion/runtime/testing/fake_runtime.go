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

	"k8s.io/minion-scheduler/pkg/minion/runtime"
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// FakeRuntime implements ImagePuller and ContainerRuntime with scripted
// pull completions and recorded side effects.
type FakeRuntime struct {
	mu      sync.Mutex
	pulls   map[types.ContainerKey]string
	created []types.ContainerKey
	started []types.ContainerKey
	removed []types.ContainerKey
	updates chan runtime.PullUpdate
}

func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{
		pulls:   make(map[types.ContainerKey]string),
		updates: make(chan runtime.PullUpdate, 64),
	}
}

func (f *FakeRuntime) Pull(key types.ContainerKey, image string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls[key] = image
}

func (f *FakeRuntime) Updates() <-chan runtime.PullUpdate {
	return f.updates
}

// CompletePull scripts the completion of a previously dispatched pull.
func (f *FakeRuntime) CompletePull(key types.ContainerKey) {
	f.updates <- runtime.PullUpdate{Key: key}
}

// FailPull scripts a failed pull.
func (f *FakeRuntime) FailPull(key types.ContainerKey, err error) {
	f.updates <- runtime.PullUpdate{Key: key, Err: err}
}

// PullDispatched reports whether Pull was called for key.
func (f *FakeRuntime) PullDispatched(key types.ContainerKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pulls[key]
	return ok
}

func (f *FakeRuntime) CreateContainer(key types.ContainerKey, _ types.ContainerSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, key)
	return nil
}

func (f *FakeRuntime) StartContainer(key types.ContainerKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, key)
	return nil
}

func (f *FakeRuntime) RemoveContainer(key types.ContainerKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return nil
}

// Started returns the start order observed so far.
func (f *FakeRuntime) Started() []types.ContainerKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.ContainerKey, len(f.started))
	copy(out, f.started)
	return out
}

// Removed returns the containers torn down so far.
func (f *FakeRuntime) Removed() []types.ContainerKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.ContainerKey, len(f.removed))
	copy(out, f.removed)
	return out
}
