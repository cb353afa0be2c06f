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

package app

import (
	goruntime "runtime"
	"time"

	"k8s.io/klog/v2"

	"k8s.io/minion-scheduler/pkg/minion/runtime"
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// idleMonitor reports an eternally idle host. It lets --dry-run exercise
// the full admission path without reading /proc.
type idleMonitor struct{}

func (idleMonitor) CPUAverage(time.Duration) (float64, bool)  { return 0, true }
func (idleMonitor) LoadAverage(time.Duration) (float64, bool) { return 0, true }
func (idleMonitor) IOAverage(time.Duration) (float64, bool)   { return 0, true }
func (idleMonitor) CoreCount() int                            { return goruntime.NumCPU() }

// dryRunRuntime acknowledges every pull immediately and logs the
// lifecycle calls it would have made.
type dryRunRuntime struct {
	updates chan runtime.PullUpdate
}

func newDryRunRuntime() *dryRunRuntime {
	return &dryRunRuntime{updates: make(chan runtime.PullUpdate, 64)}
}

func (d *dryRunRuntime) Pull(key types.ContainerKey, image string) {
	klog.InfoS("Dry run: pull", "container", key, "image", image)
	d.updates <- runtime.PullUpdate{Key: key}
}

func (d *dryRunRuntime) Updates() <-chan runtime.PullUpdate {
	return d.updates
}

func (d *dryRunRuntime) CreateContainer(key types.ContainerKey, spec types.ContainerSpec) error {
	klog.InfoS("Dry run: create container", "container", key, "image", spec.Image)
	return nil
}

func (d *dryRunRuntime) StartContainer(key types.ContainerKey) error {
	klog.InfoS("Dry run: start container", "container", key)
	return nil
}

func (d *dryRunRuntime) RemoveContainer(key types.ContainerKey) error {
	klog.InfoS("Dry run: remove container", "container", key)
	return nil
}
