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

package runtime

import (
	"fmt"
	"os/exec"
	"strings"

	"k8s.io/klog/v2"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

// dockerShim drives containers through the docker CLI. It exists so the
// daemon is usable standalone; anything speaking the same two
// interfaces can replace it.
//
// All CLI calls run off the caller's goroutine: pulls each get their
// own goroutine, create/start/remove go through a single dispatcher
// that preserves submission order, so a start never overtakes the
// create it follows. The scheduler loop must never wait on docker.
type dockerShim struct {
	binary  string
	updates chan PullUpdate
	// tasks feeds the dispatcher goroutine. Sized so the loop only
	// stalls if hundreds of CLI calls back up.
	tasks chan func()
}

// NewDockerShim returns an ImagePuller and ContainerRuntime backed by
// the docker binary.
func NewDockerShim(binary string) (ImagePuller, ContainerRuntime) {
	if binary == "" {
		binary = "docker"
	}
	shim := &dockerShim{
		binary:  binary,
		updates: make(chan PullUpdate, 64),
		tasks:   make(chan func(), 256),
	}
	go shim.dispatch()
	return shim, shim
}

// dispatch runs queued CLI commands one at a time, in submission order.
func (d *dockerShim) dispatch() {
	for task := range d.tasks {
		task()
	}
}

// containerName maps a container key onto a docker-safe name.
func containerName(key types.ContainerKey) string {
	return "minion-" + strings.ReplaceAll(key.String(), "/", "-")
}

func (d *dockerShim) Pull(key types.ContainerKey, image string) {
	go func() {
		out, err := exec.Command(d.binary, "pull", image).CombinedOutput()
		if err != nil {
			err = fmt.Errorf("docker pull %s: %v: %s", image, err, strings.TrimSpace(string(out)))
		}
		d.updates <- PullUpdate{Key: key, Err: err}
	}()
}

func (d *dockerShim) Updates() <-chan PullUpdate {
	return d.updates
}

// CreateContainer queues docker create and returns without waiting for
// it. Failures are logged when the command completes; readiness is
// decided by the liveness signal either way.
func (d *dockerShim) CreateContainer(key types.ContainerKey, spec types.ContainerSpec) error {
	d.tasks <- func() {
		out, err := exec.Command(d.binary, "create", "--name", containerName(key), spec.Image).CombinedOutput()
		if err != nil {
			klog.ErrorS(err, "docker create failed", "container", key, "output", strings.TrimSpace(string(out)))
			return
		}
		klog.V(4).InfoS("Created container", "container", key)
	}
	return nil
}

// StartContainer queues docker start, behind any create queued before it.
func (d *dockerShim) StartContainer(key types.ContainerKey) error {
	d.tasks <- func() {
		out, err := exec.Command(d.binary, "start", containerName(key)).CombinedOutput()
		if err != nil {
			klog.ErrorS(err, "docker start failed", "container", key, "output", strings.TrimSpace(string(out)))
			return
		}
		klog.V(4).InfoS("Started container", "container", key)
	}
	return nil
}

func (d *dockerShim) RemoveContainer(key types.ContainerKey) error {
	d.tasks <- func() {
		out, err := exec.Command(d.binary, "rm", "-f", containerName(key)).CombinedOutput()
		if err != nil {
			klog.ErrorS(err, "docker rm failed", "container", key, "output", strings.TrimSpace(string(out)))
		}
	}
	return nil
}
