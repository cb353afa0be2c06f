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

// Package runtime defines the collaborators that do the real container
// work. Pulls run asynchronously and report back through an updates
// channel consumed by the scheduler loop; create and start are
// fire-and-forget side effects keyed by container identity.
package runtime

import (
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// PullUpdate reports the completion of one image pull.
type PullUpdate struct {
	Key types.ContainerKey
	Err error
}

// ImagePuller fetches images asynchronously.
type ImagePuller interface {
	// Pull dispatches a pull for the container's image. Completion
	// arrives on Updates.
	Pull(key types.ContainerKey, image string)
	// Updates delivers one update per dispatched pull.
	Updates() <-chan PullUpdate
}

// ContainerRuntime creates and starts containers. Errors are reported
// to the caller for logging only; the scheduler consumes liveness
// signals, not runtime return values, to decide readiness.
// Implementations are called from the scheduler loop and must not
// block on the underlying runtime: do the work elsewhere and return.
type ContainerRuntime interface {
	CreateContainer(key types.ContainerKey, spec types.ContainerSpec) error
	StartContainer(key types.ContainerKey) error
	// RemoveContainer tears down a container that left the working set.
	RemoveContainer(key types.ContainerKey) error
}
