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

package types

import (
	"fmt"
	"time"
)

// PodUID uniquely identifies a pod assigned to this minion.
type PodUID string

// ContainerKey identifies a container within the minion's working set.
// Container names are only unique within their pod, so the pod UID is
// part of the key.
type ContainerKey struct {
	PodUID PodUID
	Name   string
}

func (k ContainerKey) String() string {
	return fmt.Sprintf("%s/%s", k.PodUID, k.Name)
}

// ContainerState is the lifecycle state of a container managed by the
// minion scheduler. Containers only ever move forward through these
// states; the transition table lives in the lifecycle package.
type ContainerState string

const (
	// ContainerDownloading is the initial state: the image pull has been
	// dispatched and has not completed yet.
	ContainerDownloading ContainerState = "Downloading"
	// ContainerBlocked means the image is present but at least one
	// dependency is not Ready.
	ContainerBlocked ContainerState = "Blocked"
	// ContainerPending means all dependencies are Ready and the container
	// is queued for admission.
	ContainerPending ContainerState = "Pending"
	// ContainerStarting means the container has been admitted and its
	// liveness signal is being awaited.
	ContainerStarting ContainerState = "Starting"
	// ContainerReady means the first successful liveness signal arrived.
	ContainerReady ContainerState = "Ready"
	// ContainerFailed means the failure timeout elapsed without a
	// successful liveness signal. Terminal for this engine.
	ContainerFailed ContainerState = "Failed"
)

// ProbeType selects the liveness check mechanism for a container.
type ProbeType string

const (
	// ProbeNone reports success immediately; the container is considered
	// ready as soon as the first probe cycle runs.
	ProbeNone ProbeType = "None"
	ProbeHTTP ProbeType = "HTTP"
	ProbeTCP  ProbeType = "TCP"
	ProbeExec ProbeType = "Exec"
)

// LivenessCheck describes how to probe a Starting container. The check
// execution itself is a collaborator; the scheduler only consumes its
// results.
type LivenessCheck struct {
	Type ProbeType `json:"type"`
	// HTTP GET target, for ProbeHTTP.
	URL string `json:"url,omitempty"`
	// host:port dial target, for ProbeTCP.
	Address string `json:"address,omitempty"`
	// Command argv, for ProbeExec.
	Command []string `json:"command,omitempty"`
	// PeriodSeconds is the polling interval. Zero means the scheduler
	// default.
	PeriodSeconds int32 `json:"periodSeconds,omitempty"`
}

// ContainerSpec is one container of a pod spec as consumed by the
// scheduler.
type ContainerSpec struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	// DependsOn names sibling containers that must be Ready before this
	// container may start.
	DependsOn []string      `json:"dependsOn,omitempty"`
	Liveness  LivenessCheck `json:"liveness,omitempty"`
	// FailureTimeoutSeconds bounds how long the container may sit in
	// Starting without a successful liveness signal. Zero means the
	// scheduler default.
	FailureTimeoutSeconds int32 `json:"failureTimeoutSeconds,omitempty"`
}

// PodSpec is the unit of assignment to a minion.
type PodSpec struct {
	UID        PodUID            `json:"uid"`
	Name       string            `json:"name"`
	Labels     map[string]string `json:"labels,omitempty"`
	Containers []ContainerSpec   `json:"containers"`
}

// ContainerStateChanged is emitted on the scheduler's status stream for
// every transition, failures included — there is no separate error
// channel.
type ContainerStateChanged struct {
	PodUID    PodUID
	Container string
	OldState  ContainerState
	NewState  ContainerState
	At        time.Time
}
