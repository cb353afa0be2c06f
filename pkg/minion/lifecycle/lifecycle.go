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

// Package lifecycle holds the container startup state machine. The
// transition table is closed: any (state, event) pair outside it is an
// InvalidTransitionError, which callers treat as an internal defect,
// never as a recoverable condition.
package lifecycle

import (
	"fmt"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

// Event is a trigger consumed by the state machine. Side effects (pull,
// create, start) are dispatched by collaborators; the machine only sees
// their completions.
type Event string

const (
	// PullCompleted: the container's image pull finished.
	PullCompleted Event = "PullCompleted"
	// DependenciesSatisfied: every dependsOn entry is Ready.
	DependenciesSatisfied Event = "DependenciesSatisfied"
	// Admitted: the throttling policy engine granted a start slot.
	Admitted Event = "Admitted"
	// ProbeSucceeded: first successful liveness signal.
	ProbeSucceeded Event = "ProbeSucceeded"
	// StartupTimedOut: the failure timeout elapsed in Starting.
	StartupTimedOut Event = "StartupTimedOut"
)

type transitionKey struct {
	from  types.ContainerState
	event Event
}

var transitions = map[transitionKey]types.ContainerState{
	{types.ContainerDownloading, PullCompleted}:     types.ContainerBlocked,
	{types.ContainerBlocked, DependenciesSatisfied}: types.ContainerPending,
	{types.ContainerPending, Admitted}:              types.ContainerStarting,
	{types.ContainerStarting, ProbeSucceeded}:       types.ContainerReady,
	{types.ContainerStarting, StartupTimedOut}:      types.ContainerFailed,
}

// InvalidTransitionError reports a (state, event) pair outside the
// transition table.
type InvalidTransitionError struct {
	From  types.ContainerState
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: no edge from state %q on event %q", e.From, e.Event)
}

// Transition returns the state reached from current on event, or an
// InvalidTransitionError if the table has no such edge. There is no
// implicit default.
func Transition(current types.ContainerState, event Event) (types.ContainerState, error) {
	next, ok := transitions[transitionKey{current, event}]
	if !ok {
		return current, &InvalidTransitionError{From: current, Event: event}
	}
	return next, nil
}

// Terminal reports whether the state has no outgoing edges.
func Terminal(state types.ContainerState) bool {
	return state == types.ContainerReady || state == types.ContainerFailed
}
