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

package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

func TestTransitionTable(t *testing.T) {
	testCases := []struct {
		from  types.ContainerState
		event Event
		want  types.ContainerState
	}{
		{types.ContainerDownloading, PullCompleted, types.ContainerBlocked},
		{types.ContainerBlocked, DependenciesSatisfied, types.ContainerPending},
		{types.ContainerPending, Admitted, types.ContainerStarting},
		{types.ContainerStarting, ProbeSucceeded, types.ContainerReady},
		{types.ContainerStarting, StartupTimedOut, types.ContainerFailed},
	}
	for _, tc := range testCases {
		got, err := Transition(tc.from, tc.event)
		require.NoError(t, err, "%s on %s", tc.from, tc.event)
		assert.Equal(t, tc.want, got)
	}
}

func TestInvalidTransitions(t *testing.T) {
	allStates := []types.ContainerState{
		types.ContainerDownloading,
		types.ContainerBlocked,
		types.ContainerPending,
		types.ContainerStarting,
		types.ContainerReady,
		types.ContainerFailed,
	}
	allEvents := []Event{PullCompleted, DependenciesSatisfied, Admitted, ProbeSucceeded, StartupTimedOut}

	valid := map[transitionKey]bool{
		{types.ContainerDownloading, PullCompleted}:     true,
		{types.ContainerBlocked, DependenciesSatisfied}: true,
		{types.ContainerPending, Admitted}:              true,
		{types.ContainerStarting, ProbeSucceeded}:       true,
		{types.ContainerStarting, StartupTimedOut}:      true,
	}
	for _, state := range allStates {
		for _, event := range allEvents {
			if valid[transitionKey{state, event}] {
				continue
			}
			got, err := Transition(state, event)
			require.Error(t, err, "%s on %s should be rejected", state, event)
			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, state, invalid.From)
			assert.Equal(t, event, invalid.Event)
			// The state must not move on a rejected transition.
			assert.Equal(t, state, got)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(types.ContainerReady))
	assert.True(t, Terminal(types.ContainerFailed))
	assert.False(t, Terminal(types.ContainerDownloading))
	assert.False(t, Terminal(types.ContainerBlocked))
	assert.False(t, Terminal(types.ContainerPending))
	assert.False(t, Terminal(types.ContainerStarting))
}
