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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

// fakeDocker writes a stand-in docker binary whose every invocation
// appends its subcommand to logPath and then runs extra.
func fakeDocker(t *testing.T, logPath, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "docker")
	script := "#!/bin/sh\necho \"$1\" >> " + logPath + "\n" + extra + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func loggedCommands(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		return nil
	}
	return strings.Fields(string(data))
}

func TestCreateStartRemoveDoNotBlockCaller(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "calls.log")
	binary := fakeDocker(t, logPath, "sleep 1")
	_, containerRuntime := NewDockerShim(binary)
	key := types.ContainerKey{PodUID: "pod-1", Name: "app"}

	// A slow docker binary must not stall the caller: the CLI work
	// happens on the shim's dispatcher, not the calling goroutine.
	begin := time.Now()
	require.NoError(t, containerRuntime.CreateContainer(key, types.ContainerSpec{Name: "app", Image: "img"}))
	require.NoError(t, containerRuntime.StartContainer(key))
	require.NoError(t, containerRuntime.RemoveContainer(key))
	assert.Less(t, time.Since(begin), 500*time.Millisecond)
}

func TestCommandsRunInSubmissionOrder(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "calls.log")
	binary := fakeDocker(t, logPath, "")
	_, containerRuntime := NewDockerShim(binary)
	key := types.ContainerKey{PodUID: "pod-1", Name: "app"}

	require.NoError(t, containerRuntime.CreateContainer(key, types.ContainerSpec{Name: "app", Image: "img"}))
	require.NoError(t, containerRuntime.StartContainer(key))
	require.NoError(t, containerRuntime.RemoveContainer(key))

	// start must never overtake create even though both are async.
	require.Eventually(t, func() bool {
		return len(loggedCommands(t, logPath)) == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"create", "start", "rm"}, loggedCommands(t, logPath))
}

func TestPullReportsFailureOnUpdates(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "calls.log")
	binary := fakeDocker(t, logPath, "exit 1")
	puller, _ := NewDockerShim(binary)
	key := types.ContainerKey{PodUID: "pod-1", Name: "app"}

	puller.Pull(key, "registry.test/app")
	select {
	case u := <-puller.Updates():
		assert.Equal(t, key, u.Key)
		assert.Error(t, u.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("no pull update")
	}
}
