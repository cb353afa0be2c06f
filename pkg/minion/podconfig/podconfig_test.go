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

package podconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

type recordingHandler struct {
	assigned  []types.PodSpec
	removed   []types.PodUID
	rejectAll bool
}

func (h *recordingHandler) AssignPod(pod types.PodSpec) error {
	if h.rejectAll {
		return &types.SpecError{Pod: pod.UID, Reason: types.InvalidContainer, Detail: "rejected"}
	}
	h.assigned = append(h.assigned, pod)
	return nil
}

func (h *recordingHandler) RemovePod(uid types.PodUID) {
	h.removed = append(h.removed, uid)
}

const manifest = `
uid: pod-1
name: web
containers:
- name: app
  image: registry.test/app
`

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSyncAssignsAndRemoves(t *testing.T) {
	dir := t.TempDir()
	handler := &recordingHandler{}
	source := NewSource(dir, time.Second, handler)

	path := writeManifest(t, dir, "web.yaml", manifest)
	require.NoError(t, source.Sync())
	require.Len(t, handler.assigned, 1)
	assert.Equal(t, types.PodUID("pod-1"), handler.assigned[0].UID)
	assert.Equal(t, "app", handler.assigned[0].Containers[0].Name)

	// A second pass over an unchanged directory does nothing.
	require.NoError(t, source.Sync())
	assert.Len(t, handler.assigned, 1)
	assert.Empty(t, handler.removed)

	require.NoError(t, os.Remove(path))
	require.NoError(t, source.Sync())
	assert.Equal(t, []types.PodUID{"pod-1"}, handler.removed)
}

func TestSyncSkipsNonManifests(t *testing.T) {
	dir := t.TempDir()
	handler := &recordingHandler{}
	source := NewSource(dir, time.Second, handler)

	writeManifest(t, dir, "README.md", "not a manifest")
	writeManifest(t, dir, "broken.yaml", "uid: [")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.yaml"), 0o755))

	require.NoError(t, source.Sync())
	assert.Empty(t, handler.assigned)
}

func TestRejectedManifestIsRetried(t *testing.T) {
	dir := t.TempDir()
	handler := &recordingHandler{rejectAll: true}
	source := NewSource(dir, time.Second, handler)

	writeManifest(t, dir, "web.yaml", manifest)
	require.NoError(t, source.Sync())
	assert.Empty(t, handler.assigned)

	// Once the handler accepts, the same manifest goes through: a
	// rejection does not poison the file.
	handler.rejectAll = false
	require.NoError(t, source.Sync())
	assert.Len(t, handler.assigned, 1)
}
