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

// Package podconfig feeds the scheduler from a directory of pod
// manifest files. The directory is polled; a new manifest becomes a
// PodAssigned submission and a deleted manifest removes its pod.
package podconfig

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

// PodHandler is the scheduler surface the source drives.
type PodHandler interface {
	AssignPod(pod types.PodSpec) error
	RemovePod(uid types.PodUID)
}

// Source polls one manifest directory.
type Source struct {
	dir      string
	interval time.Duration
	handler  PodHandler

	// seen maps manifest path to the pod UID it produced.
	seen map[string]types.PodUID
}

func NewSource(dir string, interval time.Duration, handler PodHandler) *Source {
	return &Source{
		dir:      dir,
		interval: interval,
		handler:  handler,
		seen:     make(map[string]types.PodUID),
	}
}

// Run polls until the context is cancelled.
func (s *Source) Run(ctx context.Context) {
	klog.InfoS("Watching pod manifest directory", "dir", s.dir, "interval", s.interval)
	wait.UntilWithContext(ctx, func(context.Context) {
		if err := s.Sync(); err != nil {
			klog.ErrorS(err, "Pod manifest sync failed", "dir", s.dir)
		}
	}, s.interval)
}

// Sync reconciles the directory once.
func (s *Source) Sync() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	current := sets.NewString()
	for _, entry := range entries {
		if entry.IsDir() || !manifestName(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		current.Insert(path)
		if _, known := s.seen[path]; known {
			// Manifests are treated as immutable once assigned; edits
			// require delete and re-create.
			continue
		}
		pod, err := readManifest(path)
		if err != nil {
			klog.ErrorS(err, "Ignoring unreadable pod manifest", "path", path)
			continue
		}
		if err := s.handler.AssignPod(pod); err != nil {
			klog.ErrorS(err, "Pod manifest rejected", "path", path, "pod", pod.UID)
			continue
		}
		s.seen[path] = pod.UID
		klog.V(2).InfoS("Pod manifest assigned", "path", path, "pod", pod.UID)
	}

	for path, uid := range s.seen {
		if current.Has(path) {
			continue
		}
		s.handler.RemovePod(uid)
		delete(s.seen, path)
		klog.V(2).InfoS("Pod manifest removed", "path", path, "pod", uid)
	}
	return nil
}

func manifestName(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func readManifest(path string) (types.PodSpec, error) {
	var pod types.PodSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return pod, err
	}
	if err := yaml.UnmarshalStrict(data, &pod); err != nil {
		return pod, err
	}
	return pod, nil
}
