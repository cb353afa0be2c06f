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

// Package depgraph validates a pod's dependsOn declarations and
// compiles them into an immutable adjacency structure. Containers are
// held in an arena indexed by their position in the pod spec; edges are
// integer adjacency lists, so the reverse fan-out on a Ready event is a
// single slice lookup.
package depgraph

import (
	validationutil "k8s.io/apimachinery/pkg/util/validation"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

// Graph is the compiled dependency structure of one pod. It is built
// once at admission time and never mutated.
type Graph struct {
	names []string
	index map[string]int
	// forward[i] lists the indices container i depends on.
	forward [][]int
	// reverse[i] lists the indices that depend on container i.
	reverse [][]int
}

// Build validates the pod's container list and compiles the dependency
// graph. On any validation failure it returns a *types.SpecError and no
// graph; a pod is admitted whole or not at all.
func Build(pod *types.PodSpec) (*Graph, error) {
	n := len(pod.Containers)
	if n == 0 {
		return nil, &types.SpecError{
			Pod:    pod.UID,
			Reason: types.InvalidContainer,
			Detail: "pod has no containers",
		}
	}

	g := &Graph{
		names:   make([]string, n),
		index:   make(map[string]int, n),
		forward: make([][]int, n),
		reverse: make([][]int, n),
	}
	for i := range pod.Containers {
		c := &pod.Containers[i]
		if errs := validationutil.IsDNS1123Label(c.Name); len(errs) > 0 {
			return nil, &types.SpecError{
				Pod:       pod.UID,
				Container: c.Name,
				Reason:    types.InvalidContainer,
				Detail:    "container name must be a DNS label: " + errs[0],
			}
		}
		if c.Image == "" {
			return nil, &types.SpecError{
				Pod:       pod.UID,
				Container: c.Name,
				Reason:    types.InvalidContainer,
				Detail:    "container has no image",
			}
		}
		if _, dup := g.index[c.Name]; dup {
			return nil, &types.SpecError{
				Pod:       pod.UID,
				Container: c.Name,
				Reason:    types.DuplicateContainer,
				Detail:    "container name declared more than once",
			}
		}
		g.names[i] = c.Name
		g.index[c.Name] = i
	}

	for i := range pod.Containers {
		c := &pod.Containers[i]
		seen := make(map[int]bool, len(c.DependsOn))
		for _, dep := range c.DependsOn {
			j, ok := g.index[dep]
			if !ok {
				return nil, &types.SpecError{
					Pod:       pod.UID,
					Container: c.Name,
					Reason:    types.UnknownDependency,
					Detail:    "dependsOn refers to unknown container " + dep,
				}
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			g.forward[i] = append(g.forward[i], j)
			g.reverse[j] = append(g.reverse[j], i)
		}
	}

	if cycle := g.findCycle(); cycle != "" {
		return nil, &types.SpecError{
			Pod:       pod.UID,
			Container: cycle,
			Reason:    types.CyclicDependency,
			Detail:    "dependsOn relation contains a cycle",
		}
	}
	return g, nil
}

// findCycle runs Kahn's algorithm over the declared edges and returns
// the name of a container left with unresolved in-degree, or "" if the
// graph is acyclic.
func (g *Graph) findCycle() string {
	n := len(g.names)
	indegree := make([]int, n)
	for i := range g.forward {
		indegree[i] = len(g.forward[i])
	}
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	processed := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		processed++
		for _, dependent := range g.reverse[i] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if processed == n {
		return ""
	}
	// Report the first container stuck in the cycle, in pod order, for
	// a deterministic error.
	for i := 0; i < n; i++ {
		if indegree[i] > 0 {
			return g.names[i]
		}
	}
	return ""
}

// Len returns the number of containers in the graph.
func (g *Graph) Len() int {
	return len(g.names)
}

// Names returns container names in pod order. The returned slice must
// not be modified.
func (g *Graph) Names() []string {
	return g.names
}

// Dependencies returns the names this container depends on, or nil for
// an unknown name.
func (g *Graph) Dependencies(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.resolve(g.forward[i])
}

// Dependents returns the names that depend on this container, or nil
// for an unknown name. This is the fan-out set consulted when the
// container reaches Ready.
func (g *Graph) Dependents(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.resolve(g.reverse[i])
}

func (g *Graph) resolve(indices []int) []string {
	if len(indices) == 0 {
		return nil
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = g.names[idx]
	}
	return out
}
