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

import "fmt"

// SpecErrorReason is a machine-readable cause for rejecting a pod spec.
type SpecErrorReason string

const (
	// UnknownDependency means a dependsOn entry names no sibling
	// container.
	UnknownDependency SpecErrorReason = "UnknownDependency"
	// CyclicDependency means the dependsOn relation contains a cycle.
	CyclicDependency SpecErrorReason = "CyclicDependency"
	// DuplicateContainer means two containers in the pod share a name.
	DuplicateContainer SpecErrorReason = "DuplicateContainer"
	// InvalidContainer means a container is malformed (bad name, empty
	// image) or the pod has no containers.
	InvalidContainer SpecErrorReason = "InvalidContainer"
)

// SpecError rejects a pod at admission time. The pod is never
// scheduled and no partial state is created.
type SpecError struct {
	Pod       PodUID
	Container string
	Reason    SpecErrorReason
	Detail    string
}

func (e *SpecError) Error() string {
	if e.Container != "" {
		return fmt.Sprintf("pod %q invalid: container %q: %s: %s", e.Pod, e.Container, e.Reason, e.Detail)
	}
	return fmt.Sprintf("pod %q invalid: %s: %s", e.Pod, e.Reason, e.Detail)
}

// SpecErrorReasonOf extracts the rejection reason, or "" if err is not
// a spec rejection.
func SpecErrorReasonOf(err error) SpecErrorReason {
	if specErr, ok := err.(*SpecError); ok {
		return specErr.Reason
	}
	return ""
}
