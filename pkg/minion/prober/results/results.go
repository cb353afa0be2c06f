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

// Package results carries liveness outcomes from probe workers back to
// the scheduler loop.
package results

import (
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// Result is the terminal outcome of probing one Starting container.
type Result int

const (
	// Success: the first successful liveness signal arrived before the
	// failure timeout.
	Success Result = iota
	// Timeout: the failure timeout elapsed without a success.
	Timeout
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Update is sent exactly once per probe worker, when its container's
// outcome is decided.
type Update struct {
	Key    types.ContainerKey
	Result Result
}
