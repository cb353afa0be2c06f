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

// Package resource surfaces sliding-window host utilization to the
// throttling policy engine. The engine treats a monitor with no data as
// over threshold (fail closed), so implementations report availability
// explicitly rather than returning zeros.
package resource

import "time"

// Monitor provides sliding-window averages of host utilization. The
// second return value is false when not enough samples cover the
// window; callers must fail closed on false.
type Monitor interface {
	// CPUAverage is the mean CPU busy percentage (0-100) over the window.
	CPUAverage(window time.Duration) (float64, bool)
	// LoadAverage is the mean 1-minute load average over the window.
	LoadAverage(window time.Duration) (float64, bool)
	// IOAverage is the mean IO device utilization percentage (0-100)
	// over the window.
	IOAverage(window time.Duration) (float64, bool)
	// CoreCount is the number of logical CPU cores on the host.
	CoreCount() int
}
