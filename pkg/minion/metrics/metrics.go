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

package metrics

import (
	"sync"

	"k8s.io/component-base/metrics"
	"k8s.io/component-base/metrics/legacyregistry"
)

const MinionSchedulerSubsystem = "minion_scheduler"

const (
	AdmissionsKey         = "admissions_total"
	StateTransitionsKey   = "container_state_transitions_total"
	SpecRejectionsKey     = "pod_spec_rejections_total"
	ProbeResultsKey       = "probe_results_total"
	PendingQueueDepthKey  = "pending_queue_depth"
	StartingContainersKey = "starting_containers"
)

var (
	// Admissions counts Pending->Starting promotions, partitioned by
	// whether the minRate floor forced the admission past the resource
	// gate.
	Admissions = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem:      MinionSchedulerSubsystem,
			Name:           AdmissionsKey,
			Help:           "Number of containers admitted to Starting, by whether the minRate floor forced the admission.",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"forced"},
	)
	// StateTransitions counts every container state transition.
	StateTransitions = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem:      MinionSchedulerSubsystem,
			Name:           StateTransitionsKey,
			Help:           "Number of container lifecycle transitions, by source and target state.",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"from", "to"},
	)
	// SpecRejections counts pods rejected at admission time.
	SpecRejections = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem:      MinionSchedulerSubsystem,
			Name:           SpecRejectionsKey,
			Help:           "Number of pod specs rejected at admission time, by reason.",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"reason"},
	)
	// ProbeResults counts liveness probe outcomes seen by the scheduler.
	ProbeResults = metrics.NewCounterVec(
		&metrics.CounterOpts{
			Subsystem:      MinionSchedulerSubsystem,
			Name:           ProbeResultsKey,
			Help:           "Number of liveness probe results, by outcome.",
			StabilityLevel: metrics.ALPHA,
		},
		[]string{"result"},
	)
	// PendingQueueDepth is the current pending queue length.
	PendingQueueDepth = metrics.NewGauge(
		&metrics.GaugeOpts{
			Subsystem:      MinionSchedulerSubsystem,
			Name:           PendingQueueDepthKey,
			Help:           "Number of containers waiting in the pending queue.",
			StabilityLevel: metrics.ALPHA,
		},
	)
	// StartingContainers is the current number of Starting containers.
	StartingContainers = metrics.NewGauge(
		&metrics.GaugeOpts{
			Subsystem:      MinionSchedulerSubsystem,
			Name:           StartingContainersKey,
			Help:           "Number of containers currently in the Starting state.",
			StabilityLevel: metrics.ALPHA,
		},
	)
)

var registerMetrics sync.Once

// Register registers all metrics with the legacy registry. Safe to call
// more than once.
func Register() {
	registerMetrics.Do(func() {
		legacyregistry.MustRegister(Admissions)
		legacyregistry.MustRegister(StateTransitions)
		legacyregistry.MustRegister(SpecRejections)
		legacyregistry.MustRegister(ProbeResults)
		legacyregistry.MustRegister(PendingQueueDepth)
		legacyregistry.MustRegister(StartingContainers)
	})
}
