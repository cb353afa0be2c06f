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

// Package scheduler is the per-minion orchestrator. One goroutine runs
// the sync loop and is the sole mutator of scheduling state: pod
// assignments, pull completions, probe results and throttle ticks all
// arrive as events and are handled strictly one at a time, so the cap
// and dependency invariants hold without fine-grained locking.
// Multiple Scheduler instances are fully independent and may coexist
// in one process.
package scheduler

import (
	"context"
	"fmt"
	"time"

	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"k8s.io/minion-scheduler/pkg/minion/depgraph"
	"k8s.io/minion-scheduler/pkg/minion/lifecycle"
	"k8s.io/minion-scheduler/pkg/minion/metrics"
	"k8s.io/minion-scheduler/pkg/minion/prober"
	proberesults "k8s.io/minion-scheduler/pkg/minion/prober/results"
	"k8s.io/minion-scheduler/pkg/minion/queue"
	"k8s.io/minion-scheduler/pkg/minion/runtime"
	"k8s.io/minion-scheduler/pkg/minion/throttle"
	"k8s.io/minion-scheduler/pkg/minion/types"
)

// Options configures a Scheduler beyond its collaborators.
type Options struct {
	// TickInterval is the periodic admission re-evaluation interval.
	TickInterval time.Duration
	// NotificationBuffer bounds the ContainerStateChanged stream. When
	// the consumer falls this far behind, further notifications are
	// dropped with an error log rather than stalling the sync loop.
	NotificationBuffer int
}

type podUpdateOp int

const (
	podAssign podUpdateOp = iota
	podRemove
	containerRemove
)

// podUpdate is an external entry point event (PodAssigned,
// ContainerRemoved) marshalled onto the loop.
type podUpdate struct {
	op    podUpdateOp
	pod   types.PodSpec
	graph *depgraph.Graph
	key   types.ContainerKey
	uid   types.PodUID
}

type podRecord struct {
	spec  types.PodSpec
	graph *depgraph.Graph
}

type containerRecord struct {
	key            types.ContainerKey
	spec           types.ContainerSpec
	state          types.ContainerState
	stateEnteredAt time.Time
}

// Scheduler owns one minion's working set.
type Scheduler struct {
	clock    clock.WithTicker
	admitter *throttle.Admitter
	prober   prober.Manager
	puller   runtime.ImagePuller
	runtime  runtime.ContainerRuntime
	opts     Options

	pods          map[types.PodUID]*podRecord
	containers    map[types.ContainerKey]*containerRecord
	pending       *queue.PendingQueue
	startingCount int

	podUpdates    chan podUpdate
	notifications chan types.ContainerStateChanged
}

// New wires a scheduler from its collaborators. Run must be called for
// events to be processed.
func New(admitter *throttle.Admitter, proberManager prober.Manager, puller runtime.ImagePuller, containerRuntime runtime.ContainerRuntime, c clock.WithTicker, opts Options) *Scheduler {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.NotificationBuffer <= 0 {
		opts.NotificationBuffer = 256
	}
	return &Scheduler{
		clock:         c,
		admitter:      admitter,
		prober:        proberManager,
		puller:        puller,
		runtime:       containerRuntime,
		opts:          opts,
		pods:          make(map[types.PodUID]*podRecord),
		containers:    make(map[types.ContainerKey]*containerRecord),
		pending:       queue.NewPendingQueue(),
		podUpdates:    make(chan podUpdate, 16),
		notifications: make(chan types.ContainerStateChanged, opts.NotificationBuffer),
	}
}

// Updates exposes the ContainerStateChanged stream. All transitions,
// failures included, are reported here.
func (s *Scheduler) Updates() <-chan types.ContainerStateChanged {
	return s.notifications
}

// AssignPod validates the pod spec and submits it to the sync loop.
// Validation is synchronous: an invalid spec is rejected outright and
// no partial state is ever created.
func (s *Scheduler) AssignPod(pod types.PodSpec) error {
	graph, err := depgraph.Build(&pod)
	if err != nil {
		metrics.SpecRejections.WithLabelValues(string(types.SpecErrorReasonOf(err))).Inc()
		return err
	}
	s.podUpdates <- podUpdate{op: podAssign, pod: pod, graph: graph}
	return nil
}

// RemovePod submits removal of a pod and all its containers.
func (s *Scheduler) RemovePod(uid types.PodUID) {
	s.podUpdates <- podUpdate{op: podRemove, uid: uid}
}

// RemoveContainer submits removal of a single container.
func (s *Scheduler) RemoveContainer(key types.ContainerKey) {
	s.podUpdates <- podUpdate{op: containerRemove, key: key}
}

// Run processes events until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	klog.InfoS("Minion scheduler loop starting", "tickInterval", s.opts.TickInterval)
	ticker := s.clock.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for s.syncLoopIteration(ctx, ticker.C()) {
	}
	klog.InfoS("Minion scheduler loop stopped")
}

// syncLoopIteration consumes exactly one event. It returns false when
// the loop should exit.
func (s *Scheduler) syncLoopIteration(ctx context.Context, tick <-chan time.Time) bool {
	select {
	case <-ctx.Done():
		return false
	case u := <-s.podUpdates:
		switch u.op {
		case podAssign:
			s.HandlePodAssigned(u.pod, u.graph)
		case podRemove:
			s.HandlePodRemoved(u.uid)
		case containerRemove:
			s.HandleContainerRemoved(u.key)
		}
	case u := <-s.puller.Updates():
		s.HandlePullUpdate(u)
	case u := <-s.prober.Updates():
		s.HandleProbeUpdate(u)
	case <-tick:
		s.HandleTick()
	}
	return true
}

// HandlePodAssigned creates the pod's containers in Downloading and
// dispatches their image pulls. The graph has already been validated.
func (s *Scheduler) HandlePodAssigned(pod types.PodSpec, graph *depgraph.Graph) {
	if _, exists := s.pods[pod.UID]; exists {
		klog.ErrorS(nil, "Pod already assigned, ignoring", "pod", pod.UID)
		return
	}
	s.pods[pod.UID] = &podRecord{spec: pod, graph: graph}
	now := s.clock.Now()
	for i := range pod.Containers {
		c := pod.Containers[i]
		key := types.ContainerKey{PodUID: pod.UID, Name: c.Name}
		s.containers[key] = &containerRecord{
			key:            key,
			spec:           c,
			state:          types.ContainerDownloading,
			stateEnteredAt: now,
		}
		s.puller.Pull(key, c.Image)
	}
	klog.V(2).InfoS("Pod assigned", "pod", pod.UID, "containers", len(pod.Containers))
	s.syncMetrics()
}

// HandlePullUpdate moves a container out of Downloading when its image
// arrives, then runs the dependency check: containers with all
// dependencies Ready (trivially so for none) go straight to Pending.
func (s *Scheduler) HandlePullUpdate(u runtime.PullUpdate) {
	record, ok := s.containers[u.Key]
	if !ok {
		klog.V(3).InfoS("Pull completed for unknown container, ignoring", "container", u.Key)
		return
	}
	if u.Err != nil {
		// The container stays in Downloading; restart/retry policy for
		// pulls belongs to the image puller, not this engine.
		klog.ErrorS(u.Err, "Image pull failed", "container", u.Key)
		return
	}
	if !s.transition(record, lifecycle.PullCompleted) {
		return
	}
	s.resolveContainer(record)
	s.reconcile()
}

// HandleProbeUpdate applies a liveness outcome to a Starting container.
// Either way the container leaves Starting and a slot frees, so the
// throttling policy engine re-evaluates immediately rather than waiting
// for the next tick.
func (s *Scheduler) HandleProbeUpdate(u proberesults.Update) {
	record, ok := s.containers[u.Key]
	if !ok {
		klog.V(3).InfoS("Probe result for unknown container, ignoring", "container", u.Key)
		return
	}
	if record.state != types.ContainerStarting {
		utilruntime.HandleError(fmt.Errorf("probe result for container %s in state %s", u.Key, record.state))
		return
	}
	metrics.ProbeResults.WithLabelValues(u.Result.String()).Inc()
	switch u.Result {
	case proberesults.Success:
		if s.transition(record, lifecycle.ProbeSucceeded) {
			s.startingCount--
			s.prober.RemoveContainer(u.Key)
			s.fanOut(record)
			s.logPodIfReady(record.key.PodUID)
		}
	case proberesults.Timeout:
		if s.transition(record, lifecycle.StartupTimedOut) {
			s.startingCount--
			s.prober.RemoveContainer(u.Key)
			// Failed is terminal here; the container leaves the working
			// set and any retry is external policy.
			delete(s.containers, u.Key)
			klog.InfoS("Container failed to become ready before its deadline", "container", u.Key)
		}
	}
	s.assertCounts()
	s.reconcile()
}

// HandleTick re-evaluates admission on the periodic tick.
func (s *Scheduler) HandleTick() {
	s.reconcile()
}

// HandlePodRemoved tears down every container of the pod.
func (s *Scheduler) HandlePodRemoved(uid types.PodUID) {
	record, ok := s.pods[uid]
	if !ok {
		klog.V(3).InfoS("Removal of unknown pod, ignoring", "pod", uid)
		return
	}
	for _, name := range record.graph.Names() {
		s.removeContainer(types.ContainerKey{PodUID: uid, Name: name})
	}
	delete(s.pods, uid)
	klog.V(2).InfoS("Pod removed", "pod", uid)
	s.assertCounts()
	s.reconcile()
}

// HandleContainerRemoved tears down a single container.
func (s *Scheduler) HandleContainerRemoved(key types.ContainerKey) {
	s.removeContainer(key)
	s.assertCounts()
	s.reconcile()
}

func (s *Scheduler) removeContainer(key types.ContainerKey) {
	record, ok := s.containers[key]
	if !ok {
		return
	}
	switch record.state {
	case types.ContainerPending:
		s.pending.Remove(key)
	case types.ContainerStarting:
		s.prober.RemoveContainer(key)
		s.startingCount--
	}
	delete(s.containers, key)
	if err := s.runtime.RemoveContainer(key); err != nil {
		klog.ErrorS(err, "Removing container from runtime", "container", key)
	}
	klog.V(2).InfoS("Container removed from working set", "container", key, "state", record.state)
}

// resolveContainer checks whether a Blocked container's dependencies
// are all Ready and, if so, promotes it into the pending queue. The
// resolver only decides eligibility; when it starts is the throttling
// policy engine's call.
func (s *Scheduler) resolveContainer(record *containerRecord) {
	if record.state != types.ContainerBlocked {
		return
	}
	if !s.dependenciesReady(record) {
		klog.V(4).InfoS("Container blocked on dependencies", "container", record.key)
		return
	}
	if !s.transition(record, lifecycle.DependenciesSatisfied) {
		return
	}
	if !s.pending.Enqueue(record.key, s.clock.Now()) {
		utilruntime.HandleError(fmt.Errorf("container %s already in pending queue", record.key))
	}
}

func (s *Scheduler) dependenciesReady(record *containerRecord) bool {
	pod, ok := s.pods[record.key.PodUID]
	if !ok {
		return false
	}
	for _, dep := range pod.graph.Dependencies(record.key.Name) {
		depRecord, ok := s.containers[types.ContainerKey{PodUID: record.key.PodUID, Name: dep}]
		if !ok || depRecord.state != types.ContainerReady {
			return false
		}
	}
	return true
}

// fanOut rechecks the dependents of a container that just became Ready.
func (s *Scheduler) fanOut(record *containerRecord) {
	pod, ok := s.pods[record.key.PodUID]
	if !ok {
		return
	}
	for _, dependent := range pod.graph.Dependents(record.key.Name) {
		depRecord, ok := s.containers[types.ContainerKey{PodUID: record.key.PodUID, Name: dependent}]
		if !ok {
			continue
		}
		s.resolveContainer(depRecord)
	}
}

// reconcile asks the throttling policy engine which pending containers
// may start, and starts them.
func (s *Scheduler) reconcile() {
	admitted := s.admitter.Admit(s.pending, s.startingCount)
	now := s.clock.Now()
	for _, key := range admitted {
		record, ok := s.containers[key]
		if !ok {
			utilruntime.HandleError(fmt.Errorf("admitted container %s not in working set", key))
			continue
		}
		if !s.transition(record, lifecycle.Admitted) {
			continue
		}
		s.startingCount++
		// Create and start are fire-and-forget; readiness is decided by
		// the liveness signal, not by these return values.
		if err := s.runtime.CreateContainer(key, record.spec); err != nil {
			klog.ErrorS(err, "Creating container", "container", key)
		}
		if err := s.runtime.StartContainer(key); err != nil {
			klog.ErrorS(err, "Starting container", "container", key)
		}
		s.prober.AddContainer(key, record.spec, now)
	}
	s.assertCounts()
	s.syncMetrics()
}

// transition applies one state machine edge and emits the state-change
// notification. A rejected transition is an internal defect: it is
// surfaced loudly and the container is left untouched.
func (s *Scheduler) transition(record *containerRecord, event lifecycle.Event) bool {
	next, err := lifecycle.Transition(record.state, event)
	if err != nil {
		utilruntime.HandleError(fmt.Errorf("container %s: %w", record.key, err))
		return false
	}
	old := record.state
	record.state = next
	record.stateEnteredAt = s.clock.Now()
	metrics.StateTransitions.WithLabelValues(string(old), string(next)).Inc()
	klog.V(3).InfoS("Container state changed", "container", record.key, "from", old, "to", next)
	s.notify(types.ContainerStateChanged{
		PodUID:    record.key.PodUID,
		Container: record.key.Name,
		OldState:  old,
		NewState:  next,
		At:        record.stateEnteredAt,
	})
	return true
}

func (s *Scheduler) notify(change types.ContainerStateChanged) {
	select {
	case s.notifications <- change:
	default:
		klog.ErrorS(nil, "Status stream consumer too slow, dropping notification",
			"container", change.Container, "pod", change.PodUID, "newState", change.NewState)
	}
}

// logPodIfReady logs when every container of the pod has reached
// Ready; the pod itself carries no state beyond this aggregation.
func (s *Scheduler) logPodIfReady(uid types.PodUID) {
	pod, ok := s.pods[uid]
	if !ok {
		return
	}
	for _, name := range pod.graph.Names() {
		record, ok := s.containers[types.ContainerKey{PodUID: uid, Name: name}]
		if !ok || record.state != types.ContainerReady {
			return
		}
	}
	klog.InfoS("Pod ready", "pod", uid)
}

// assertCounts surfaces bookkeeping defects instead of silently
// correcting them.
func (s *Scheduler) assertCounts() {
	if s.startingCount < 0 {
		utilruntime.HandleError(fmt.Errorf("starting count went negative: %d", s.startingCount))
	}
	starting := 0
	for _, record := range s.containers {
		if record.state == types.ContainerStarting {
			starting++
		}
	}
	if starting != s.startingCount {
		utilruntime.HandleError(fmt.Errorf("starting count %d does not match working set %d", s.startingCount, starting))
	}
}

func (s *Scheduler) syncMetrics() {
	metrics.PendingQueueDepth.Set(float64(s.pending.Len()))
	metrics.StartingContainers.Set(float64(s.startingCount))
}
