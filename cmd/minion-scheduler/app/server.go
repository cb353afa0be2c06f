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

// Package app wires the minion scheduler daemon together.
package app

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/component-base/metrics/legacyregistry"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"k8s.io/minion-scheduler/cmd/minion-scheduler/app/options"
	"k8s.io/minion-scheduler/pkg/minion/config"
	"k8s.io/minion-scheduler/pkg/minion/metrics"
	"k8s.io/minion-scheduler/pkg/minion/podconfig"
	"k8s.io/minion-scheduler/pkg/minion/prober"
	"k8s.io/minion-scheduler/pkg/minion/resource"
	"k8s.io/minion-scheduler/pkg/minion/runtime"
	"k8s.io/minion-scheduler/pkg/minion/scheduler"
	"k8s.io/minion-scheduler/pkg/minion/throttle"
)

// NewMinionSchedulerCommand builds the root command.
func NewMinionSchedulerCommand() *cobra.Command {
	opts := options.NewOptions()
	cmd := &cobra.Command{
		Use: "minion-scheduler",
		Long: `The minion scheduler controls, on a single host, when freshly
assigned containers move from image download to serving traffic. It
orders startup along declared container dependencies and throttles
concurrent starts so initialization work never starves containers that
are already serving.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

// Run starts the daemon and blocks until a termination signal.
func Run(opts *options.Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			return err
		}
	}

	realClock := clock.RealClock{}
	var monitor resource.Monitor
	var host *resource.HostMonitor
	if opts.DryRun {
		monitor = idleMonitor{}
	} else {
		// Sampling settings do not depend on the core count, so the
		// monitor can be built before the config is resolved.
		sampleInterval := time.Duration(cfg.SampleIntervalSeconds) * time.Second
		keepWindow := time.Duration(cfg.LoadWindowSeconds) * time.Second
		var err error
		host, err = resource.NewHostMonitor(opts.ProcMount, opts.SysMount, sampleInterval, keepWindow, realClock)
		if err != nil {
			return err
		}
		monitor = host
	}

	resolved, err := cfg.Resolve(monitor.CoreCount())
	if err != nil {
		return err
	}
	klog.InfoS("Resolved minion configuration",
		"cores", monitor.CoreCount(),
		"maxStarting", resolved.Throttle.MaxStarting,
		"maxLoadAvg", resolved.Throttle.MaxLoadAvg,
		"minRate", resolved.Throttle.MinRate,
		"maxRate", resolved.Throttle.MaxRate)

	if host != nil {
		go host.Run(ctx)
	}

	metrics.Register()

	var puller runtime.ImagePuller
	var containerRuntime runtime.ContainerRuntime
	if opts.DryRun {
		shim := newDryRunRuntime()
		puller, containerRuntime = shim, shim
	} else {
		puller, containerRuntime = runtime.NewDockerShim(opts.DockerBinary)
	}

	proberManager := prober.NewManager(prober.NewChecker(), realClock, resolved.ProbePeriod, resolved.FailureTimeout)
	admitter := throttle.NewAdmitter(resolved.Throttle, monitor, realClock)
	sched := scheduler.New(admitter, proberManager, puller, containerRuntime, realClock, scheduler.Options{
		TickInterval: resolved.TickInterval,
	})

	go logStatusStream(ctx, sched)

	if opts.PodManifestDir != "" {
		source := podconfig.NewSource(opts.PodManifestDir, opts.ManifestPollInterval, sched)
		go source.Run(ctx)
	}

	if opts.MetricsBindAddress != "" {
		go serveMetrics(ctx, opts.MetricsBindAddress)
	}

	sched.Run(ctx)
	return nil
}

// logStatusStream consumes ContainerStateChanged events. It doubles as
// the reference consumer of the exposed status interface.
func logStatusStream(ctx context.Context, sched *scheduler.Scheduler) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-sched.Updates():
			klog.InfoS("Container state changed",
				"pod", change.PodUID,
				"container", change.Container,
				"from", change.OldState,
				"to", change.NewState,
				"at", change.At)
		}
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", legacyregistry.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	klog.InfoS("Serving metrics", "address", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		klog.ErrorS(err, "Metrics endpoint failed")
	}
}
