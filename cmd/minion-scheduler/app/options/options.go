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

package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Options holds the command-line surface of the minion scheduler.
// Throttling thresholds live in the config file, not in flags.
type Options struct {
	// ConfigFile points at the minion YAML configuration. Empty means
	// built-in defaults.
	ConfigFile string
	// PodManifestDir is polled for pod manifests. Empty disables the
	// file source.
	PodManifestDir string
	// ManifestPollInterval is how often the manifest dir is rescanned.
	ManifestPollInterval time.Duration
	// DockerBinary is the docker CLI used by the runtime shim.
	DockerBinary string
	// DryRun replaces the container runtime and host monitor with
	// inert stand-ins, for exercising the scheduling engine alone.
	DryRun bool
	// MetricsBindAddress serves /metrics and /healthz. Empty disables
	// the endpoint.
	MetricsBindAddress string
	// ProcMount and SysMount locate the host metric filesystems.
	ProcMount string
	SysMount  string
}

func NewOptions() *Options {
	return &Options{
		ManifestPollInterval: 5 * time.Second,
		DockerBinary:         "docker",
		MetricsBindAddress:   ":10255",
		ProcMount:            "/proc",
		SysMount:             "/sys",
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Path to the minion configuration file.")
	fs.StringVar(&o.PodManifestDir, "pod-manifest-dir", o.PodManifestDir, "Directory of pod manifests to schedule. Empty disables the file source.")
	fs.DurationVar(&o.ManifestPollInterval, "manifest-poll-interval", o.ManifestPollInterval, "How often to rescan the pod manifest directory.")
	fs.StringVar(&o.DockerBinary, "docker-binary", o.DockerBinary, "Docker CLI binary used to pull, create and start containers.")
	fs.BoolVar(&o.DryRun, "dry-run", o.DryRun, "Run the scheduling engine without touching a container runtime or host metrics.")
	fs.StringVar(&o.MetricsBindAddress, "metrics-bind-address", o.MetricsBindAddress, "Address to serve /metrics and /healthz on. Empty disables serving.")
	fs.StringVar(&o.ProcMount, "proc-mount", o.ProcMount, "Mount point of procfs for host metric sampling.")
	fs.StringVar(&o.SysMount, "sys-mount", o.SysMount, "Mount point of sysfs for host metric sampling.")
}

func (o *Options) Validate() error {
	if o.ManifestPollInterval <= 0 {
		return fmt.Errorf("--manifest-poll-interval must be positive")
	}
	if !o.DryRun && o.DockerBinary == "" {
		return fmt.Errorf("--docker-binary must be set unless --dry-run")
	}
	return nil
}
