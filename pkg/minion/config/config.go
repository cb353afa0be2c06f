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

// Package config holds the minion configuration surface. Values that
// scale with machine size (maxStartingContainers, maxLoadAvg) accept
// either an absolute number or a "<factor>x" per-core expression,
// resolved once at load time against the host's core count.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"k8s.io/minion-scheduler/pkg/minion/throttle"
)

// CoreScaled is a numeric setting that may be written either as an
// absolute value ("8", "4.5") or as a per-core multiplier ("2x",
// "1.5x").
type CoreScaled struct {
	raw string
}

// NewCoreScaled builds a value from its string form. The form is
// validated at Resolve time.
func NewCoreScaled(raw string) CoreScaled {
	return CoreScaled{raw: raw}
}

func (v CoreScaled) String() string {
	return v.raw
}

// IsZero reports whether the value was left unset.
func (v CoreScaled) IsZero() bool {
	return v.raw == ""
}

// Resolve computes the absolute value against the given core count.
func (v CoreScaled) Resolve(cores int) (float64, error) {
	raw := strings.TrimSpace(v.raw)
	if raw == "" {
		return 0, fmt.Errorf("empty value")
	}
	if strings.HasSuffix(raw, "x") {
		factor := strings.TrimSuffix(raw, "x")
		f, err := strconv.ParseFloat(factor, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid per-core expression %q: %v", v.raw, err)
		}
		if f < 0 {
			return 0, fmt.Errorf("per-core factor %q is negative", v.raw)
		}
		return f * float64(cores), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %v", v.raw, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("value %q is negative", v.raw)
	}
	return f, nil
}

// UnmarshalJSON accepts both a JSON string and a bare number.
func (v *CoreScaled) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.raw = s
		return nil
	}
	v.raw = string(data)
	return nil
}

// MarshalJSON writes the string form.
func (v CoreScaled) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

// MinionConfiguration is the serialized configuration of one minion.
type MinionConfiguration struct {
	// MaxStartingContainers caps concurrently Starting containers.
	// Accepts a per-core expression.
	MaxStartingContainers CoreScaled `json:"maxStartingContainers,omitempty"`
	// MaxLoadAvg is the load-average admission threshold. Accepts a
	// per-core expression.
	MaxLoadAvg CoreScaled `json:"maxLoadAvg,omitempty"`
	// MaxCPUPercent is the CPU admission threshold, 0-100.
	MaxCPUPercent float64 `json:"maxCPUPercent,omitempty"`
	// MaxIOPercent is the IO utilization admission threshold, 0-100.
	MaxIOPercent float64 `json:"maxIOPercent,omitempty"`
	// MinRate is the guaranteed admission floor, per second.
	MinRate float64 `json:"minRate,omitempty"`
	// MaxRate is the admission rate ceiling, per second.
	MaxRate float64 `json:"maxRate,omitempty"`
	// Burst is the token bucket capacity.
	Burst int `json:"burst,omitempty"`

	// CPUWindowSeconds, LoadWindowSeconds and IOWindowSeconds are the
	// sliding averaging windows for the resource gate.
	CPUWindowSeconds  int `json:"cpuWindowSeconds,omitempty"`
	LoadWindowSeconds int `json:"loadWindowSeconds,omitempty"`
	IOWindowSeconds   int `json:"ioWindowSeconds,omitempty"`

	// TickIntervalSeconds is the periodic re-evaluation interval of the
	// throttling policy engine.
	TickIntervalSeconds int `json:"tickIntervalSeconds,omitempty"`
	// ProbePeriodSeconds is the default liveness polling interval.
	ProbePeriodSeconds int `json:"probePeriodSeconds,omitempty"`
	// FailureTimeoutSeconds is the default Starting deadline.
	FailureTimeoutSeconds int `json:"failureTimeoutSeconds,omitempty"`
	// SampleIntervalSeconds is the host metric sampling interval.
	SampleIntervalSeconds int `json:"sampleIntervalSeconds,omitempty"`
}

// Default returns the built-in configuration.
func Default() MinionConfiguration {
	return MinionConfiguration{
		MaxStartingContainers: NewCoreScaled("1x"),
		MaxLoadAvg:            NewCoreScaled("2x"),
		MaxCPUPercent:         80,
		MaxIOPercent:          80,
		MinRate:               0.1,
		MaxRate:               5,
		Burst:                 10,
		CPUWindowSeconds:      10,
		LoadWindowSeconds:     60,
		IOWindowSeconds:       10,
		TickIntervalSeconds:   1,
		ProbePeriodSeconds:    1,
		FailureTimeoutSeconds: 120,
		SampleIntervalSeconds: 1,
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (MinionConfiguration, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Resolved is the configuration with all per-core expressions expanded
// and durations materialized.
type Resolved struct {
	Throttle       throttle.Config
	TickInterval   time.Duration
	ProbePeriod    time.Duration
	FailureTimeout time.Duration
	SampleInterval time.Duration
}

// Resolve expands the configuration against the host core count and
// validates the result.
func (c MinionConfiguration) Resolve(cores int) (Resolved, error) {
	if cores <= 0 {
		return Resolved{}, fmt.Errorf("core count must be positive, got %d", cores)
	}
	maxStarting, err := c.MaxStartingContainers.Resolve(cores)
	if err != nil {
		return Resolved{}, fmt.Errorf("maxStartingContainers: %w", err)
	}
	maxLoad, err := c.MaxLoadAvg.Resolve(cores)
	if err != nil {
		return Resolved{}, fmt.Errorf("maxLoadAvg: %w", err)
	}

	r := Resolved{
		Throttle: throttle.Config{
			MaxStarting:   int(math.Round(maxStarting)),
			MaxCPUPercent: c.MaxCPUPercent,
			MaxLoadAvg:    maxLoad,
			MaxIOPercent:  c.MaxIOPercent,
			CPUWindow:     time.Duration(c.CPUWindowSeconds) * time.Second,
			LoadWindow:    time.Duration(c.LoadWindowSeconds) * time.Second,
			IOWindow:      time.Duration(c.IOWindowSeconds) * time.Second,
			MinRate:       c.MinRate,
			MaxRate:       float32(c.MaxRate),
			Burst:         c.Burst,
		},
		TickInterval:   time.Duration(c.TickIntervalSeconds) * time.Second,
		ProbePeriod:    time.Duration(c.ProbePeriodSeconds) * time.Second,
		FailureTimeout: time.Duration(c.FailureTimeoutSeconds) * time.Second,
		SampleInterval: time.Duration(c.SampleIntervalSeconds) * time.Second,
	}
	if r.Throttle.MaxStarting < 1 {
		return Resolved{}, fmt.Errorf("maxStartingContainers resolves to %d, must be at least 1", r.Throttle.MaxStarting)
	}
	if r.Throttle.MaxRate <= 0 {
		return Resolved{}, fmt.Errorf("maxRate must be positive")
	}
	if r.Throttle.Burst < 1 {
		return Resolved{}, fmt.Errorf("burst must be at least 1")
	}
	if c.MinRate > c.MaxRate {
		return Resolved{}, fmt.Errorf("minRate %v exceeds maxRate %v", c.MinRate, c.MaxRate)
	}
	if r.TickInterval <= 0 || r.ProbePeriod <= 0 || r.FailureTimeout <= 0 || r.SampleInterval <= 0 {
		return Resolved{}, fmt.Errorf("intervals must be positive")
	}
	return r, nil
}
