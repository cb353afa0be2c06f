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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreScaledResolve(t *testing.T) {
	testCases := []struct {
		raw     string
		cores   int
		want    float64
		wantErr bool
	}{
		{raw: "8", cores: 4, want: 8},
		{raw: "4.5", cores: 16, want: 4.5},
		{raw: "2x", cores: 4, want: 8},
		{raw: "1.5x", cores: 8, want: 12},
		{raw: "0.5x", cores: 2, want: 1},
		{raw: " 2 x", cores: 4, wantErr: true},
		{raw: "", cores: 4, wantErr: true},
		{raw: "-1", cores: 4, wantErr: true},
		{raw: "-1x", cores: 4, wantErr: true},
		{raw: "xx", cores: 4, wantErr: true},
		{raw: "abc", cores: 4, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := NewCoreScaled(tc.raw).Resolve(tc.cores)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDefaultResolves(t *testing.T) {
	r, err := Default().Resolve(4)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Throttle.MaxStarting, "1x on 4 cores")
	assert.Equal(t, 8.0, r.Throttle.MaxLoadAvg, "2x on 4 cores")
	assert.Equal(t, 10*time.Second, r.Throttle.CPUWindow)
	assert.Equal(t, time.Minute, r.Throttle.LoadWindow)
	assert.Equal(t, time.Second, r.TickInterval)
}

func TestResolveRejections(t *testing.T) {
	mutate := func(f func(*MinionConfiguration)) MinionConfiguration {
		cfg := Default()
		f(&cfg)
		return cfg
	}
	testCases := []struct {
		name string
		cfg  MinionConfiguration
	}{
		{"minRate above maxRate", mutate(func(c *MinionConfiguration) { c.MinRate = 10; c.MaxRate = 1 })},
		{"zero burst", mutate(func(c *MinionConfiguration) { c.Burst = 0 })},
		{"zero maxRate", mutate(func(c *MinionConfiguration) { c.MaxRate = 0 })},
		{"cap resolves to zero", mutate(func(c *MinionConfiguration) { c.MaxStartingContainers = NewCoreScaled("0") })},
		{"bad per-core expression", mutate(func(c *MinionConfiguration) { c.MaxLoadAvg = NewCoreScaled("fast") })},
		{"zero tick", mutate(func(c *MinionConfiguration) { c.TickIntervalSeconds = 0 })},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cfg.Resolve(4)
			assert.Error(t, err)
		})
	}

	_, err := Default().Resolve(0)
	assert.Error(t, err, "non-positive core count")
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minion.yaml")
	content := `
maxStartingContainers: 2x
maxLoadAvg: 6
maxCPUPercent: 70
minRate: 0.2
maxRate: 10
burst: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	r, err := cfg.Resolve(8)
	require.NoError(t, err)
	assert.Equal(t, 16, r.Throttle.MaxStarting)
	assert.Equal(t, 6.0, r.Throttle.MaxLoadAvg)
	assert.Equal(t, 70.0, r.Throttle.MaxCPUPercent)
	assert.Equal(t, float32(10), r.Throttle.MaxRate)
	assert.Equal(t, 20, r.Throttle.Burst)
	// Unspecified fields keep their defaults.
	assert.Equal(t, 80.0, r.Throttle.MaxIOPercent)
}

func TestLoadUnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxStrtingContainers: 2\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
