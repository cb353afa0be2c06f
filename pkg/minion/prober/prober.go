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

package prober

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

// Checker executes one liveness check attempt. Implementations must be
// safe for concurrent use: one worker goroutine runs per Starting
// container.
type Checker interface {
	Check(ctx context.Context, check types.LivenessCheck) (bool, error)
}

// execChecker runs HTTP, TCP and exec checks directly on the host.
type execChecker struct {
	httpClient *http.Client
}

// NewChecker returns the default liveness check executor.
func NewChecker() Checker {
	return &execChecker{
		httpClient: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *execChecker) Check(ctx context.Context, check types.LivenessCheck) (bool, error) {
	switch check.Type {
	case types.ProbeNone, "":
		return true, nil
	case types.ProbeHTTP:
		return c.checkHTTP(ctx, check.URL)
	case types.ProbeTCP:
		return c.checkTCP(ctx, check.Address)
	case types.ProbeExec:
		return c.checkExec(ctx, check.Command)
	default:
		return false, fmt.Errorf("unknown probe type %q", check.Type)
	}
}

func (c *execChecker) checkHTTP(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, nil
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400, nil
}

func (c *execChecker) checkTCP(ctx context.Context, address string) (bool, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return false, nil
	}
	conn.Close()
	return true, nil
}

func (c *execChecker) checkExec(ctx context.Context, command []string) (bool, error) {
	if len(command) == 0 {
		return false, fmt.Errorf("exec probe has no command")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	if err := cmd.Run(); err != nil {
		return false, nil
	}
	return true, nil
}
