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

// The minion scheduler decides, per host, when assigned containers may
// start. It serializes startup along declared dependencies and throttles
// concurrent starts against host resource pressure.
package main

import (
	"os"

	"k8s.io/component-base/cli"

	"k8s.io/minion-scheduler/cmd/minion-scheduler/app"
)

func main() {
	command := app.NewMinionSchedulerCommand()
	code := cli.Run(command)
	os.Exit(code)
}
