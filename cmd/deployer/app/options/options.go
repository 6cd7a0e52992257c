/*
Copyright 2024 The Torrust Authors.

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
	"github.com/spf13/pflag"

	"github.com/torrust/tracker-deployer/internal/container"
)

// RunOptions are the root command's persistent flags, the CLI surface of
// spec.md §6's data/build directory layout and §4.7's verbosity levels.
type RunOptions struct {
	DataDir  string
	BuildDir string
	LogLevel string
	Quiet    bool
	Verbose  int // repeat count of -v
	Force    bool
}

// AddFlags registers every persistent flag on fs.
func (o *RunOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.DataDir, "data-dir", "data", "directory holding each environment's persisted state and logs")
	fs.StringVar(&o.BuildDir, "build-dir", "build", "directory holding each environment's rendered tofu/ansible artifacts")
	fs.StringVar(&o.LogLevel, "log-level", "info", "process log level: debug, info, error")
	fs.BoolVarP(&o.Quiet, "quiet", "q", false, "suppress step progress output")
	fs.CountVarP(&o.Verbose, "verbose", "v", "increase step progress verbosity (repeatable)")
	fs.BoolVar(&o.Force, "force", false, "skip the confirmation destroying a registered (not provisioned) environment requires")
}

// RunContext carries the assembled Container and parsed RunOptions down to
// every subcommand, the CLI counterpart to the teacher's ControllerContext.
type RunContext struct {
	Container *container.Container
	Options   *RunOptions
}
