// SPDX-License-Identifier: Apache-2.0
//
// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd assembles the traojudge binary's subcommands on top of
// github.com/binaek/cling: one addXCmd per subcommand, each owning its
// own flags and hydration.
package cmd

import (
	"context"
	"log/slog"

	"github.com/binaek/cling"

	"github.com/traojudge/core/constants"
)

// Setup builds the traojudge CLI: serve runs the judge orchestration core
// as a long-lived process, register and validate operate on a
// writer-schema procedure file, and judge runs one procedure end to end
// without a server.
func Setup(ctx context.Context, version string) *cling.CLI {
	cli := cling.NewCLI(constants.AppName, version).
		WithDescription("traojudge is the judge orchestration core: it registers writer procedures and runs them against a worker pool").
		WithPreRun(func(ctx context.Context, args []string) error {
			slog.DebugContext(ctx, "==> starting traojudge", slog.String("version", version))
			return nil
		}).
		WithPostRun(func(ctx context.Context, args []string) error {
			slog.DebugContext(ctx, "==> exiting traojudge")
			return nil
		})

	addServeCmd(cli)
	addRegisterCmd(cli)
	addJudgeCmd(cli)
	addValidateCmd(cli)

	return cli
}

// Execute runs cli against args.
func Execute(ctx context.Context, cli *cling.CLI, args []string) error {
	if cli == nil {
		panic("CLI cannot be NIL")
	}
	return cli.Run(ctx, args)
}
