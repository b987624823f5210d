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

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/binaek/cling"
	"github.com/pkg/errors"

	"github.com/traojudge/core/registry"
)

func addRegisterCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("register", registerCmd).
			WithArgument(cling.NewStringCmdInput("procedure").
				WithDescription("Writer-schema procedure file to register").
				AsArgument(),
			).
			WithFlag(cling.
				NewStringCmdInput("output").
				WithDefault("-").
				WithDescription("File to write the registered procedure JSON to; \"-\" for stdout").
				AsFlag(),
			),
	)
}

type registerCmdArgs struct {
	Procedure string `cling-name:"procedure"`
	Output    string `cling-name:"output"`
}

// registerCmd runs the Problem Registry's register operation against a
// fresh, process-local InMemory server and prints the
// resulting registered.Procedure as JSON. The server itself is discarded
// when the command exits: registering from the CLI is meant for a problem
// setter to inspect or check in the transpiled output, not to populate a
// long-running judge process (that happens via `serve --problems-dir`,
// which registers directly into the server it then keeps running).
func registerCmd(ctx context.Context, args []string) error {
	input := registerCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	p, err := loadWriterProcedure(input.Procedure)
	if err != nil {
		return err
	}

	server := registry.NewInMemory()
	reg, err := registry.RegisterProcedure(ctx, server, p)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding registered procedure")
	}

	if input.Output == "-" {
		fmt.Println(string(b))
		return nil
	}
	return errors.Wrapf(os.WriteFile(input.Output, b, 0644), "writing %s", input.Output)
}
