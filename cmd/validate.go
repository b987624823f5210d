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
	"fmt"

	"github.com/binaek/cling"

	"github.com/traojudge/core/transpile"
)

func addValidateCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("validate", validateCmd).
			WithArgument(cling.NewStringCmdInput("procedure").
				WithDescription("Writer-schema procedure file to validate").
				AsArgument(),
			),
	)
}

type validateCmdArgs struct {
	Procedure string `cling-name:"procedure"`
}

// validateCmd transpiles a writer procedure and reports schema errors
// (duplicate names, dangling depends_on, cycles, unknown script_name)
// without registering anything or running any execution.
func validateCmd(ctx context.Context, args []string) error {
	input := validateCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	p, err := loadWriterProcedure(input.Procedure)
	if err != nil {
		return err
	}

	reg, _, err := transpile.Register(p)
	if err != nil {
		return err
	}

	fmt.Printf(
		"ok: %d executions, %d texts, %d runtime texts, %d empty directories\n",
		len(reg.Executions), len(reg.Texts), len(reg.RuntimeTexts), len(reg.EmptyDirectories),
	)
	return nil
}
