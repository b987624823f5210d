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

	"github.com/traojudge/core/jobapi/local"
	"github.com/traojudge/core/judgeservice"
	"github.com/traojudge/core/registry"
)

func addJudgeCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("judge", judgeCmd).
			WithArgument(cling.NewStringCmdInput("procedure").
				WithDescription("Writer-schema procedure file to judge").
				AsArgument(),
			).
			WithFlag(cling.
				NewStringCmdInput("runtime-texts").
				WithDefault("{}").
				WithDescription("JSON object of runtime-text label to content (e.g. the submission source)").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("language").
				WithDefault("").
				WithDescription("Language tag forwarded to every execution as TRAOJUDGE_EXEC_LANGUAGE").
				AsFlag(),
			).
			WithFlag(cling.
				NewIntCmdInput("capacity").
				WithDefault(4).
				WithDescription("How many executions the local worker backend runs at once").
				AsFlag(),
			),
	)
}

type judgeCmdArgs struct {
	Procedure    string `cling-name:"procedure"`
	RuntimeTexts string `cling-name:"runtime-texts"`
	Language     string `cling-name:"language"`
	Capacity     int    `cling-name:"capacity"`
}

// judgeCmd registers a writer procedure into a throwaway registry, places
// and runs it against a local worker backend rooted at a fresh temporary
// directory, and prints the resulting JudgeResponse as JSON. This is the
// one-shot path a problem setter uses to try a procedure end to end
// without standing up `serve`; a real deployment judges submissions
// through the gRPC JudgeService instead.
func judgeCmd(ctx context.Context, args []string) error {
	input := judgeCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	var runtimeTexts map[string]string
	if err := json.Unmarshal([]byte(input.RuntimeTexts), &runtimeTexts); err != nil {
		return errors.Wrap(err, "parsing --runtime-texts")
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

	root, err := os.MkdirTemp("", "traojudge-judge-*")
	if err != nil {
		return errors.Wrap(err, "creating worker scratch root")
	}
	defer func() { _ = os.RemoveAll(root) }()

	backend := local.New(root, int64(input.Capacity))
	service := judgeservice.NewService(registry.NewClient(server), backend)

	resp, err := service.Judge(ctx, judgeservice.JudgeRequest{
		Procedure:    reg,
		RuntimeTexts: runtimeTexts,
		Language:     input.Language,
	})
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(resp.Results, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding judge response")
	}
	fmt.Println(string(b))
	return nil
}
