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
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/binaek/cling"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/traojudge/core/api"
	"github.com/traojudge/core/config"
	"github.com/traojudge/core/constants"
	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/jobapi/local"
	"github.com/traojudge/core/jobapi/remote"
	"github.com/traojudge/core/judgeservice"
	"github.com/traojudge/core/otelinit"
	"github.com/traojudge/core/registry"
)

func addServeCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("serve", serveCmd).
			WithFlag(cling.
				NewIntCmdInput("port").
				WithDefault(7890).
				WithDescription("Port the gRPC JudgeService listens on").
				AsFlag(),
			).
			WithFlag(cling.
				NewIntCmdInput("status-port").
				WithDefault(7891).
				WithDescription("Port the HTTP healthz/readyz surface listens on").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("config-root").
				WithDefault(".").
				WithDescription("Directory to start searching for traojudge.toml in").
				AsFlag(),
			).
			WithFlag(cling.
				NewCmdSliceInput[string]("listen").
				WithDefault([]string{"local"}).
				WithDescription("Address(es) the status API listens on").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("problems-dir").
				WithDefault("").
				WithDescription("Directory of writer-schema *.json procedures to register at startup").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("remote-worker-address").
				WithDefault("").
				WithDescription("Dial a remote jobapi worker pool instead of running one in-process").
				AsFlag(),
			).
			WithFlag(
				cling.NewBoolCmdInput("otel-enabled").
					WithDefault(false).
					WithDescription("Enable OpenTelemetry tracing, metrics, and logs").
					AsFlag().
					FromEnv([]string{constants.EnvOtelEnabled}),
			).
			WithFlag(
				cling.NewStringCmdInput("otel-endpoint").
					WithDefault("http://localhost:4317").
					WithDescription("OpenTelemetry endpoint to send telemetry to").
					AsFlag().
					FromEnv([]string{constants.EnvOtelEndpoint}),
			).
			WithFlag(
				cling.NewStringCmdInput("otel-protocol").
					WithDefault("grpc").
					WithValidator(cling.NewEnumValidator("http", "grpc")).
					WithDescription("OpenTelemetry protocol. Allowed values: http, grpc.").
					AsFlag().
					FromEnv([]string{constants.EnvOtelProtocol}),
			).
			WithFlag(
				cling.NewBoolCmdInput("otel-trace-execution").
					WithDefault(false).
					WithDescription("Sets the OpenTelemetry TraceExecution option (no per-execution spans are created).").
					AsFlag().
					FromEnv([]string{constants.EnvOtelTraceExecution}),
			),
	)
}

type serveCmdArgs struct {
	Port                int      `cling-name:"port"`
	StatusPort          int      `cling-name:"status-port"`
	ConfigRoot          string   `cling-name:"config-root"`
	Listen              []string `cling-name:"listen"`
	ProblemsDir         string   `cling-name:"problems-dir"`
	RemoteWorkerAddress string   `cling-name:"remote-worker-address"`
	OtelEnabled         bool     `cling-name:"otel-enabled"`
	OtelEndpoint        string   `cling-name:"otel-endpoint"`
	OtelProtocol        string   `cling-name:"otel-protocol"`
	OtelTraceExecution  bool     `cling-name:"otel-trace-execution"`
}

// serveCmd runs the judge orchestration core as a long-lived process: a
// registry preloaded from --problems-dir (the only way this core itself
// ever populates the registry, since the judge gRPC surface carries no
// register RPC of its own), a worker backend (in-process local.Backend or
// a dialed remote pool), the judgeservice gRPC server wrapping them, and
// an HTTP healthz/readyz surface alongside it.
func serveCmd(ctx context.Context, args []string) error {
	input := serveCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	cfg, err := config.Load(ctx, input.ConfigRoot)
	if err != nil {
		return err
	}

	var otelCleanup otelinit.ShutdownFn
	otelCfg := otelinit.Config{
		Enabled:        input.OtelEnabled,
		Endpoint:       input.OtelEndpoint,
		Protocol:       input.OtelProtocol,
		ServiceName:    constants.AppName,
		ServiceVersion: cfg.SchemaVersion,
		ProcedureLabel: input.ProblemsDir,
		TraceExecution: input.OtelEnabled && input.OtelTraceExecution,
	}

	if otelCfg.Enabled {
		otelCleanup, err = otelinit.InitProvider(ctx, otelCfg)
		if err != nil {
			return err
		}
		defer func() {
			if otelCleanup != nil {
				_ = otelCleanup(context.WithoutCancel(ctx))
			}
		}()
	}

	server := registry.NewInMemory()
	if input.ProblemsDir != "" {
		procedures, err := loadWriterProcedureDir(input.ProblemsDir)
		if err != nil {
			return err
		}
		for name, p := range procedures {
			if _, err := registry.RegisterProcedure(ctx, server, p); err != nil {
				return errors.Wrapf(err, "registering problem %q", name)
			}
			slog.InfoContext(ctx, "registered problem", slog.String("name", name))
		}
	}

	backend, closeBackend, err := newWorkerBackend(input, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	service := judgeservice.NewService(registry.NewClient(server), backend)
	service.LanguagesJSONPath = cfg.LanguagesJSON

	grpcServer := grpc.NewServer()
	judgeservice.NewServer(service).Register(grpcServer)

	judgeListener, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(input.Port)))
	if err != nil {
		return errors.Wrapf(err, "listening on port %d", input.Port)
	}
	defer func() { _ = judgeListener.Close() }()

	statusAPI := api.NewStatusAPI(func(context.Context) (bool, string) { return true, "" }, &otelCfg)
	if err := statusAPI.Setup(ctx, input.StatusPort, input.Listen); err != nil {
		return err
	}
	statusAPI.Start(ctx)
	defer func() { _ = statusAPI.Stop(context.WithoutCancel(ctx)) }()

	errCh := make(chan error, 1)
	go func() { errCh <- grpcServer.Serve(judgeListener) }()

	slog.InfoContext(ctx, "traojudge serving",
		slog.Int("judge-port", input.Port),
		slog.Int("status-port", input.StatusPort))

	select {
	case <-ctx.Done():
		grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// newWorkerBackend builds the jobapi.JobAPI serveCmd runs the judge
// service against: a local.Backend rooted at cfg.Worker.Root (or a fresh
// scratch directory when unset) by default, or a remote.Client dialed at
// --remote-worker-address, or at the config's remote address when that flag
// is empty.
func newWorkerBackend(input serveCmdArgs, cfg config.Config) (jobapi.JobAPI, func(), error) {
	address := input.RemoteWorkerAddress
	if address == "" && cfg.Remote != nil {
		address = cfg.Remote.Address
	}
	if address != "" {
		opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, remote.DialOptions()...)
		conn, err := grpc.NewClient(address, opts...)
		if err != nil {
			return nil, func() {}, errors.Wrapf(err, "dialing remote worker %s", address)
		}
		return remote.NewClient(conn), func() { _ = conn.Close() }, nil
	}

	root := cfg.Worker.Root
	cleanup := func() {}
	if root == "" {
		tmp, err := os.MkdirTemp("", "traojudge-worker-*")
		if err != nil {
			return nil, func() {}, errors.Wrap(err, "creating worker scratch root")
		}
		root = tmp
		cleanup = func() { _ = os.RemoveAll(root) }
	}

	capacity := cfg.Worker.Capacity
	if capacity <= 0 {
		capacity = 4
	}

	return local.New(root, capacity), cleanup, nil
}
