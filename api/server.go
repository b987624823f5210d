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

// Package api provides the `serve` command's ambient HTTP surface:
// liveness/readiness endpoints an operator's load balancer polls. The
// judge surface itself is the gRPC JudgeService (package judgeservice);
// REST submission endpoints are intentionally absent, so StatusAPI never
// accepts a judge request, only reports on whether the process backing
// the gRPC listener is healthy.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/traojudge/core/api/middleware"
	"github.com/traojudge/core/otelinit"
)

// ReadyFunc reports whether the process is ready to accept judge traffic
// (e.g. its worker backend is reachable) and a human-readable detail to
// surface on failure.
type ReadyFunc func(ctx context.Context) (bool, string)

// ListenerServerPair couples one bound listener with the http.Server
// serving it, so StatusAPI can close both together.
type ListenerServerPair struct {
	Listener net.Listener
	Server   *http.Server
}

func (p *ListenerServerPair) Close() error {
	if err := p.Listener.Close(); err != nil {
		return err
	}
	return p.Server.Close()
}

// StatusAPI serves GET /healthz and GET /readyz alongside a running
// judgeservice gRPC server.
type StatusAPI struct {
	ready     ReadyFunc
	otelCfg   *otelinit.Config
	listeners []*ListenerServerPair
}

// NewStatusAPI builds a StatusAPI. otelCfg may be nil (telemetry disabled).
func NewStatusAPI(ready ReadyFunc, otelCfg *otelinit.Config) *StatusAPI {
	if otelCfg == nil {
		otelCfg = &otelinit.Config{}
	}
	return &StatusAPI{ready: ready, otelCfg: otelCfg}
}

// Setup resolves port/listen into concrete bindings and opens a listener
// on each, without yet accepting connections.
func (a *StatusAPI) Setup(ctx context.Context, port int, listen []string) error {
	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(a.handleHealth))
	mux.Handle("GET /readyz", http.HandlerFunc(a.handleReady))

	tracer := otel.Tracer("github.com/traojudge/core/api")
	meter := otel.Meter("github.com/traojudge/core/api")
	handler := middleware.RequestIDMiddleware(middleware.OTelMiddleware(a.otelCfg, tracer, meter, mux))

	bindings, err := resolveBindings(port, listen)
	if err != nil {
		return err
	}

	listeners := make([]*ListenerServerPair, 0, len(bindings))
	for _, binding := range bindings {
		ln, err := net.Listen("tcp", binding)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return fmt.Errorf("failed to listen on %s: %w", binding, err)
		}
		listeners = append(listeners, &ListenerServerPair{
			Listener: ln,
			Server: &http.Server{
				Handler:      handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				BaseContext:  func(net.Listener) context.Context { return ctx },
			},
		})
		slog.DebugContext(ctx, "status api listening", slog.String("binding", binding))
	}
	a.listeners = listeners
	return nil
}

// Start serves every listener opened by Setup until it is closed by Stop.
// It does not block.
func (a *StatusAPI) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, ln := range a.listeners {
		wg.Add(1)
		go func(ln *ListenerServerPair) {
			defer wg.Done()
			if err := ln.Server.Serve(ln.Listener); err != nil && err != http.ErrServerClosed {
				slog.ErrorContext(ctx, "status api listener stopped", slog.Any("error", err))
			}
		}(ln)
	}
}

// Stop gracefully shuts down every listener.
func (a *StatusAPI) Stop(ctx context.Context) error {
	for _, ln := range a.listeners {
		_ = ln.Server.Shutdown(ctx)
	}
	a.listeners = nil
	return nil
}

func (a *StatusAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

func (a *StatusAPI) handleReady(w http.ResponseWriter, r *http.Request) {
	ok, detail := true, ""
	if a.ready != nil {
		ok, detail = a.ready(r.Context())
	}
	if !ok {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusServiceUnavailable)
		pd := NewProblemDetails(
			"https://traojudge.dev/problems/not-ready",
			"not ready",
			detail,
			r.URL.Path,
			http.StatusServiceUnavailable,
			map[string]any{"timestamp": time.Now().UTC().Format(time.RFC3339)},
		)
		_ = json.NewEncoder(w).Encode(pd)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
