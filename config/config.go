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

// Package config loads traojudge.toml: check the given root, then walk up
// the directory tree until one is found or the filesystem root is reached.
// The config surface is small by design (the core's scope is
// orchestration, not deployment): where to listen, how many
// executions a local worker can run at once, and where its scratch
// directory and languages manifest live.
package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/traojudge/core/constants"
)

var (
	ErrConfigFileNotFound   = errors.New("config file not found")
	ErrConfigFileLoadFailed = errors.New("config file load failed")
)

// FileName is the config file config.Load searches for: "traojudge.toml".
var FileName = constants.AppName + "." + constants.ConfigFileExtension

// Worker configures the local jobapi backend the `serve` command runs
// against when no remote worker address is given. The `judge` command does
// not read it: it takes its capacity from --capacity and always uses a
// fresh temporary root.
type Worker struct {
	// Root is the scratch directory placed files and execution output
	// directories are created under. Defaults to an os.MkdirTemp-backed
	// directory when empty.
	Root string `toml:"root,omitempty"`
	// Capacity bounds how many executions the local backend runs at once.
	Capacity int64 `toml:"capacity,omitempty"`
}

// Remote configures dialing an external worker pool instead of running
// jobapi/local in-process.
type Remote struct {
	Address string `toml:"address,omitempty"`
}

// Server holds the listener settings of traojudge.toml. The `serve` command
// does not read them: its listeners come from its --port, --status-port
// and --listen flags.
type Server struct {
	// Listen is a list of bind specs in the form api.resolveBindings
	// understands: a single predefined name (e.g. "local", "network4") or
	// one or more host addresses (e.g. "127.0.0.1"), each joined with Port.
	Listen []string `toml:"listen,omitempty"`
	Port   int      `toml:"port,omitempty"`
}

// Config is traojudge.toml's shape.
type Config struct {
	SchemaVersion string  `toml:"schema_version,omitempty"`
	Server        Server  `toml:"server"`
	Worker        Worker  `toml:"worker"`
	Remote        *Remote `toml:"remote,omitempty"`
	LanguagesJSON string  `toml:"languages_json,omitempty"`

	// Location is the directory the config file was found in, not a TOML
	// field: relative paths in the file (LanguagesJSON, Worker.Root) are
	// resolved against it.
	Location string `toml:"-"`
}

// Default returns the configuration traojudge runs with when no config
// file is found: a local worker backend with modest concurrency and no
// remote address.
func Default() Config {
	return Config{
		Server: Server{Listen: []string{"local"}, Port: 7890},
		Worker: Worker{Capacity: 4},
	}
}

// Load locates and parses traojudge.toml starting the search at root (a
// file or directory). If no config file is found, Load returns Default()
// rather than an error: config.FileName is a convenience, not a
// requirement, since every field has a sensible default.
func Load(ctx context.Context, root string) (Config, error) {
	path, err := locate(ctx, root)
	if errors.Is(err, ErrConfigFileNotFound) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	cfg := Default()
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(ErrConfigFileLoadFailed, err.Error())
	}
	cfg.Location = filepath.Dir(path)
	if cfg.LanguagesJSON != "" && !filepath.IsAbs(cfg.LanguagesJSON) {
		cfg.LanguagesJSON = filepath.Join(cfg.Location, cfg.LanguagesJSON)
	}
	if cfg.Worker.Root != "" && !filepath.IsAbs(cfg.Worker.Root) {
		cfg.Worker.Root = filepath.Join(cfg.Location, cfg.Worker.Root)
	}
	return cfg, nil
}

func locate(ctx context.Context, root string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if len(strings.TrimSpace(root)) == 0 {
		return "", errors.New("root is empty")
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(err, "failed to get absolute path to root")
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", errors.Wrap(err, "failed to locate config file")
	}
	if info.Name() == FileName {
		return root, nil
	}
	if !info.IsDir() {
		root = filepath.Dir(root)
	}

	if _, err := os.Stat(filepath.Join(root, FileName)); err == nil {
		return filepath.Join(root, FileName), nil
	}

	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		parent := filepath.Dir(root)
		if parent == root || (runtime.GOOS == "windows" && strings.HasSuffix(root, `:\`)) {
			break
		}
		root = parent
		if _, err := os.Stat(filepath.Join(root, FileName)); err == nil {
			return filepath.Join(root, FileName), nil
		}
	}

	return "", ErrConfigFileNotFound
}
