package local

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/xerr"
)

// Execute stages every dependency's path under its envvar, resolves the
// mandatory TRAOJUDGE_EXEC_SCRIPT dependency as the program to run, and
// captures its output. The script file is passed to /bin/sh as its argument
// (not through -c), so it can be an arbitrary shell body without execute
// permission, matching how problem setters author scripts in the writer
// form.
func (b *Backend) Execute(ctx context.Context, reservation jobapi.ReservationToken, env map[string]string, dependencies []jobapi.Dependency) (jobapi.OutcomeToken, jobapi.Output, error) {
	token, ok := reservation.(*reservationToken)
	if !ok {
		return nil, jobapi.Output{}, xerr.ErrInternal("reservation token not issued by this backend")
	}
	if !token.consume() {
		return nil, jobapi.Output{}, xerr.ErrInternal("reservation token already consumed or released")
	}
	defer token.sem.Release(1)

	outputDir := filepath.Join(b.root, uuid.NewString())
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, jobapi.Output{}, xerr.ErrExecutionFailed(err.Error())
	}
	outcome := newOutcomeToken(outputDir)

	var scriptPath string
	envPairs := os.Environ()
	for k, v := range env {
		envPairs = append(envPairs, k+"="+v)
	}
	for _, dep := range dependencies {
		handle, ok := dep.Outcome.(*outcomeToken)
		if !ok {
			outcome.Release()
			return nil, jobapi.Output{}, xerr.ErrInternal("dependency outcome token not issued by this backend")
		}
		envPairs = append(envPairs, dep.Envvar+"="+handle.path)
		if dep.Envvar == execScriptEnvvar {
			scriptPath = handle.path
		}
	}
	envPairs = append(envPairs, "TRAOJUDGE_EXEC_OUTPUT="+outputDir)

	if scriptPath == "" {
		outcome.Release()
		return nil, jobapi.Output{}, xerr.ErrInvalidSchema("execution is missing its %s dependency", execScriptEnvvar)
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", scriptPath)
	cmd.Env = envPairs
	cmd.Dir = outputDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitStatus := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitStatus = exitErr.ExitCode()
		} else {
			outcome.Release()
			return nil, jobapi.Output{}, xerr.ErrExecutionFailed(runErr.Error())
		}
	}

	return outcome, jobapi.Output{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ExitStatus: exitStatus,
	}, nil
}
