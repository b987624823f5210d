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

// Package output turns a worker's captured process output into the
// structured result a judge response reports for one execution node.
package output

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/xerr"
)

// JudgeStatus is the closed set of verdicts an execution can report.
type JudgeStatus string

const (
	Accepted            JudgeStatus = "Accepted"
	WrongAnswer         JudgeStatus = "WrongAnswer"
	TimeLimitExceeded   JudgeStatus = "TimeLimitExceeded"
	MemoryLimitExceeded JudgeStatus = "MemoryLimitExceeded"
	OutputLimitExceeded JudgeStatus = "OutputLimitExceeded"
	RuntimeError        JudgeStatus = "RuntimeError"
	CompileError        JudgeStatus = "CompileError"
	InternalError       JudgeStatus = "InternalError"
)

// ExecutionResult is the union a script's stdout must deserialize into:
// exactly one of Displayable or Hidden is non-nil, selected by which shape
// the JSON object matched.
type ExecutionResult struct {
	Displayable *DisplayableResult `json:"-"`
	Hidden      *HiddenResult      `json:"-"`
}

// DisplayableResult is a result the platform may show the submitter,
// carrying score and resource usage.
type DisplayableResult struct {
	Status     JudgeStatus `json:"status"`
	Score      float64     `json:"score"`
	ExecTimeMs int64       `json:"exec_time_ms"`
	MemoryKiB  int64       `json:"memory_kib"`
	Text       *string     `json:"text,omitempty"`
}

// HiddenResult is a result withheld from the submitter (e.g. a hidden test
// case), carrying only the status.
type HiddenResult struct {
	Status JudgeStatus `json:"status"`
}

// UnmarshalJSON picks Displayable if the object carries a score,
// exec_time_ms or memory_kib field, Hidden otherwise. The wire shape doesn't carry an explicit
// discriminant, so this mirrors how a problem setter's script actually
// decides: hidden test cases report only a status.
func (r *ExecutionResult) UnmarshalJSON(b []byte) error {
	var probe struct {
		Status     JudgeStatus      `json:"status"`
		Score      *float64         `json:"score"`
		ExecTimeMs *int64           `json:"exec_time_ms"`
		MemoryKiB  *int64           `json:"memory_kib"`
		Text       *string          `json:"text"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}

	if probe.Score != nil || probe.ExecTimeMs != nil || probe.MemoryKiB != nil {
		score := float64(0)
		if probe.Score != nil {
			score = *probe.Score
		}
		var execTime, mem int64
		if probe.ExecTimeMs != nil {
			execTime = *probe.ExecTimeMs
		}
		if probe.MemoryKiB != nil {
			mem = *probe.MemoryKiB
		}
		r.Displayable = &DisplayableResult{
			Status:     probe.Status,
			Score:      score,
			ExecTimeMs: execTime,
			MemoryKiB:  mem,
			Text:       probe.Text,
		}
		return nil
	}

	r.Hidden = &HiddenResult{Status: probe.Status}
	return nil
}

func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	if r.Displayable != nil {
		return json.Marshal(r.Displayable)
	}
	return json.Marshal(r.Hidden)
}

// Status returns the verdict regardless of which variant is populated.
func (r ExecutionResult) Status() JudgeStatus {
	if r.Displayable != nil {
		return r.Displayable.Status
	}
	if r.Hidden != nil {
		return r.Hidden.Status
	}
	return ""
}

// Parse implements spec §4.5: a non-zero exit code is reported before
// touching stdout at all, then stdout must be valid UTF-8 and valid JSON
// shaped like ExecutionResult.
func Parse(out jobapi.Output) (ExecutionResult, error) {
	if out.ExitStatus != 0 {
		return ExecutionResult{}, xerr.ErrNonZeroExitCode(out.ExitStatus, out.Stdout, out.Stderr)
	}

	if !utf8.ValidString(out.Stdout) {
		return ExecutionResult{}, xerr.ErrInvalidJSON("stdout is not valid UTF-8")
	}

	var result ExecutionResult
	if err := json.Unmarshal([]byte(out.Stdout), &result); err != nil {
		return ExecutionResult{}, xerr.ErrInvalidJSON(err.Error())
	}
	return result, nil
}
