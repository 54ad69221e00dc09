package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TaskExecutionStatus is the numeric status of a task execution as reported by the repository.
type TaskExecutionStatus int

const (
	StatusNeverStarted TaskExecutionStatus = iota
	StatusTriggered
	StatusStarted
	StatusQueued
	StatusAbortInitiated
	StatusAborting
	StatusAborted
	StatusFinishedSuccess
	StatusFinishedFail
	StatusSkipped
	StatusRetry
	StatusError
	StatusReset
)

var taskExecutionStatusNames = map[TaskExecutionStatus]string{
	StatusNeverStarted:    "NeverStarted",
	StatusTriggered:       "Triggered",
	StatusStarted:         "Started",
	StatusQueued:          "Queue",
	StatusAbortInitiated:  "AbortInitiated",
	StatusAborting:        "Aborting",
	StatusAborted:         "Aborted",
	StatusFinishedSuccess: "FinishedSuccess",
	StatusFinishedFail:    "FinishedFail",
	StatusSkipped:         "Skipped",
	StatusRetry:           "Retry",
	StatusError:           "Error",
	StatusReset:           "Reset",
}

func (s TaskExecutionStatus) String() string {
	if name, ok := taskExecutionStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TaskExecutionStatus(%d)", int(s))
}

// Valid reports whether s is a known status code.
func (s TaskExecutionStatus) Valid() bool {
	_, ok := taskExecutionStatusNames[s]
	return ok
}

// Terminal reports whether an execution in status s will not change anymore.
func (s TaskExecutionStatus) Terminal() bool {
	switch s {
	case StatusAborted, StatusFinishedSuccess, StatusFinishedFail, StatusSkipped, StatusError, StatusReset:
		return true
	}
	return false
}

// Succeeded reports whether s is FinishedSuccess.
func (s TaskExecutionStatus) Succeeded() bool {
	return s == StatusFinishedSuccess
}

// ParseTaskExecutionStatus accepts the numeric code or the status name (case insensitive).
func ParseTaskExecutionStatus(value any) (TaskExecutionStatus, error) {
	switch v := value.(type) {
	case string:
		for status, name := range taskExecutionStatusNames {
			if strings.EqualFold(name, v) {
				return status, nil
			}
		}
		return 0, fmt.Errorf("unknown task execution status %q", v)
	default:
		code, err := toInt(v)
		if err != nil {
			return 0, fmt.Errorf("unknown task execution status %v: %w", v, err)
		}
		status := TaskExecutionStatus(code)
		if !status.Valid() {
			return 0, fmt.Errorf("unknown task execution status %d", code)
		}
		return status, nil
	}
}

func (s *TaskExecutionStatus) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTaskExecutionStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TaskType is the kind of a repository task.
type TaskType int

const (
	TaskTypeReload TaskType = iota
	TaskTypeExternalProgram
	TaskTypeUserSync
	TaskTypeDistribute
)

var taskTypeNames = map[TaskType]string{
	TaskTypeReload:          "Reload",
	TaskTypeExternalProgram: "ExternalProgram",
	TaskTypeUserSync:        "UserSync",
	TaskTypeDistribute:      "Distribute",
}

func (t TaskType) String() string {
	if name, ok := taskTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TaskType(%d)", int(t))
}

func (t TaskType) Valid() bool {
	_, ok := taskTypeNames[t]
	return ok
}

func (t *TaskType) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	parsed := TaskType(code)
	if !parsed.Valid() {
		return fmt.Errorf("unknown task type %d", code)
	}
	*t = parsed
	return nil
}
