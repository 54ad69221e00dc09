package resources

import (
	"context"
	"fmt"

	"github.com/qrs-tools/go-qrs-client/core"
)

// ExecutionDetail is one message logged during a task execution.
type ExecutionDetail struct {
	DetailsType       int    `json:"detailsType"`
	Message           string `json:"message"`
	DetailCreatedDate string `json:"detailCreatedDate,omitempty"`
}

// ExecutionResult is the outcome of a task execution.
type ExecutionResult struct {
	ID          string                   `json:"id"`
	ExecutionID string                   `json:"executionID"`
	TaskID      string                   `json:"taskID"`
	AppID       string                   `json:"appID,omitempty"`
	Status      core.TaskExecutionStatus `json:"status"`
	StartTime   string                   `json:"startTime,omitempty"`
	StopTime    string                   `json:"stopTime,omitempty"`
	Duration    int64                    `json:"duration"`
	Details     []ExecutionDetail        `json:"details,omitempty"`
}

// LastMessage returns the most recent detail message, if any.
func (e ExecutionResult) LastMessage() string {
	if len(e.Details) == 0 {
		return ""
	}
	return e.Details[len(e.Details)-1].Message
}

// ExecutionResults is the /qrs/executionresult collection.
type ExecutionResults struct {
	*core.QRSResource
}

func executionFilter(executionID string) string {
	return fmt.Sprintf("ExecutionID eq %s", executionID)
}

// GetFilterWithContext returns the execution results matching a server side filter.
func (e *ExecutionResults) GetFilterWithContext(ctx context.Context, filter string) ([]ExecutionResult, error) {
	if err := requireFilter("executionresult.getFilter", filter); err != nil {
		return nil, err
	}
	results, err := listTyped[ExecutionResult](ctx, e.QRSResource, filter)
	return results, core.WrapOp("executionresult.getFilter", err)
}

func (e *ExecutionResults) GetFilter(filter string) ([]ExecutionResult, error) {
	return e.GetFilterWithContext(e.Rest.GetCtx(), filter)
}

// GetByExecutionIDWithContext returns the result of one execution. Results are written
// asynchronously, so a NotFoundError right after starting a task is expected.
func (e *ExecutionResults) GetByExecutionIDWithContext(ctx context.Context, executionID string) (*ExecutionResult, error) {
	const op = "executionresult.get"
	if err := core.ValidateID(op, executionID); err != nil {
		return nil, err
	}
	record, err := e.QRSResource.GetWithContext(ctx, core.Params{core.QueryFilter: executionFilter(executionID)})
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[ExecutionResult](record)
}

func (e *ExecutionResults) GetByExecutionID(executionID string) (*ExecutionResult, error) {
	return e.GetByExecutionIDWithContext(e.Rest.GetCtx(), executionID)
}
