package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/qrs-tools/go-qrs-client/core"
)

const (
	defaultTaskSessionTimeout = 1440 // minutes
	taskPath                  = "task"
)

// AppRef is the reference to an app embedded in tasks.
type AppRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ReloadTask reloads the data of an app.
type ReloadTask struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	App                 *AppRef               `json:"app,omitempty"`
	TaskType            core.TaskType         `json:"taskType"`
	Enabled             bool                  `json:"enabled"`
	TaskSessionTimeout  int                   `json:"taskSessionTimeout"`
	MaxRetries          int                   `json:"maxRetries"`
	IsManuallyTriggered bool                  `json:"isManuallyTriggered"`
	Tags                []TagRef              `json:"tags"`
	CustomProperties    []CustomPropertyValue `json:"customProperties"`
	ModifiedDate        string                `json:"modifiedDate,omitempty"`
}

// ReloadTaskCreate describes a new reload task for an existing app.
type ReloadTaskCreate struct {
	AppID            string
	Name             string
	Disabled         bool
	SessionTimeout   int // minutes, defaults to 1440
	MaxRetries       int
	Tags             []string
	CustomProperties []string
}

// ReloadTaskUpdate holds the attributes to change. Nil/empty fields are left untouched.
type ReloadTaskUpdate struct {
	Name             string
	Enabled          *bool
	SessionTimeout   int
	MaxRetries       *int
	Tags             []string
	CustomProperties []string
}

// ExecutionFailedError reports a task execution that ended in a non successful state.
type ExecutionFailedError struct {
	ExecutionID string
	Status      core.TaskExecutionStatus
	Message     string
}

func (e *ExecutionFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("execution %s finished with status %s", e.ExecutionID, e.Status)
	}
	return fmt.Sprintf("execution %s finished with status %s: %s", e.ExecutionID, e.Status, e.Message)
}

// ReloadTasks is the /qrs/reloadtask collection.
type ReloadTasks struct {
	*core.QRSResource
	Resolver         *CommonPropertiesResolver
	ExecutionResults *ExecutionResults
}

func (t *ReloadTasks) GetWithContext(ctx context.Context, id string) (*ReloadTask, error) {
	task, err := getTyped[ReloadTask](ctx, t.QRSResource, id)
	return task, core.WrapOp("reloadtask.get", err)
}

func (t *ReloadTasks) Get(id string) (*ReloadTask, error) {
	return t.GetWithContext(t.Rest.GetCtx(), id)
}

func (t *ReloadTasks) GetAllWithContext(ctx context.Context) ([]ReloadTask, error) {
	tasks, err := listTyped[ReloadTask](ctx, t.QRSResource, "")
	return tasks, core.WrapOp("reloadtask.getAll", err)
}

func (t *ReloadTasks) GetAll() ([]ReloadTask, error) {
	return t.GetAllWithContext(t.Rest.GetCtx())
}

// GetFilterWithContext returns the reload tasks matching a server side filter.
func (t *ReloadTasks) GetFilterWithContext(ctx context.Context, filter string) ([]ReloadTask, error) {
	if err := requireFilter("reloadtask.getFilter", filter); err != nil {
		return nil, err
	}
	tasks, err := listTyped[ReloadTask](ctx, t.QRSResource, filter)
	return tasks, core.WrapOp("reloadtask.getFilter", err)
}

func (t *ReloadTasks) GetFilter(filter string) ([]ReloadTask, error) {
	return t.GetFilterWithContext(t.Rest.GetCtx(), filter)
}

// CreateWithContext creates an enabled reload task for the app, without triggers.
func (t *ReloadTasks) CreateWithContext(ctx context.Context, req ReloadTaskCreate) (*ReloadTask, error) {
	const op = "reloadtask.create"
	if err := core.ValidateID(op, req.AppID); err != nil {
		return nil, err
	}
	if err := requireName(op, "task", req.Name); err != nil {
		return nil, err
	}
	common, err := t.Resolver.Resolve(ctx, req.CustomProperties, req.Tags, "")
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	timeout := req.SessionTimeout
	if timeout <= 0 {
		timeout = defaultTaskSessionTimeout
	}
	body := core.Params{
		"task": core.Params{
			"name":               req.Name,
			"app":                AppRef{ID: req.AppID},
			"taskType":           int(core.TaskTypeReload),
			"enabled":            !req.Disabled,
			"taskSessionTimeout": timeout,
			"maxRetries":         req.MaxRetries,
			"tags":               common.Tags,
			"customProperties":   common.CustomProperties,
		},
		"compositeEvents": []any{},
		"schemaEvents":    []any{},
	}
	record, err := post(ctx, t.QRSResource, t.GetResourcePath()+"/create", nil, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[ReloadTask](record)
}

func (t *ReloadTasks) Create(req ReloadTaskCreate) (*ReloadTask, error) {
	return t.CreateWithContext(t.Rest.GetCtx(), req)
}

// UpdateWithContext merges the requested changes into the task and sends the result.
func (t *ReloadTasks) UpdateWithContext(ctx context.Context, id string, req ReloadTaskUpdate, opts UpdateOptions) (*ReloadTask, error) {
	const op = "reloadtask.update"
	defer t.Lock(id)()
	body, err := fetchForUpdate(ctx, t.QRSResource, id)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	current, err := commonPropertiesOf(body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	merged, err := t.Resolver.Merge(ctx, current, CommonPropertiesChanges{
		CustomProperties: req.CustomProperties,
		Tags:             req.Tags,
	}, opts)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	merged.apply(body)
	if req.Name != "" {
		body["name"] = req.Name
	}
	if req.Enabled != nil {
		body["enabled"] = *req.Enabled
	}
	if req.SessionTimeout > 0 {
		body["taskSessionTimeout"] = req.SessionTimeout
	}
	if req.MaxRetries != nil {
		body["maxRetries"] = *req.MaxRetries
	}
	record, err := t.QRSResource.UpdateWithContext(ctx, id, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[ReloadTask](record)
}

func (t *ReloadTasks) Update(id string, req ReloadTaskUpdate, opts UpdateOptions) (*ReloadTask, error) {
	return t.UpdateWithContext(t.Rest.GetCtx(), id, req, opts)
}

func (t *ReloadTasks) RemoveWithContext(ctx context.Context, id string) error {
	return core.WrapOp("reloadtask.remove", removeById(ctx, t.QRSResource, id))
}

func (t *ReloadTasks) Remove(id string) error {
	return t.RemoveWithContext(t.Rest.GetCtx(), id)
}

// StartWithContext triggers the task and returns without waiting for an execution id.
func (t *ReloadTasks) StartWithContext(ctx context.Context, id string) error {
	const op = "reloadtask.start"
	if err := core.ValidateID(op, id); err != nil {
		return err
	}
	_, err := post(ctx, t.QRSResource, core.BuildResourcePathWithID(taskPath, id, "start"), nil, nil)
	return core.WrapOp(op, err)
}

func (t *ReloadTasks) Start(id string) error {
	return t.StartWithContext(t.Rest.GetCtx(), id)
}

// StartSynchronousWithContext triggers the task and returns a handle on the execution.
func (t *ReloadTasks) StartSynchronousWithContext(ctx context.Context, id string) (*ExecutionHandle, error) {
	const op = "reloadtask.startSynchronous"
	if err := core.ValidateID(op, id); err != nil {
		return nil, err
	}
	record, err := post(ctx, t.QRSResource, core.BuildResourcePathWithID(taskPath, id, "start", "synchronous"), nil, nil)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	executionID, ok := record["value"].(string)
	if !ok || executionID == "" {
		return nil, fmt.Errorf("%s: response carries no execution id: %s", op, record)
	}
	return &ExecutionHandle{
		ExecutionID: executionID,
		TaskID:      id,
		results:     t.ExecutionResults,
		ctx:         ctx,
	}, nil
}

func (t *ReloadTasks) StartSynchronous(id string) (*ExecutionHandle, error) {
	return t.StartSynchronousWithContext(t.Rest.GetCtx(), id)
}

// ExecutionHandle tracks a running task execution. It implements core.Awaitable.
type ExecutionHandle struct {
	ExecutionID string
	TaskID      string
	// WaitConfig overrides the polling interval and backoff. Timeout is taken from Wait.
	WaitConfig *core.WaitAPIConditionConfig

	results *ExecutionResults
	ctx     context.Context
}

// WaitWithContext polls the execution result until it reaches a terminal status.
// A terminal status other than FinishedSuccess returns the record with an *ExecutionFailedError.
func (h *ExecutionHandle) WaitWithContext(ctx context.Context) (core.Record, error) {
	const op = "reloadtask.wait"
	if h.results == nil {
		return nil, fmt.Errorf("%s: execution results are not available", op)
	}
	config := core.WaitAPIConditionConfig{}
	if h.WaitConfig != nil {
		config = *h.WaitConfig
	}
	if deadline, ok := ctx.Deadline(); ok && config.Timeout == 0 {
		config.Timeout = time.Until(deadline)
	}
	searchParams := core.Params{core.QueryFilter: executionFilter(h.ExecutionID)}
	record, err := core.WaitAPICondition(ctx, h.results.QRSResource, searchParams, &config, func(r core.Record) (bool, error) {
		status, parseErr := core.ParseTaskExecutionStatus(r["status"])
		if parseErr != nil {
			return false, parseErr
		}
		return status.Terminal(), nil
	})
	if err != nil {
		return record, core.WrapOp(op, err)
	}
	result, err := fillOne[ExecutionResult](record)
	if err != nil {
		return record, core.WrapOp(op, err)
	}
	if !result.Status.Succeeded() {
		return record, core.WrapOp(op, &ExecutionFailedError{
			ExecutionID: h.ExecutionID,
			Status:      result.Status,
			Message:     result.LastMessage(),
		})
	}
	return record, nil
}

// Wait blocks until the execution finishes or timeout elapses.
func (h *ExecutionHandle) Wait(timeout time.Duration) (core.Record, error) {
	ctx := h.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return h.WaitWithContext(ctx)
}

// ResultWithContext waits like WaitWithContext and decodes the final execution result.
func (h *ExecutionHandle) ResultWithContext(ctx context.Context) (*ExecutionResult, error) {
	record, err := h.WaitWithContext(ctx)
	if record == nil {
		return nil, err
	}
	result, fillErr := fillOne[ExecutionResult](record)
	if fillErr != nil {
		return nil, fillErr
	}
	return result, err
}

var _ core.Awaitable = (*ExecutionHandle)(nil)
