package resources

import (
	"context"

	"github.com/qrs-tools/go-qrs-client/core"
)

// App is a repository app.
type App struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Description      string                `json:"description,omitempty"`
	Published        bool                  `json:"published"`
	PublishTime      string                `json:"publishTime,omitempty"`
	Stream           *StreamRef            `json:"stream,omitempty"`
	Owner            *OwnerRef             `json:"owner,omitempty"`
	Tags             []TagRef              `json:"tags"`
	CustomProperties []CustomPropertyValue `json:"customProperties"`
	FileSize         int64                 `json:"fileSize,omitempty"`
	LastReloadTime   string                `json:"lastReloadTime,omitempty"`
	ModifiedDate     string                `json:"modifiedDate,omitempty"`
}

// AppUpdate holds the attributes to change. Stream is a stream name: an unpublished app is
// published to it, a published one is moved.
type AppUpdate struct {
	Name             string
	Description      *string
	Stream           string
	Tags             []string
	CustomProperties []string
	Owner            string
}

// Apps is the /qrs/app collection.
type Apps struct {
	*core.QRSResource
	Resolver *CommonPropertiesResolver
}

func (a *Apps) GetWithContext(ctx context.Context, id string) (*App, error) {
	app, err := getTyped[App](ctx, a.QRSResource, id)
	return app, core.WrapOp("app.get", err)
}

func (a *Apps) Get(id string) (*App, error) {
	return a.GetWithContext(a.Rest.GetCtx(), id)
}

func (a *Apps) GetAllWithContext(ctx context.Context) ([]App, error) {
	apps, err := listTyped[App](ctx, a.QRSResource, "")
	return apps, core.WrapOp("app.getAll", err)
}

func (a *Apps) GetAll() ([]App, error) {
	return a.GetAllWithContext(a.Rest.GetCtx())
}

// GetFilterWithContext returns the apps matching a server side filter such as "stream.name eq 'Everyone'".
func (a *Apps) GetFilterWithContext(ctx context.Context, filter string) ([]App, error) {
	if err := requireFilter("app.getFilter", filter); err != nil {
		return nil, err
	}
	apps, err := listTyped[App](ctx, a.QRSResource, filter)
	return apps, core.WrapOp("app.getFilter", err)
}

func (a *Apps) GetFilter(filter string) ([]App, error) {
	return a.GetFilterWithContext(a.Rest.GetCtx(), filter)
}

// CopyWithContext duplicates the app. An empty name keeps the server default ("<name> - Copy").
func (a *Apps) CopyWithContext(ctx context.Context, id, name string) (*App, error) {
	const op = "app.copy"
	if err := core.ValidateID(op, id); err != nil {
		return nil, err
	}
	var params core.Params
	if name != "" {
		params = core.Params{"name": name}
	}
	record, err := post(ctx, a.QRSResource, core.BuildResourcePathWithID(a.GetResourcePath(), id, "copy"), params, nil)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[App](record)
}

func (a *Apps) Copy(id, name string) (*App, error) {
	return a.CopyWithContext(a.Rest.GetCtx(), id, name)
}

// PublishWithContext publishes the app to the stream with the given name. name optionally
// renames the published app.
func (a *Apps) PublishWithContext(ctx context.Context, id, streamName, name string) (*App, error) {
	const op = "app.publish"
	if err := core.ValidateID(op, id); err != nil {
		return nil, err
	}
	if err := requireName(op, "stream", streamName); err != nil {
		return nil, err
	}
	stream, err := a.Resolver.ResolveStream(ctx, streamName)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	app, err := a.publish(ctx, id, stream.ID, name)
	return app, core.WrapOp(op, err)
}

func (a *Apps) Publish(id, streamName, name string) (*App, error) {
	return a.PublishWithContext(a.Rest.GetCtx(), id, streamName, name)
}

func (a *Apps) publish(ctx context.Context, id, streamID, name string) (*App, error) {
	params := core.Params{"stream": streamID}
	if name != "" {
		params["name"] = name
	}
	record, err := put(ctx, a.QRSResource, core.BuildResourcePathWithID(a.GetResourcePath(), id, "publish"), params, nil)
	if err != nil {
		return nil, err
	}
	return fillOne[App](record)
}

// UpdateWithContext merges the requested changes into the app and sends the result.
func (a *Apps) UpdateWithContext(ctx context.Context, id string, req AppUpdate, opts UpdateOptions) (*App, error) {
	const op = "app.update"
	defer a.Lock(id)()
	body, err := fetchForUpdate(ctx, a.QRSResource, id)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	current, err := commonPropertiesOf(body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	merged, err := a.Resolver.Merge(ctx, current, CommonPropertiesChanges{
		CustomProperties: req.CustomProperties,
		Tags:             req.Tags,
		Owner:            req.Owner,
		Stream:           req.Stream,
	}, opts)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}

	published, _ := body["published"].(bool)
	target := merged.Stream
	if !published {
		// an unpublished app gets its stream through publish, not through the entity body
		merged.Stream = nil
	}
	merged.apply(body)
	if req.Name != "" {
		body["name"] = req.Name
	}
	if req.Description != nil {
		body["description"] = *req.Description
	}
	// a failed publish leaves the app untouched
	if !published && target != nil {
		app, err := a.publish(ctx, id, target.ID, "")
		if err != nil {
			return nil, core.WrapOp(op, err)
		}
		body["published"] = true
		body["stream"] = app.Stream
		if app.PublishTime != "" {
			body["publishTime"] = app.PublishTime
		}
	}
	record, err := a.QRSResource.UpdateWithContext(ctx, id, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[App](record)
}

func (a *Apps) Update(id string, req AppUpdate, opts UpdateOptions) (*App, error) {
	return a.UpdateWithContext(a.Rest.GetCtx(), id, req, opts)
}

func (a *Apps) RemoveWithContext(ctx context.Context, id string) error {
	return core.WrapOp("app.remove", removeById(ctx, a.QRSResource, id))
}

func (a *Apps) Remove(id string) error {
	return a.RemoveWithContext(a.Rest.GetCtx(), id)
}
