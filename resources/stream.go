package resources

import (
	"context"

	"github.com/qrs-tools/go-qrs-client/core"
)

// Stream is a publication target for apps.
type Stream struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Owner            *OwnerRef             `json:"owner,omitempty"`
	Tags             []TagRef              `json:"tags"`
	CustomProperties []CustomPropertyValue `json:"customProperties"`
	CreatedDate      string                `json:"createdDate,omitempty"`
	ModifiedDate     string                `json:"modifiedDate,omitempty"`
}

func (s Stream) Ref() StreamRef {
	return StreamRef{ID: s.ID, Name: s.Name}
}

// StreamCreate describes a new stream. Owner is "USER_DIRECTORY\USER_ID".
type StreamCreate struct {
	Name             string
	Tags             []string
	CustomProperties []string
	Owner            string
}

// StreamUpdate holds the attributes to change. Nil/empty fields are left untouched
// except for Tags and CustomProperties, where an empty non-nil slice clears the list.
type StreamUpdate struct {
	Name             string
	Tags             []string
	CustomProperties []string
	Owner            string
}

// Streams is the /qrs/stream collection.
type Streams struct {
	*core.QRSResource
	Resolver *CommonPropertiesResolver
}

func (s *Streams) GetWithContext(ctx context.Context, id string) (*Stream, error) {
	stream, err := getTyped[Stream](ctx, s.QRSResource, id)
	return stream, core.WrapOp("stream.get", err)
}

func (s *Streams) Get(id string) (*Stream, error) {
	return s.GetWithContext(s.Rest.GetCtx(), id)
}

func (s *Streams) GetAllWithContext(ctx context.Context) ([]Stream, error) {
	streams, err := listTyped[Stream](ctx, s.QRSResource, "")
	return streams, core.WrapOp("stream.getAll", err)
}

func (s *Streams) GetAll() ([]Stream, error) {
	return s.GetAllWithContext(s.Rest.GetCtx())
}

// GetFilterWithContext returns the streams matching a server side filter.
func (s *Streams) GetFilterWithContext(ctx context.Context, filter string) ([]Stream, error) {
	if err := requireFilter("stream.getFilter", filter); err != nil {
		return nil, err
	}
	streams, err := listTyped[Stream](ctx, s.QRSResource, filter)
	return streams, core.WrapOp("stream.getFilter", err)
}

func (s *Streams) GetFilter(filter string) ([]Stream, error) {
	return s.GetFilterWithContext(s.Rest.GetCtx(), filter)
}

// CreateWithContext creates a stream after resolving its tags, custom properties and owner.
func (s *Streams) CreateWithContext(ctx context.Context, req StreamCreate) (*Stream, error) {
	const op = "stream.create"
	if err := requireName(op, "stream", req.Name); err != nil {
		return nil, err
	}
	common, err := s.Resolver.Resolve(ctx, req.CustomProperties, req.Tags, req.Owner)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	body := core.Params{
		"name":             req.Name,
		"tags":             common.Tags,
		"customProperties": common.CustomProperties,
	}
	if common.Owner != nil {
		body["owner"] = common.Owner
	}
	record, err := s.QRSResource.CreateWithContext(ctx, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[Stream](record)
}

func (s *Streams) Create(req StreamCreate) (*Stream, error) {
	return s.CreateWithContext(s.Rest.GetCtx(), req)
}

// UpdateWithContext merges the requested changes into the stream and sends the result.
func (s *Streams) UpdateWithContext(ctx context.Context, id string, req StreamUpdate, opts UpdateOptions) (*Stream, error) {
	const op = "stream.update"
	defer s.Lock(id)()
	body, err := fetchForUpdate(ctx, s.QRSResource, id)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	current, err := commonPropertiesOf(body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	merged, err := s.Resolver.Merge(ctx, current, CommonPropertiesChanges{
		CustomProperties: req.CustomProperties,
		Tags:             req.Tags,
		Owner:            req.Owner,
	}, opts)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	merged.apply(body)
	if req.Name != "" {
		body["name"] = req.Name
	}
	record, err := s.QRSResource.UpdateWithContext(ctx, id, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[Stream](record)
}

func (s *Streams) Update(id string, req StreamUpdate, opts UpdateOptions) (*Stream, error) {
	return s.UpdateWithContext(s.Rest.GetCtx(), id, req, opts)
}

func (s *Streams) RemoveWithContext(ctx context.Context, id string) error {
	return core.WrapOp("stream.remove", removeById(ctx, s.QRSResource, id))
}

func (s *Streams) Remove(id string) error {
	return s.RemoveWithContext(s.Rest.GetCtx(), id)
}
