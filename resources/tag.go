package resources

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/qrs-tools/go-qrs-client/core"
)

// Tag is a repository tag.
type Tag struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	CreatedDate        string `json:"createdDate,omitempty"`
	ModifiedDate       string `json:"modifiedDate,omitempty"`
	ModifiedByUserName string `json:"modifiedByUserName,omitempty"`
}

func (t Tag) Ref() TagRef {
	return TagRef{ID: t.ID, Name: t.Name}
}

// Tags is the /qrs/tag collection.
type Tags struct {
	*core.QRSResource
}

// GetWithContext returns the tag with the given id.
func (t *Tags) GetWithContext(ctx context.Context, id string) (*Tag, error) {
	tag, err := getTyped[Tag](ctx, t.QRSResource, id)
	return tag, core.WrapOp("tag.get", err)
}

func (t *Tags) Get(id string) (*Tag, error) {
	return t.GetWithContext(t.Rest.GetCtx(), id)
}

// GetAllWithContext returns every tag.
func (t *Tags) GetAllWithContext(ctx context.Context) ([]Tag, error) {
	tags, err := listTyped[Tag](ctx, t.QRSResource, "")
	return tags, core.WrapOp("tag.getAll", err)
}

func (t *Tags) GetAll() ([]Tag, error) {
	return t.GetAllWithContext(t.Rest.GetCtx())
}

// GetFilterWithContext returns the tags matching a server side filter such as "name eq 'Finance'".
func (t *Tags) GetFilterWithContext(ctx context.Context, filter string) ([]Tag, error) {
	if err := requireFilter("tag.getFilter", filter); err != nil {
		return nil, err
	}
	tags, err := listTyped[Tag](ctx, t.QRSResource, filter)
	return tags, core.WrapOp("tag.getFilter", err)
}

func (t *Tags) GetFilter(filter string) ([]Tag, error) {
	return t.GetFilterWithContext(t.Rest.GetCtx(), filter)
}

// CreateWithContext creates a tag.
func (t *Tags) CreateWithContext(ctx context.Context, name string) (*Tag, error) {
	if err := requireName("tag.create", "tag", name); err != nil {
		return nil, err
	}
	record, err := t.QRSResource.CreateWithContext(ctx, core.Params{"name": name})
	if err != nil {
		return nil, core.WrapOp("tag.create", err)
	}
	return fillOne[Tag](record)
}

func (t *Tags) Create(name string) (*Tag, error) {
	return t.CreateWithContext(t.Rest.GetCtx(), name)
}

// UpdateWithContext renames a tag.
func (t *Tags) UpdateWithContext(ctx context.Context, id, name string) (*Tag, error) {
	if err := requireName("tag.update", "tag", name); err != nil {
		return nil, err
	}
	defer t.Lock(id)()
	body, err := fetchForUpdate(ctx, t.QRSResource, id)
	if err != nil {
		return nil, core.WrapOp("tag.update", err)
	}
	body["name"] = name
	body["modifiedDate"] = formatModifiedDate(nowFunc())
	record, err := t.QRSResource.UpdateWithContext(ctx, id, body)
	if err != nil {
		return nil, core.WrapOp("tag.update", err)
	}
	return fillOne[Tag](record)
}

func (t *Tags) Update(id, name string) (*Tag, error) {
	return t.UpdateWithContext(t.Rest.GetCtx(), id, name)
}

// RemoveWithContext deletes the tag with the given id.
func (t *Tags) RemoveWithContext(ctx context.Context, id string) error {
	return core.WrapOp("tag.remove", removeById(ctx, t.QRSResource, id))
}

func (t *Tags) Remove(id string) error {
	return t.RemoveWithContext(t.Rest.GetCtx(), id)
}

// RemoveFilterWithContext deletes every tag matching filter and returns the removed ids.
func (t *Tags) RemoveFilterWithContext(ctx context.Context, filter string) ([]string, error) {
	tags, err := t.GetFilterWithContext(ctx, filter)
	if err != nil {
		return nil, core.WrapOp("tag.removeFilter", err)
	}
	ids := make([]string, len(tags))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(removeConcurrency(t.QRSResource))
	for i, tag := range tags {
		ids[i] = tag.ID
		g.Go(func() error {
			return removeById(gctx, t.QRSResource, tag.ID)
		})
	}
	if err = g.Wait(); err != nil {
		return nil, core.WrapOp("tag.removeFilter", err)
	}
	return ids, nil
}

func (t *Tags) RemoveFilter(filter string) ([]string, error) {
	return t.RemoveFilterWithContext(t.Rest.GetCtx(), filter)
}
