package resources

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/qrs-tools/go-qrs-client/core"
)

// nowFunc stamps modifiedDate on every update body.
var nowFunc = time.Now

// removeConcurrency bounds bulk deletes by the configured connection limit.
func removeConcurrency(r *core.QRSResource) int {
	if config := r.Session().GetConfig(); config != nil && config.MaxConnections > 0 {
		return config.MaxConnections
	}
	return core.DefaultMaxConnections
}

func fillOne[T any](record core.Record) (*T, error) {
	var out T
	if err := record.Fill(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func fillAll[T any](records core.RecordSet) ([]T, error) {
	out := make([]T, 0, len(records))
	if err := records.Fill(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// listTyped fetches the entities matching filter (all when empty) and decodes them.
func listTyped[T any](ctx context.Context, r *core.QRSResource, filter string) ([]T, error) {
	records, err := r.GetFilterWithContext(ctx, filter)
	if err != nil {
		return nil, err
	}
	return fillAll[T](records)
}

// getTyped fetches one entity by id and decodes it.
func getTyped[T any](ctx context.Context, r *core.QRSResource, id string) (*T, error) {
	record, err := r.GetByIdWithContext(ctx, id)
	if err != nil {
		return nil, err
	}
	return fillOne[T](record)
}

func requireFilter(op, filter string) error {
	if strings.TrimSpace(filter) == "" {
		return &core.ValidationError{Op: op, Message: "filter is required"}
	}
	return nil
}

func requireName(op, kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return &core.ValidationError{Op: op, Message: kind + " name is required"}
	}
	return nil
}

// fetchForUpdate reads the current entity as a request body for a read-modify-write update.
func fetchForUpdate(ctx context.Context, r *core.QRSResource, id string) (core.Params, error) {
	record, err := r.GetByIdWithContext(ctx, id)
	if err != nil {
		return nil, err
	}
	body := make(core.Params, len(record))
	for key, value := range record {
		if key == core.ResourceTypeKey {
			continue
		}
		body[key] = value
	}
	return body, nil
}

// commonPropertiesOf extracts the tags, custom properties and owner of an entity body.
func commonPropertiesOf(body core.Params) (CommonProperties, error) {
	var current CommonProperties
	if err := core.Record(body).Fill(&current); err != nil {
		return CommonProperties{}, err
	}
	return current, nil
}

// removeById deletes an entity and discards the empty response.
func removeById(ctx context.Context, r *core.QRSResource, id string) error {
	_, err := r.DeleteByIdWithContext(ctx, id)
	return err
}

// post sends body to a sub path of the repository on behalf of r.
func post(ctx context.Context, r *core.QRSResource, path string, params, body core.Params) (core.Record, error) {
	return core.Request[core.Record](ctx, r, http.MethodPost, path, params, body)
}

func put(ctx context.Context, r *core.QRSResource, path string, params, body core.Params) (core.Record, error) {
	return core.Request[core.Record](ctx, r, http.MethodPut, path, params, body)
}
