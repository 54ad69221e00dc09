package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

//  ######################################################
//              QRS RESOURCES BASE CRUD OPS
//  ######################################################

// QRSResource implements QRSResourceAPIWithContext and provides the common behavior
// of a repository entity type (tag, stream, app ...).
type QRSResource struct {
	resourcePath string
	resourceType string
	Rest         QRSRestAPI
	mu           *KeyLocker
	resourceOps  ResourceOps
	interceptor  RequestInterceptor // typed resource that embeds this QRSResource
}

// NewQRSResource creates the base resource. parent is the typed resource embedding it;
// when it implements RequestInterceptor its hooks are used for every request.
func NewQRSResource(resourcePath, resourceType string, rest QRSRestAPI, resourceOps ResourceOps, parent any) *QRSResource {
	resource := &QRSResource{
		resourcePath: strings.Trim(resourcePath, "/"),
		resourceType: resourceType,
		Rest:         rest,
		mu:           NewKeyLocker(),
		resourceOps:  resourceOps,
	}
	if interceptor, ok := parent.(RequestInterceptor); ok {
		resource.interceptor = interceptor
	}
	return resource
}

// Session returns the session shared by every resource of the client.
func (e *QRSResource) Session() RESTSession {
	return e.Rest.GetSession()
}

func (e *QRSResource) GetResourceType() string {
	return e.resourceType
}

func (e *QRSResource) GetResourcePath() string {
	return e.resourcePath
}

// Ops returns the operations the entity type supports.
func (e *QRSResource) Ops() ResourceOps {
	return e.resourceOps
}

// opName builds "<resourcePath>.<method>" used to prefix errors.
func (e *QRSResource) opName(method string) string {
	return e.resourcePath + "." + method
}

func (e *QRSResource) checkOp(flag ResourceOps, method string) error {
	if e.resourceOps.has(flag) {
		return nil
	}
	return &ValidationError{
		Op:      e.opName(method),
		Message: fmt.Sprintf("operation is not supported by %s (supported: %s)", e.resourceType, e.resourceOps),
	}
}

// ListWithContext returns all entities matching params from the "full" endpoint.
func (e *QRSResource) ListWithContext(ctx context.Context, params Params) (RecordSet, error) {
	if err := e.checkOp(L, "list"); err != nil {
		return nil, err
	}
	return Request[RecordSet](ctx, e, http.MethodGet, e.resourcePath+"/full", params, nil)
}

// GetFilterWithContext returns all entities matching a server side filter expression.
// An empty filter lists everything.
func (e *QRSResource) GetFilterWithContext(ctx context.Context, filter string) (RecordSet, error) {
	var params Params
	if filter != "" {
		params = Params{QueryFilter: filter}
	}
	return e.ListWithContext(ctx, params)
}

// GetWithContext retrieves the single entity matching params.
// Returns NotFoundError for no match and TooManyRecordsError for more than one.
func (e *QRSResource) GetWithContext(ctx context.Context, params Params) (Record, error) {
	result, err := e.ListWithContext(ctx, params)
	if err != nil {
		return nil, err
	}
	switch len(result) {
	case 0:
		return nil, &NotFoundError{
			Resource: e.resourcePath,
			Query:    params.ToQuery(),
		}
	case 1:
		if result[0].Empty() {
			return nil, &NotFoundError{
				Resource: e.resourcePath,
				Query:    params.ToQuery(),
			}
		}
		return result[0], nil
	default:
		return nil, &TooManyRecordsError{
			ResourcePath: e.resourcePath,
			Params:       params,
		}
	}
}

// GetByIdWithContext retrieves an entity by its GUID.
func (e *QRSResource) GetByIdWithContext(ctx context.Context, id string) (Record, error) {
	if err := e.checkOp(R, "get"); err != nil {
		return nil, err
	}
	if err := ValidateID(e.opName("get"), id); err != nil {
		return nil, err
	}
	record, err := Request[Record](ctx, e, http.MethodGet, BuildResourcePathWithID(e.resourcePath, id), nil, nil)
	if ExpectStatusCodes(err, http.StatusNotFound) {
		return nil, &NotFoundError{Resource: e.resourcePath, Name: id}
	}
	return record, err
}

// CreateWithContext posts body as a new entity.
func (e *QRSResource) CreateWithContext(ctx context.Context, body Params) (Record, error) {
	if err := e.checkOp(C, "create"); err != nil {
		return nil, err
	}
	return Request[Record](ctx, e, http.MethodPost, e.resourcePath, nil, body)
}

// UpdateWithContext replaces the entity with the given id by body (PUT).
// body must carry the modifiedDate expected by the repository.
func (e *QRSResource) UpdateWithContext(ctx context.Context, id string, body Params) (Record, error) {
	if err := e.checkOp(U, "update"); err != nil {
		return nil, err
	}
	if err := ValidateID(e.opName("update"), id); err != nil {
		return nil, err
	}
	return Request[Record](ctx, e, http.MethodPut, BuildResourcePathWithID(e.resourcePath, id), nil, body)
}

// DeleteByIdWithContext deletes the entity with the given id.
func (e *QRSResource) DeleteByIdWithContext(ctx context.Context, id string) (Record, error) {
	if err := e.checkOp(D, "remove"); err != nil {
		return nil, err
	}
	if err := ValidateID(e.opName("remove"), id); err != nil {
		return nil, err
	}
	return Request[Record](ctx, e, http.MethodDelete, BuildResourcePathWithID(e.resourcePath, id), nil, nil)
}

// CountWithContext returns the number of entities matching filter (all when empty).
func (e *QRSResource) CountWithContext(ctx context.Context, filter string) (int, error) {
	if err := e.checkOp(L, "count"); err != nil {
		return 0, err
	}
	var params Params
	if filter != "" {
		params = Params{QueryFilter: filter}
	}
	record, err := Request[Record](ctx, e, http.MethodGet, e.resourcePath+"/count", params, nil)
	if err != nil {
		return 0, err
	}
	value, ok := record["value"]
	if !ok {
		return 0, fmt.Errorf("count response of %s has no value field", e.resourcePath)
	}
	return toInt(value)
}

// List retrieves all entities matching params using the bound REST context.
func (e *QRSResource) List(params Params) (RecordSet, error) {
	return e.ListWithContext(e.Rest.GetCtx(), params)
}

// GetFilter retrieves all entities matching filter using the bound REST context.
func (e *QRSResource) GetFilter(filter string) (RecordSet, error) {
	return e.GetFilterWithContext(e.Rest.GetCtx(), filter)
}

// Get retrieves a single entity matching params using the bound REST context.
func (e *QRSResource) Get(params Params) (Record, error) {
	return e.GetWithContext(e.Rest.GetCtx(), params)
}

// GetById retrieves an entity by its id using the bound REST context.
func (e *QRSResource) GetById(id string) (Record, error) {
	return e.GetByIdWithContext(e.Rest.GetCtx(), id)
}

// Create creates a new entity using the bound REST context.
func (e *QRSResource) Create(body Params) (Record, error) {
	return e.CreateWithContext(e.Rest.GetCtx(), body)
}

// Update replaces an entity using the bound REST context.
func (e *QRSResource) Update(id string, body Params) (Record, error) {
	return e.UpdateWithContext(e.Rest.GetCtx(), id, body)
}

// DeleteById deletes an entity using the bound REST context.
func (e *QRSResource) DeleteById(id string) (Record, error) {
	return e.DeleteByIdWithContext(e.Rest.GetCtx(), id)
}

// Count counts entities using the bound REST context.
func (e *QRSResource) Count(filter string) (int, error) {
	return e.CountWithContext(e.Rest.GetCtx(), filter)
}

// Lock acquires the resource-level mutex for keys and returns a function to release it:
//
//	defer resource.Lock(id)()
func (e *QRSResource) Lock(keys ...any) func() {
	return e.mu.Lock(keys...)
}

func (e *QRSResource) String() string {
	return fmt.Sprintf("%s(path=/qrs/%s, ops=%s)", e.resourceType, e.resourcePath, e.resourceOps)
}

//  ######################################################
//              SUPPORTED OPERATIONS
//  ######################################################

// ResourceOps is a bitmask of the operations an entity type supports.
type ResourceOps uint8

const (
	C ResourceOps = 1 << iota // Create permission
	L                         // Read (List) permissions
	R                         // Read (<entry>/<id>) permission
	U                         // Update permission
	D                         // Delete permission
)

// NewResourceOps creates a new bitmask from the provided flags.
// Example: NewResourceOps(R, U) -> Read+Update.
func NewResourceOps(flags ...ResourceOps) ResourceOps {
	var f ResourceOps
	for _, fl := range flags {
		f |= fl
	}
	return f
}

// has reports whether all given flags are present in the bitmask.
func (ops ResourceOps) has(flag ResourceOps) bool {
	return ops&flag == flag
}

// String returns a compact representation of the active flags, e.g. "CLRUD" or "-".
func (ops ResourceOps) String() string {
	if ops == ResourceOps(0) {
		return "-"
	}
	var b strings.Builder
	for _, f := range []struct {
		flag ResourceOps
		char byte
	}{{C, 'C'}, {L, 'L'}, {R, 'R'}, {U, 'U'}, {D, 'D'}} {
		if ops&f.flag != 0 {
			b.WriteByte(f.char)
		}
	}
	return b.String()
}
