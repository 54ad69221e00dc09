package rest

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/qrs-tools/go-qrs-client/core"
	"github.com/qrs-tools/go-qrs-client/resources"
)

// Bit flags representing which CRUD operations are supported
const (
	C = core.C
	L = core.L
	R = core.R
	U = core.U
	D = core.D
)

// QRSRest wires one session into every repository resource.
type QRSRest struct {
	ctx         context.Context
	Session     core.RESTSession
	resourceMap map[string]core.QRSResourceAPIWithContext // Map to store resources by resourceType

	Tags             *resources.Tags
	CustomProperties *resources.CustomProperties
	Users            *resources.Users
	Streams          *resources.Streams
	Apps             *resources.Apps
	ReloadTasks      *resources.ReloadTasks
	ExecutionResults *resources.ExecutionResults
	Table            *resources.Table
	About            *resources.About

	// Resolver turns tag names, NAME=VALUE custom properties and owner references into
	// repository references. It is shared by Users, Streams, Apps and ReloadTasks.
	Resolver *resources.CommonPropertiesResolver
}

// NewQRSRest validates config, opens the session and builds every resource.
func NewQRSRest(config *core.QRSConfig) (*QRSRest, error) {
	if err := config.Validate(
		core.WithLogger,
		core.WithHost,
		core.WithAuth,
		core.WithPort,
		core.WithUserAgent,
		core.WithFillFn,
		core.WithTimeout(time.Second*core.DefaultTimeoutSeconds),
		core.WithMaxConnections(core.DefaultMaxConnections),
		core.WithPageSize(core.DefaultPageSize),
	); err != nil {
		return nil, err
	}
	session, err := core.NewQRSSession(config)
	if err != nil {
		return nil, err
	}
	return newQRSRest(session, config.Context), nil
}

// newQRSRest builds the resources on top of an existing session.
func newQRSRest(session core.RESTSession, ctx context.Context) *QRSRest {
	rest := &QRSRest{
		Session:     session,
		resourceMap: make(map[string]core.QRSResourceAPIWithContext),
	}

	// Set context: use provided context or default to background context
	if ctx != nil {
		rest.SetCtx(ctx)
	} else {
		rest.SetCtx(context.Background())
	}

	rest.Tags = newResource[resources.Tags](rest, "tag", C, L, R, U, D)
	rest.CustomProperties = newResource[resources.CustomProperties](rest, "custompropertydefinition", C, L, R, U, D)
	rest.Users = newResource[resources.Users](rest, "user", C, L, R, U, D)
	rest.Streams = newResource[resources.Streams](rest, "stream", C, L, R, U, D)
	rest.Apps = newResource[resources.Apps](rest, "app", L, R, U, D)
	rest.ReloadTasks = newResource[resources.ReloadTasks](rest, "reloadtask", C, L, R, U, D)
	rest.ExecutionResults = newResource[resources.ExecutionResults](rest, "executionresult", L, R)
	rest.Table = newResource[resources.Table](rest, "table")
	rest.About = newResource[resources.About](rest, "about")

	rest.Resolver = resources.NewCommonPropertiesResolver(rest.Tags, rest.CustomProperties, rest.Users, rest.Streams)
	rest.Users.Resolver = rest.Resolver
	rest.Streams.Resolver = rest.Resolver
	rest.Apps.Resolver = rest.Resolver
	rest.ReloadTasks.Resolver = rest.Resolver
	rest.ReloadTasks.ExecutionResults = rest.ExecutionResults
	return rest
}

func (rest *QRSRest) GetSession() core.RESTSession {
	return rest.Session
}

func (rest *QRSRest) GetResourceMap() map[string]core.QRSResourceAPIWithContext {
	return rest.resourceMap
}

func (rest *QRSRest) GetCtx() context.Context {
	return rest.ctx
}

func (rest *QRSRest) SetCtx(ctx context.Context) {
	rest.ctx = ctx
}

var qrsResourceType = reflect.TypeOf((*core.QRSResource)(nil))

// newResource allocates T, creates its embedded *core.QRSResource and registers the base
// resource under T's type name. T must embed *core.QRSResource.
func newResource[T any](rest *QRSRest, resourcePath string, resourceOps ...core.ResourceOps) *T {
	instance := new(T)
	resourceType := reflect.TypeOf(instance).Elem().Name()

	// The typed resource is passed as parent so its interceptor hooks are discovered.
	resource := core.NewQRSResource(resourcePath, resourceType, rest, core.NewResourceOps(resourceOps...), instance)

	val := reflect.ValueOf(instance).Elem()
	found := false
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.Type() == qrsResourceType && field.CanSet() {
			field.Set(reflect.ValueOf(resource))
			found = true
			break
		}
	}
	if !found {
		panic(fmt.Sprintf("resource %s does not embed *core.QRSResource", resourceType))
	}

	rest.resourceMap[resourceType] = resource
	return instance
}

var _ core.QRSRestAPI = (*QRSRest)(nil)
