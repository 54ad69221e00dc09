package core

import (
	"context"
	"io"
	"net/http"
	"time"
)

// QRSResourceAPI defines the standard CRUD operations on a repository entity type.
type QRSResourceAPI interface {
	Session() RESTSession
	GetResourceType() string
	GetResourcePath() string

	List(Params) (RecordSet, error)
	GetFilter(string) (RecordSet, error)
	Get(Params) (Record, error)
	GetById(string) (Record, error)
	Create(Params) (Record, error)
	Update(string, Params) (Record, error)
	DeleteById(string) (Record, error)
	Count(string) (int, error)
	// Resource-level mutex lock for concurrent access control
	Lock(...any) func()
}

type QRSResourceAPIWithContext interface {
	QRSResourceAPI
	ListWithContext(context.Context, Params) (RecordSet, error)
	GetFilterWithContext(context.Context, string) (RecordSet, error)
	GetWithContext(context.Context, Params) (Record, error)
	GetByIdWithContext(context.Context, string) (Record, error)
	CreateWithContext(context.Context, Params) (Record, error)
	UpdateWithContext(context.Context, string, Params) (Record, error)
	DeleteByIdWithContext(context.Context, string) (Record, error)
	CountWithContext(context.Context, string) (int, error)
}

type Awaitable interface {
	WaitWithContext(context.Context) (Record, error)
	Wait(time.Duration) (Record, error)
}

// RequestInterceptor lets a resource inspect or mutate traffic. Typed resources
// shadow BeforeRequest/AfterRequest of the embedded QRSResource to customize them.
type RequestInterceptor interface {
	// BeforeRequest is invoked prior to sending the API request.
	// url is the full request URL without the xrfkey parameter.
	BeforeRequest(ctx context.Context, r *http.Request, verb, url string, body io.Reader) error

	// AfterRequest is invoked after the API response is received and may
	// return a modified Renderable.
	AfterRequest(ctx context.Context, response Renderable) (Renderable, error)
}

// QRSRestAPI is the aggregate every resource is attached to.
type QRSRestAPI interface {
	GetSession() RESTSession
	GetResourceMap() map[string]QRSResourceAPIWithContext
	GetCtx() context.Context
	SetCtx(context.Context)
}
