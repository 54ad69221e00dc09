package resources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	version "github.com/hashicorp/go-version"

	"github.com/qrs-tools/go-qrs-client/core"
	"github.com/qrs-tools/go-qrs-client/openapi_schema"
)

const openAPIPath = "about/openapi/main"

// AboutInfo describes the repository service.
type AboutInfo struct {
	BuildVersion      string `json:"buildVersion"`
	BuildDate         string `json:"buildDate"`
	DatabaseProvider  string `json:"databaseProvider"`
	NodeType          int    `json:"nodeType"`
	SharedPersistence bool   `json:"sharedPersistence"`
	RequiresBootstrap bool   `json:"requiresBootstrap"`
	SingleNodeOnly    bool   `json:"singleNodeOnly"`
	SchemaPath        string `json:"schemaPath"`
}

// About is the /qrs/about endpoint.
type About struct {
	*core.QRSResource
}

func (a *About) GetWithContext(ctx context.Context) (*AboutInfo, error) {
	record, err := core.Request[core.Record](ctx, a.QRSResource, http.MethodGet, a.GetResourcePath(), nil, nil)
	if err != nil {
		return nil, core.WrapOp("about.get", err)
	}
	return fillOne[AboutInfo](record)
}

func (a *About) Get() (*AboutInfo, error) {
	return a.GetWithContext(a.Rest.GetCtx())
}

// VersionWithContext returns the core (x.y.z) version of the repository build.
func (a *About) VersionWithContext(ctx context.Context) (*version.Version, error) {
	info, err := a.GetWithContext(ctx)
	if err != nil {
		return nil, err
	}
	v, err := version.NewVersion(sanitizeVersion(info.BuildVersion))
	if err != nil {
		return nil, fmt.Errorf("about.version: cannot parse build version %q: %w", info.BuildVersion, err)
	}
	return v.Core(), nil
}

func (a *About) Version() (*version.Version, error) {
	return a.VersionWithContext(a.Rest.GetCtx())
}

// CompareWithWithContext compares the repository version with other: -1, 0 or 1.
func (a *About) CompareWithWithContext(ctx context.Context, other *version.Version) (int, error) {
	v, err := a.VersionWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return v.Compare(other), nil
}

func (a *About) CompareWith(other *version.Version) (int, error) {
	return a.CompareWithWithContext(a.Rest.GetCtx(), other)
}

// OpenAPIWithContext downloads and parses the API description served by the repository.
func (a *About) OpenAPIWithContext(ctx context.Context) (*openapi_schema.Schema, error) {
	const op = "about.openapi"
	data, err := a.Session().GetRaw(ctx, openAPIPath)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	schema, err := openapi_schema.Load(data)
	return schema, core.WrapOp(op, err)
}

func (a *About) OpenAPI() (*openapi_schema.Schema, error) {
	return a.OpenAPIWithContext(a.Rest.GetCtx())
}

// sanitizeVersion keeps the first three numeric segments of a build version such as
// "30.20.4.0" and drops build metadata. Pre-release identifiers are kept.
func sanitizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.Index(v, "+"); i != -1 {
		v = v[:i]
	}
	main, prerelease := v, ""
	if i := strings.Index(v, "-"); i != -1 {
		main, prerelease = v[:i], v[i:]
	}
	segments := strings.Split(main, ".")
	if len(segments) > 3 {
		segments = segments[:3]
	}
	return strings.Join(segments, ".") + prerelease
}
