package core

// HTTP-related constants for REST operations

// HTTP Header Names
const (
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderUserAgent     = "User-Agent"
	HeaderXrfKey        = "X-Qlik-Xrfkey"
	HeaderQlikUser      = "X-Qlik-User"
)

// HTTP Content Types
const (
	ContentTypeJSON = "application/json"
)

// HTTP Authentication Types
const (
	AuthTypeBearer = "Bearer"
)

// Query parameter names understood by every QRS endpoint.
const (
	QueryXrfKey = "xrfkey"
	QueryFilter = "filter"
)

const (
	// DefaultCertificatePort is the repository service port used with certificate authentication.
	DefaultCertificatePort uint64 = 4242
	// DefaultProxyPort is the proxy port used with header and JWT authentication.
	DefaultProxyPort uint64 = 443
)

// Defaults applied by the rest client validators.
const (
	DefaultPageSize       = 500
	DefaultTimeoutSeconds = 30
	DefaultMaxConnections = 10
)
