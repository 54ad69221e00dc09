package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AuthMode selects how the session authenticates against the repository.
type AuthMode string

const (
	AuthCertificate AuthMode = "certificate" // client certificate + X-Qlik-User header on port 4242
	AuthHeader      AuthMode = "header"      // header authentication through a virtual proxy
	AuthJWT         AuthMode = "jwt"         // bearer token through a virtual proxy
)

// QRSConfig represents the configuration required to create a QRS session.
type QRSConfig struct {
	Host           string         // The hostname or IP address of the Qlik Sense server.
	Port           uint64         // The port to connect to. Defaults depend on AuthMode.
	VirtualProxy   string         // Optional virtual proxy prefix (header and JWT authentication).
	AuthMode       AuthMode       // Authentication mode. Inferred from the provided credentials when empty.
	CertFile       string         // Client certificate (PEM) for certificate authentication.
	KeyFile        string         // Client key (PEM) for certificate authentication.
	CAFile         string         // Optional root CA (PEM) used to verify the server.
	UserDirectory  string         // User directory sent in the X-Qlik-User header.
	UserID         string         // User id sent in the X-Qlik-User header or the custom auth header.
	HeaderName     string         // Header carrying the user id for header authentication.
	Token          string         // JWT used for bearer authentication.
	SslVerify      bool           // Whether to verify SSL certificates.
	Timeout        *time.Duration // HTTP client timeout. If nil, a default is applied by validators.
	MaxConnections int            // Maximum number of concurrent HTTP connections.
	UserAgent      string         // Optional custom User-Agent header.
	PageSize       int            // Default page size (take) for table iterators.
	LogLevel       string         // "debug", "info" or empty. Falls back to the QRS_LOG environment variable.
	LogFile        string         // Optional path; when set logs are written there with rotation.
	Logger         *zap.Logger    // Optional logger. Takes precedence over LogLevel/LogFile.
	// Context is an optional external context for controlling HTTP request lifecycle.
	// When provided, it will be used as the parent context for all HTTP requests made by the client.
	Context context.Context

	// BeforeRequestFn is an optional function hook executed before an API request is sent.
	// Any error returned will abort the request.
	BeforeRequestFn func(ctx context.Context, r *http.Request, verb, url string, body io.Reader) error

	// AfterRequestFn is an optional function hook executed after receiving an API response.
	// It may return a modified Renderable.
	AfterRequestFn func(ctx context.Context, response Renderable) (Renderable, error)

	// FillFn optionally overrides the default function used to populate structs
	// from generic Record maps.
	FillFn func(r Record, container any) error
}

// QRSConfigFunc defines a function that can modify or validate a QRSConfig.
type QRSConfigFunc func(*QRSConfig) error

// Validate applies the given QRSConfigFunc validators to the config.
// Returns the first validation error.
func (config *QRSConfig) Validate(validators ...QRSConfigFunc) error {
	for _, fn := range validators {
		if err := fn(config); err != nil {
			return err
		}
	}
	return nil
}

// WithTimeout returns a QRSConfigFunc that sets a default timeout if none is provided.
func WithTimeout(timeout time.Duration) QRSConfigFunc {
	return func(config *QRSConfig) error {
		if config.Timeout == nil {
			config.Timeout = &timeout
		}
		return nil
	}
}

// WithMaxConnections returns a QRSConfigFunc that sets the maximum number of connections
// if not explicitly provided.
func WithMaxConnections(maxConnections int) QRSConfigFunc {
	return func(config *QRSConfig) error {
		if config.MaxConnections == 0 {
			config.MaxConnections = maxConnections
		}
		return nil
	}
}

// WithPageSize sets the default table page size.
func WithPageSize(pageSize int) QRSConfigFunc {
	return func(config *QRSConfig) error {
		if config.PageSize <= 0 {
			config.PageSize = pageSize
		}
		return nil
	}
}

// WithHost validates that the Host field is not empty.
func WithHost(config *QRSConfig) error {
	config.Host = strings.TrimSpace(config.Host)
	if config.Host == "" {
		return &ValidationError{Op: "config", Message: "host cannot be empty string"}
	}
	return nil
}

// WithAuth infers AuthMode when empty and checks that the credentials for the
// selected mode are present.
func WithAuth(config *QRSConfig) error {
	if config.AuthMode == "" {
		switch {
		case config.Token != "":
			config.AuthMode = AuthJWT
		case config.HeaderName != "":
			config.AuthMode = AuthHeader
		case config.CertFile != "" || config.KeyFile != "":
			config.AuthMode = AuthCertificate
		default:
			return errors.New("either certificate, header or jwt credentials must be provided")
		}
	}
	switch config.AuthMode {
	case AuthCertificate:
		if config.CertFile == "" || config.KeyFile == "" {
			return &ValidationError{Op: "config", Message: "certificate authentication requires CertFile and KeyFile"}
		}
		if config.UserDirectory == "" || config.UserID == "" {
			return &ValidationError{Op: "config", Message: "certificate authentication requires UserDirectory and UserID"}
		}
	case AuthHeader:
		if config.HeaderName == "" || config.UserID == "" {
			return &ValidationError{Op: "config", Message: "header authentication requires HeaderName and UserID"}
		}
	case AuthJWT:
		if config.Token == "" {
			return &ValidationError{Op: "config", Message: "jwt authentication requires Token"}
		}
	default:
		return &ValidationError{Op: "config", Message: fmt.Sprintf("unknown auth mode %q", config.AuthMode)}
	}
	return nil
}

// WithPort sets the default port for the selected AuthMode if none is provided.
// Must run after WithAuth.
func WithPort(config *QRSConfig) error {
	if config.Port != 0 {
		return nil
	}
	if config.AuthMode == AuthCertificate {
		config.Port = DefaultCertificatePort
	} else {
		config.Port = DefaultProxyPort
	}
	return nil
}

// WithUserAgent sets a default User-Agent header if none is provided in the config.
func WithUserAgent(config *QRSConfig) error {
	if config.UserAgent == "" {
		config.UserAgent = fmt.Sprintf(
			"%s,os:%s,arch:%s",
			fmt.Sprintf("go-qrs-client-%s", ClientVersion()),
			runtime.GOOS,
			runtime.GOARCH,
		)
	}
	return nil
}

// WithFillFn installs a custom FillFn into the global fillFunc used by Record.Fill.
func WithFillFn(config *QRSConfig) error {
	if config.FillFn != nil {
		fillFunc = config.FillFn
	}
	return nil
}

// WithLogger builds the package logger from Logger, LogLevel/LogFile or QRS_LOG.
func WithLogger(config *QRSConfig) error {
	if config.Logger != nil {
		SetLogger(config.Logger)
		return nil
	}
	logger, err := NewLogger(config.LogLevel, config.LogFile)
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}
