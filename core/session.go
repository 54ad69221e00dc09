package core

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type contextKey string

const caller contextKey = "@caller" // QRSResource caller object key

type RESTSession interface {
	Get(context.Context, string, Params, []http.Header) (Renderable, error)
	Post(context.Context, string, Params, []http.Header) (Renderable, error)
	Put(context.Context, string, Params, []http.Header) (Renderable, error)
	Delete(context.Context, string, Params, []http.Header) (Renderable, error)
	GetRaw(context.Context, string) ([]byte, error)
	GetConfig() *QRSConfig
	GetAuthenticator() Authenticator
}

// ApiError represents an error returned from an API request.
type ApiError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *ApiError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("response body: %s", e.Body)
	}
	return fmt.Sprintf(
		"%s request to %s returned status code %d, response body: %s",
		e.Method, e.URL, e.StatusCode, e.Body,
	)
}

func IsApiError(err error) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr)
}

// IgnoreStatusCodes returns nil when err is an ApiError with one of the given status codes.
func IgnoreStatusCodes(err error, codes ...int) error {
	if ExpectStatusCodes(err, codes...) {
		return nil
	}
	return err
}

// ExpectStatusCodes reports whether err is an ApiError with one of the given status codes.
func ExpectStatusCodes(err error, codes ...int) bool {
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}

type QRSSession struct {
	config *QRSConfig
	client *http.Client
	auth   Authenticator
}

type QRSSessionMethod func(context.Context, string, Params, []http.Header) (Renderable, error)

// NewQRSSession builds the HTTP client for config. The config must already be validated.
func NewQRSSession(config *QRSConfig) (*QRSSession, error) {
	authenticator, err := createAuthenticator(config)
	if err != nil {
		return nil, err
	}
	tlsConfig := &tls.Config{InsecureSkipVerify: !config.SslVerify}
	if err = authenticator.configureTLS(tlsConfig); err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	transport.MaxConnsPerHost = config.MaxConnections
	client := &http.Client{Transport: transport}
	if config.Timeout != nil {
		transport.IdleConnTimeout = *config.Timeout
		client.Timeout = *config.Timeout
	}
	return &QRSSession{
		config: config,
		client: client,
		auth:   authenticator,
	}, nil
}

// Request sends verb to path (relative to the qrs root) on behalf of resource r and
// converts the response to T. A single Record is promoted to a one-element RecordSet
// when T is RecordSet.
func Request[T RecordUnion](
	ctx context.Context,
	r QRSResourceAPIWithContext,
	verb, path string,
	params, body Params,
) (T, error) {
	return RequestWithHeaders[T](ctx, r, verb, path, params, body, nil)
}

func RequestWithHeaders[T RecordUnion](
	ctx context.Context,
	r QRSResourceAPIWithContext,
	verb, path string,
	params, body Params,
	headers []http.Header,
) (T, error) {
	var (
		qrsMethod QRSSessionMethod
		query     string
		err       error
	)
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, caller, r)
	verb = strings.ToUpper(verb)
	session := r.Session()

	switch verb {
	case http.MethodGet:
		qrsMethod = session.Get
	case http.MethodPost:
		qrsMethod = session.Post
	case http.MethodPut:
		qrsMethod = session.Put
	case http.MethodDelete:
		qrsMethod = session.Delete
	default:
		return nil, fmt.Errorf("unknown verb: %s", verb)
	}
	if params != nil {
		query = params.ToQuery()
	}
	url, err := buildUrl(session, path, query)
	if err != nil {
		return nil, err
	}

	response, err := qrsMethod(ctx, url, body, headers)
	if err != nil {
		return nil, err
	}

	if typeMatch[Record](response) {
		var zero T
		if typeMatch[RecordSet](Renderable(zero)) {
			if !response.(Record).Empty() {
				response = RecordSet{response.(Record)}
			} else {
				response = RecordSet{}
			}
		}
	}

	resultVal, ok := response.(T)
	if !ok {
		return nil, fmt.Errorf(
			"unexpected response type for request to %s: got %T, expected %T",
			path, response, *new(T),
		)
	}
	return resultVal, nil
}

func (s *QRSSession) Get(ctx context.Context, url string, _ Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodGet, url, nil, headers)
}

func (s *QRSSession) Post(ctx context.Context, url string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodPost, url, body, headers)
}

func (s *QRSSession) Put(ctx context.Context, url string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodPut, url, body, headers)
}

func (s *QRSSession) Delete(ctx context.Context, url string, body Params, headers []http.Header) (Renderable, error) {
	return doRequest(ctx, s, http.MethodDelete, url, body, headers)
}

// GetRaw fetches path and returns the undecoded body. Used for documents such as the OpenAPI schema.
func (s *QRSSession) GetRaw(ctx context.Context, path string) ([]byte, error) {
	url, err := pathToUrl(s, path)
	if err != nil {
		return nil, err
	}
	req, xrfKey, err := s.newRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, err
	}
	Logger().Debug("http request start", fieldsForRequest(http.MethodGet, url, xrfKey)...)
	response, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform GET request to %s: %w", path, err)
	}
	if err = validateResponse(response); err != nil {
		return nil, err
	}
	defer response.Body.Close()
	return io.ReadAll(response.Body)
}

func (s *QRSSession) GetConfig() *QRSConfig {
	return s.config
}

func (s *QRSSession) GetAuthenticator() Authenticator {
	return s.auth
}

func consolidateHeaders(s RESTSession, customHeaders []http.Header) http.Header {
	finalHeaders := make(http.Header)
	for _, header := range customHeaders {
		for key, values := range header {
			for _, value := range values {
				finalHeaders.Add(key, value)
			}
		}
	}
	if finalHeaders.Get(HeaderAccept) == "" {
		finalHeaders.Set(HeaderAccept, ContentTypeJSON)
	}
	if finalHeaders.Get(HeaderContentType) == "" {
		finalHeaders.Set(HeaderContentType, ContentTypeJSON)
	}
	if finalHeaders.Get(HeaderUserAgent) == "" {
		finalHeaders.Set(HeaderUserAgent, s.GetConfig().UserAgent)
	}
	return finalHeaders
}

// newRequest builds a request carrying a fresh xrfkey in both the query and the
// X-Qlik-Xrfkey header, plus the authentication headers.
func (s *QRSSession) newRequest(
	ctx context.Context, verb, url string, body io.Reader, headers []http.Header,
) (*http.Request, string, error) {
	xrfKey, err := NewXrfKey()
	if err != nil {
		return nil, "", err
	}
	if url, err = withXrfKey(url, xrfKey); err != nil {
		return nil, "", err
	}
	if body == nil {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, verb, url, body)
	if err != nil {
		return nil, "", err
	}
	for key, values := range consolidateHeaders(s, headers) {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set(HeaderXrfKey, xrfKey)
	s.auth.setAuthHeader(&req.Header)
	return req, xrfKey, nil
}

// doRequest creates and processes a new HTTP request using the context.
func doRequest(ctx context.Context, s *QRSSession, verb, url string, body Params, headers []http.Header) (Renderable, error) {
	var (
		requestData       io.Reader
		beforeRequestData io.Reader
		err               error
	)
	resourceCaller, _ := ctx.Value(caller).(QRSResourceAPIWithContext)

	if url, err = pathToUrl(s, url); err != nil {
		return nil, err
	}
	if body != nil {
		if requestData, err = body.ToBody(); err != nil {
			return nil, err
		}
		if beforeRequestData, err = body.ToBody(); err != nil {
			return nil, err
		}
	}
	req, xrfKey, err := s.newRequest(ctx, verb, url, requestData, headers)
	if err != nil {
		return nil, err
	}
	publicURL := redactXrfKey(req.URL)

	if err = runBeforeRequest(ctx, s.config, resourceCaller, req, verb, publicURL, beforeRequestData); err != nil {
		return nil, err
	}
	response, responseErr := s.client.Do(req)
	if responseErr != nil {
		return nil, fmt.Errorf("failed to perform %s request to %s: %w", verb, publicURL, responseErr)
	}
	if err = validateResponse(response); err != nil {
		Logger().Debug("http request failed", fieldsForRequest(verb, url, xrfKey)...)
		return nil, err
	}
	result, err := unmarshalToRecordUnion(response)
	if err != nil {
		return nil, err
	}
	return runAfterRequest(ctx, s.config, resourceCaller, result)
}
