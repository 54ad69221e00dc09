package core

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ######################################################
//
//	REQUEST/RESPONSE INTERCEPTORS
//
// ######################################################

// BeforeRequest No op in current implementation. Shadow this method on a particular resource
// (declare the same method with the same signature on Apps or Streams etc.) to customize it.
func (e *QRSResource) BeforeRequest(_ context.Context, _ *http.Request, _, _ string, _ io.Reader) error {
	return nil
}

// AfterRequest No op in current implementation. Shadow it on a particular resource to customize it.
func (e *QRSResource) AfterRequest(_ context.Context, response Renderable) (Renderable, error) {
	return response, nil
}

// interceptorFor returns the registered resource interceptor for resourceType.
// Typed resources register themselves so their shadowed hooks are found here.
func interceptorFor(r QRSResourceAPIWithContext) RequestInterceptor {
	if r == nil {
		return nil
	}
	if base, ok := r.(*QRSResource); ok && base.interceptor != nil {
		return base.interceptor
	}
	if interceptor, ok := r.(RequestInterceptor); ok {
		return interceptor
	}
	return nil
}

// runBeforeRequest logs the request, then calls the resource hook and the user hook in that order.
func runBeforeRequest(
	ctx context.Context,
	config *QRSConfig,
	resourceCaller QRSResourceAPIWithContext,
	r *http.Request,
	verb, url string,
	body io.Reader,
) error {
	beforeRequestLog(verb, url, body)
	if interceptor := interceptorFor(resourceCaller); interceptor != nil {
		if err := interceptor.BeforeRequest(ctx, r, verb, url, body); err != nil {
			return err
		}
	}
	if config.BeforeRequestFn != nil {
		return config.BeforeRequestFn(ctx, r, verb, url, body)
	}
	return nil
}

// runAfterRequest tags the response with @resourceType, logs it and passes it through
// the resource hook and the user hook.
func runAfterRequest(
	ctx context.Context,
	config *QRSConfig,
	resourceCaller QRSResourceAPIWithContext,
	response Renderable,
) (Renderable, error) {
	var err error
	resourceType := ""
	if resourceCaller != nil {
		resourceType = resourceCaller.GetResourceType()
		if err = setResourceKey(response, resourceType); err != nil {
			return nil, err
		}
	}
	afterRequestLog(response, resourceType)
	if interceptor := interceptorFor(resourceCaller); interceptor != nil {
		if response, err = interceptor.AfterRequest(ctx, response); err != nil {
			return nil, err
		}
	}
	if config.AfterRequestFn != nil {
		if response, err = config.AfterRequestFn(ctx, response); err != nil {
			return nil, err
		}
	}
	return response, nil
}

// ######################################################
//
//	REQUEST/RESPONSE LOGGING
//
// ######################################################

func fieldsForRequest(verb, url, xrfKey string) []zap.Field {
	return []zap.Field{zap.String("method", verb), zap.String("url", url), zap.String("xrfkey", xrfKey)}
}

// beforeRequestLog logs method and URL at info level. The compacted body is added at debug level.
func beforeRequestLog(verb, url string, body io.Reader) {
	log := Logger()
	fields := []zap.Field{zap.String("method", verb), zap.String("url", url)}
	if body != nil && log.Core().Enabled(zapcore.DebugLevel) {
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			log.Error("failed to read request body", zap.Error(err))
			return
		}
		trimmed := bytes.TrimSpace(bodyBytes)
		if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			var compact bytes.Buffer
			if err = json.Compact(&compact, trimmed); err == nil {
				fields = append(fields, zap.String("body", compact.String()))
			} else {
				fields = append(fields, zap.String("body", string(trimmed)))
			}
		}
	}
	log.Info("http request start", fields...)
}

// afterRequestLog logs a summary of the response. At debug level the full JSON is included.
func afterRequestLog(response Renderable, resourceType string) {
	log := Logger()
	if !log.Core().Enabled(zapcore.InfoLevel) {
		return
	}
	fields := []zap.Field{}
	if resourceType != "" {
		fields = append(fields, zap.String("resource", resourceType))
	}
	switch resp := response.(type) {
	case Record:
		fields = append(fields, zap.String("kind", "record"))
	case RecordSet:
		fields = append(fields, zap.String("kind", "recordset"), zap.Int("count", len(resp)))
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		fields = append(fields, zap.String("body", response.PrettyJson()))
	}
	log.Info("response", fields...)
}
