package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
)

// validateResponse turns any non-2xx response into an *ApiError. A nil response means
// the server could not be reached.
func validateResponse(response *http.Response) error {
	requestURL := "<unknown URL>"
	method := "<unknown method>"
	if response == nil {
		return &ApiError{
			Method: method,
			URL:    requestURL,
			Body:   "server unreachable: verify the host is correct and the network is accessible",
		}
	}
	if response.StatusCode >= 200 && response.StatusCode <= 299 {
		return nil
	}
	if response.Request != nil {
		if response.Request.URL != nil {
			requestURL = redactXrfKey(response.Request.URL)
		}
		method = response.Request.Method
	}
	return &ApiError{
		Method:     method,
		URL:        requestURL,
		StatusCode: response.StatusCode,
		Body:       getResponseBodyAsStr(response),
	}
}

// qrsBasePath returns "/[virtualProxy/]qrs".
func qrsBasePath(config *QRSConfig) (string, error) {
	proxy := strings.Trim(config.VirtualProxy, "/")
	if proxy == "" {
		return urlpkg.JoinPath("/", "qrs")
	}
	return urlpkg.JoinPath("/", proxy, "qrs")
}

// pathToUrl returns input unchanged when it already is an absolute URL.
// Otherwise input is treated as a path (with optional query) relative to the qrs root.
func pathToUrl(s RESTSession, input string) (string, error) {
	parsedURL, parseErr := urlpkg.Parse(input)
	if parseErr == nil && parsedURL.Scheme != "" {
		return input, nil
	}
	if !strings.HasPrefix(input, "/") {
		input = "/" + input
	}
	pathAndQuery, err := urlpkg.ParseRequestURI(input)
	if err != nil {
		return "", fmt.Errorf("invalid relative URL: %w", err)
	}
	return buildUrl(s, pathAndQuery.Path, pathAndQuery.RawQuery)
}

// buildUrl composes https://host:port[/virtualProxy]/qrs/<path>?<query>.
func buildUrl(s RESTSession, path, query string) (string, error) {
	config := s.GetConfig()
	base, err := qrsBasePath(config)
	if err != nil {
		return "", err
	}
	if path = strings.Trim(path, "/"); path != "" {
		if base, err = urlpkg.JoinPath(base, path); err != nil {
			return "", err
		}
	}
	url := urlpkg.URL{
		Scheme:   "https",
		Host:     fmt.Sprintf("%s:%v", config.Host, config.Port),
		Path:     base,
		RawQuery: query,
	}
	return url.String(), nil
}

// withXrfKey sets the xrfkey query parameter on url, replacing any existing one.
func withXrfKey(url, key string) (string, error) {
	parsed, err := urlpkg.Parse(url)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set(QueryXrfKey, key)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// redactXrfKey renders u without its xrfkey parameter so it can be logged or reported.
func redactXrfKey(u *urlpkg.URL) string {
	clone := *u
	query := clone.Query()
	if !query.Has(QueryXrfKey) {
		return u.String()
	}
	query.Del(QueryXrfKey)
	clone.RawQuery = query.Encode()
	return clone.String()
}

// getResponseBodyAsStr reads the body (pretty printed when it is JSON) and closes it.
func getResponseBodyAsStr(r *http.Response) string {
	var b bytes.Buffer
	if r == nil || r.Body == nil {
		return ""
	}
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ""
	}
	if err = json.Indent(&b, body, "", "  "); err != nil {
		return string(body)
	}
	return b.String()
}
