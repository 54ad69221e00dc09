package core

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateID checks that id is a repository GUID. It is applied to every by-id call
// before a request is built, so a malformed id never reaches the server.
func ValidateID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Op: op, Message: "id is required"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Op: op, Message: fmt.Sprintf("invalid id %q: %v", id, err)}
	}
	return nil
}

// BuildResourcePathWithID joins resourcePath and the path-escaped id with additional segments.
func BuildResourcePathWithID(resourcePath, id string, additionalSegments ...string) string {
	segments := []string{strings.Trim(resourcePath, "/"), url.PathEscape(id)}
	for _, segment := range additionalSegments {
		if segment = strings.Trim(segment, "/"); segment != "" {
			segments = append(segments, segment)
		}
	}
	return strings.Join(segments, "/")
}
