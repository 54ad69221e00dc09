package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&NotFoundError{Resource: "tag", Name: "Finance"}, "tag 'Finance' not found"},
		{&NotFoundError{Resource: "tag", Query: "filter=x"}, "resource 'tag' not found for params 'filter=x'"},
		{&TooManyRecordsError{ResourcePath: "stream", Name: "Everyone"}, "more than one stream found for 'Everyone'"},
		{&ValidationError{Op: "stream.create", Message: "name is required"}, "stream.create: name is required"},
		{&ChoiceValueError{Property: "Region", Value: "Mars", Choices: []string{"EU", "US"}},
			"value 'Mars' is not a valid choice for custom property 'Region' (allowed: EU, US)"},
		{&ApiError{Method: http.MethodGet, URL: "https://h/qrs/tag", StatusCode: 404, Body: "{}"},
			"GET request to https://h/qrs/tag returned status code 404, response body: {}"},
	}
	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
		}
	}
}

func TestWrapOp(t *testing.T) {
	if WrapOp("tag.create", nil) != nil {
		t.Fatal("WrapOp(nil) should be nil")
	}
	err := WrapOp("stream.create", &NotFoundError{Resource: "tag", Name: "Finance"})
	if err.Error() != "stream.create: tag 'Finance' not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsNotFoundErr(err) {
		t.Error("wrapped error should still be a NotFoundError")
	}

	var ambiguous *AmbiguousReferenceError
	wrapped := fmt.Errorf("outer: %w", WrapOp("app.publish", &TooManyRecordsError{ResourcePath: "stream", Name: "x"}))
	if !errors.As(wrapped, &ambiguous) || !IsTooManyRecordsErr(wrapped) {
		t.Error("AmbiguousReferenceError should match TooManyRecordsError")
	}
	if !IsChoiceValueErr(WrapOp("x", &ChoiceValueError{})) {
		t.Error("IsChoiceValueErr mismatch")
	}

	// already prefixed errors are not wrapped twice
	validation := &ValidationError{Op: "tag.get", Message: "invalid id"}
	if got := WrapOp("tag.get", validation); got != error(validation) {
		t.Errorf("WrapOp re-wrapped %q", got)
	}
}

func TestIgnoreNotFound(t *testing.T) {
	rec, err := IgnoreNotFound(nil, &NotFoundError{Resource: "tag"})
	if err != nil || rec != nil {
		t.Errorf("IgnoreNotFound() = %v, %v", rec, err)
	}
	if _, err = IgnoreNotFound(nil, errors.New("other")); err == nil {
		t.Error("other errors should pass through")
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID("tag.get", "6a3c6e7a-6f0c-4c43-8c7f-37a3f4b0a001"); err != nil {
		t.Errorf("ValidateID() error = %v", err)
	}
	err := ValidateID("tag.get", "abc")
	if !IsValidationErr(err) || !strings.HasPrefix(err.Error(), "tag.get: invalid id") {
		t.Errorf("ValidateID() error = %v", err)
	}
	if got := BuildResourcePathWithID("/app/", "id 1", "copy", "/"); got != "app/id%201/copy" {
		t.Errorf("BuildResourcePathWithID() = %s", got)
	}
}

func TestNewXrfKey(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key, err := NewXrfKey()
		if err != nil {
			t.Fatal(err)
		}
		if len(key) != 16 {
			t.Fatalf("key %q has length %d", key, len(key))
		}
		for _, c := range key {
			if !strings.ContainsRune(xrfKeyAlphabet, c) {
				t.Fatalf("key %q contains %q", key, c)
			}
		}
		seen[key] = true
	}
	if len(seen) != 50 {
		t.Error("keys should be unique")
	}
}
