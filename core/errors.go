package core

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a missing or malformed argument. It is raised before any request is sent.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

type NotFoundError struct {
	Resource string
	Query    string
	Name     string // human readable reference that failed to resolve
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s '%s' not found", e.Resource, e.Name)
	}
	return fmt.Sprintf("resource '%s' not found for params '%s'", e.Resource, e.Query)
}

// TooManyRecordsError is returned when a reference expected to be unique matches more than one entity.
type TooManyRecordsError struct {
	ResourcePath string
	Params       Params
	Name         string
}

func (e *TooManyRecordsError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("more than one %s found for '%s'", e.ResourcePath, e.Name)
	}
	return fmt.Sprintf("too many records found for resource '%s' with params '%v'", e.ResourcePath, e.Params)
}

// AmbiguousReferenceError is the name used by resolvers for TooManyRecordsError.
type AmbiguousReferenceError = TooManyRecordsError

// ChoiceValueError is returned when a custom property value is not one of the definition's choice values.
type ChoiceValueError struct {
	Property string
	Value    string
	Choices  []string
}

func (e *ChoiceValueError) Error() string {
	return fmt.Sprintf(
		"value '%s' is not a valid choice for custom property '%s' (allowed: %s)",
		e.Value, e.Property, strings.Join(e.Choices, ", "),
	)
}

func IsValidationErr(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsNotFoundErr(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

func IgnoreNotFound(val Record, err error) (Record, error) {
	if IsNotFoundErr(err) {
		return val, nil
	}
	return val, err
}

func IsTooManyRecordsErr(err error) bool {
	var tooManyRecordsErr *TooManyRecordsError
	return errors.As(err, &tooManyRecordsErr)
}

func IsChoiceValueErr(err error) bool {
	var cvErr *ChoiceValueError
	return errors.As(err, &cvErr)
}

// WrapOp prefixes err with the logical operation name ("stream.create: ...").
// Returns nil for a nil error and err itself when it already carries the prefix.
func WrapOp(op string, err error) error {
	if err == nil || strings.HasPrefix(err.Error(), op+": ") {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
