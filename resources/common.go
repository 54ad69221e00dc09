package resources

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/qrs-tools/go-qrs-client/core"
)

// ModifiedDateLayout is the timestamp layout the repository expects in modifiedDate.
const ModifiedDateLayout = "2006-01-02T15:04:05.000Z"

var customPropertyNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// TagRef is the reference to a tag embedded in other entities.
type TagRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CustomPropertyDefinitionRef is the definition part of a custom property value.
type CustomPropertyDefinitionRef struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ValueType    string   `json:"valueType,omitempty"`
	ChoiceValues []string `json:"choiceValues"`
}

// CustomPropertyValue pairs a definition with the value chosen for an entity.
type CustomPropertyValue struct {
	ID         string                      `json:"id,omitempty"`
	Value      string                      `json:"value"`
	Definition CustomPropertyDefinitionRef `json:"definition"`
}

// Key returns "NAME=VALUE", the identity used to compare custom property values.
func (v CustomPropertyValue) Key() string {
	return v.Definition.Name + "=" + v.Value
}

// OwnerRef is the reference to a user owning an entity.
type OwnerRef struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	UserDirectory string `json:"userDirectory"`
	Name          string `json:"name,omitempty"`
}

func (o OwnerRef) String() string {
	return o.UserDirectory + `\` + o.UserID
}

// StreamRef is the reference to a stream embedded in apps.
type StreamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommonProperties are the cross-cutting attributes most entities carry.
type CommonProperties struct {
	CustomProperties []CustomPropertyValue `json:"customProperties"`
	Tags             []TagRef              `json:"tags"`
	Owner            *OwnerRef             `json:"owner,omitempty"`
}

// Clone returns a deep copy so callers can modify slices without touching the receiver.
func (c CommonProperties) Clone() CommonProperties {
	out := CommonProperties{
		CustomProperties: make([]CustomPropertyValue, 0, len(c.CustomProperties)),
		Tags:             append(make([]TagRef, 0, len(c.Tags)), c.Tags...),
	}
	for _, cp := range c.CustomProperties {
		cp.Definition.ChoiceValues = append([]string(nil), cp.Definition.ChoiceValues...)
		out.CustomProperties = append(out.CustomProperties, cp)
	}
	if c.Owner != nil {
		owner := *c.Owner
		out.Owner = &owner
	}
	return out
}

// TagNames returns the tag names in order.
func (c CommonProperties) TagNames() []string {
	names := make([]string, len(c.Tags))
	for i, tag := range c.Tags {
		names[i] = tag.Name
	}
	return names
}

// CustomPropertyKeys returns the "NAME=VALUE" representation of each custom property.
func (c CommonProperties) CustomPropertyKeys() []string {
	keys := make([]string, len(c.CustomProperties))
	for i, cp := range c.CustomProperties {
		keys[i] = cp.Key()
	}
	return keys
}

// CommonPropertiesChanges are the raw references requested by an update.
// A nil slice leaves the corresponding list untouched, an empty non-nil slice clears it.
type CommonPropertiesChanges struct {
	CustomProperties []string // "NAME=VALUE"
	Tags             []string // tag names
	Owner            string   // "USER_DIRECTORY\USER_ID"
	Stream           string   // stream name (apps only)
}

// UpdateOptions select how requested tags and custom properties combine with the current ones.
type UpdateOptions struct {
	CustomPropertyOperation UpdateOperation
	TagOperation            UpdateOperation
}

// MergeResult is the outcome of merging changes into an entity's common properties.
type MergeResult struct {
	CommonProperties
	Stream       *StreamRef `json:"stream,omitempty"`
	ModifiedDate string     `json:"modifiedDate"`
}

// apply writes the merged attributes into an entity body fetched from the repository.
func (m *MergeResult) apply(body core.Params) {
	body["customProperties"] = m.CustomProperties
	body["tags"] = m.Tags
	if m.Owner != nil {
		body["owner"] = m.Owner
	}
	if m.Stream != nil {
		body["stream"] = m.Stream
	}
	body["modifiedDate"] = m.ModifiedDate
}

// UpdateOperation governs how a requested list is combined with the current one.
type UpdateOperation int

const (
	OperationSet UpdateOperation = iota // replace wholesale (default)
	OperationAdd                        // union without duplicates
	OperationRemove                     // subtract
)

var updateOperationNames = map[UpdateOperation]string{
	OperationSet:    "set",
	OperationAdd:    "add",
	OperationRemove: "remove",
}

func (op UpdateOperation) String() string {
	if name, ok := updateOperationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("UpdateOperation(%d)", int(op))
}

func (op UpdateOperation) Valid() bool {
	_, ok := updateOperationNames[op]
	return ok
}

// ParseUpdateOperation parses "set", "add" or "remove" (case insensitive).
// An empty string yields OperationSet.
func ParseUpdateOperation(value string) (UpdateOperation, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return OperationSet, nil
	}
	for op, name := range updateOperationNames {
		if name == value {
			return op, nil
		}
	}
	return OperationSet, &core.ValidationError{
		Message: fmt.Sprintf("unknown update operation %q (expected set, add or remove)", value),
	}
}

func (op *UpdateOperation) UnmarshalText(text []byte) error {
	parsed, err := ParseUpdateOperation(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

func (op UpdateOperation) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("invalid update operation %d", int(op))
	}
	return []byte(op.String()), nil
}

// customPropertyRef is a parsed "NAME=VALUE" reference.
type customPropertyRef struct {
	Name  string
	Value string
}

func (r customPropertyRef) Key() string {
	return r.Name + "=" + r.Value
}

// parseCustomPropertyRef splits raw on the first '='.
func parseCustomPropertyRef(raw string) (customPropertyRef, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok {
		return customPropertyRef{}, &core.ValidationError{
			Message: fmt.Sprintf("custom property %q must have the form NAME=VALUE", raw),
		}
	}
	if !customPropertyNameRe.MatchString(name) {
		return customPropertyRef{}, &core.ValidationError{
			Message: fmt.Sprintf("invalid custom property name %q (allowed: letters, digits and underscore)", name),
		}
	}
	return customPropertyRef{Name: name, Value: value}, nil
}

func parseCustomPropertyRefs(raw []string) ([]customPropertyRef, error) {
	refs := make([]customPropertyRef, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		ref, err := parseCustomPropertyRef(item)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[ref.Key()]; dup {
			continue
		}
		seen[ref.Key()] = struct{}{}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parseOwnerRef splits "USER_DIRECTORY\USER_ID" on the first backslash.
func parseOwnerRef(raw string) (directory, userID string, err error) {
	directory, userID, ok := strings.Cut(raw, `\`)
	if !ok || directory == "" || userID == "" {
		return "", "", &core.ValidationError{
			Message: fmt.Sprintf(`owner %q must have the form USER_DIRECTORY\USER_ID`, raw),
		}
	}
	return directory, userID, nil
}

// uniqueNames drops duplicates and rejects empty names.
func uniqueNames(kind string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, &core.ValidationError{Message: fmt.Sprintf("%s name must not be empty", kind)}
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// quote renders s as a single quoted repository filter literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// nameFilter builds the exact-match filter used by every name lookup.
func nameFilter(name string) string {
	return "name eq " + quote(name)
}

func formatModifiedDate(t time.Time) string {
	return t.UTC().Format(ModifiedDateLayout)
}
