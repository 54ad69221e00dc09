package resources

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/qrs-tools/go-qrs-client/core"
)

// TagLookup finds tags with a server side filter.
type TagLookup interface {
	GetFilterWithContext(ctx context.Context, filter string) ([]Tag, error)
}

// CustomPropertyLookup finds custom property definitions with a server side filter.
type CustomPropertyLookup interface {
	GetFilterWithContext(ctx context.Context, filter string) ([]CustomPropertyDefinition, error)
}

// UserLookup finds users with a server side filter.
type UserLookup interface {
	GetFilterWithContext(ctx context.Context, filter string) ([]User, error)
}

// StreamLookup finds streams with a server side filter.
type StreamLookup interface {
	GetFilterWithContext(ctx context.Context, filter string) ([]Stream, error)
}

// CommonPropertiesResolver turns human readable references (tag names, NAME=VALUE custom
// properties, DIRECTORY\userId owners, stream names) into the references the repository
// expects. Every lookup is a fresh round trip; nothing is cached.
type CommonPropertiesResolver struct {
	Tags             TagLookup
	CustomProperties CustomPropertyLookup
	Users            UserLookup
	Streams          StreamLookup
}

// NewCommonPropertiesResolver creates a resolver over the given lookups. streams may be nil
// when stream references are never resolved.
func NewCommonPropertiesResolver(tags TagLookup, customProperties CustomPropertyLookup, users UserLookup, streams StreamLookup) *CommonPropertiesResolver {
	return &CommonPropertiesResolver{
		Tags:             tags,
		CustomProperties: customProperties,
		Users:            users,
		Streams:          streams,
	}
}

func (r *CommonPropertiesResolver) timestamp() string {
	return formatModifiedDate(nowFunc())
}

// single enforces the exactly-one-match rule shared by every lookup.
func single[T any](kind, name string, matches []T) (T, error) {
	var zero T
	switch len(matches) {
	case 0:
		return zero, &core.NotFoundError{Resource: kind, Name: name}
	case 1:
		return matches[0], nil
	default:
		return zero, &core.AmbiguousReferenceError{ResourcePath: kind, Name: name}
	}
}

// ResolveTag looks up a tag by exact name.
func (r *CommonPropertiesResolver) ResolveTag(ctx context.Context, name string) (TagRef, error) {
	if r.Tags == nil {
		return TagRef{}, fmt.Errorf("tag lookup is not configured")
	}
	matches, err := r.Tags.GetFilterWithContext(ctx, nameFilter(name))
	if err != nil {
		return TagRef{}, err
	}
	tag, err := single("tag", name, matches)
	if err != nil {
		return TagRef{}, err
	}
	return tag.Ref(), nil
}

// ResolveCustomPropertyDefinition looks up a custom property definition by exact name.
func (r *CommonPropertiesResolver) ResolveCustomPropertyDefinition(ctx context.Context, name string) (CustomPropertyDefinitionRef, error) {
	if r.CustomProperties == nil {
		return CustomPropertyDefinitionRef{}, fmt.Errorf("custom property lookup is not configured")
	}
	matches, err := r.CustomProperties.GetFilterWithContext(ctx, nameFilter(name))
	if err != nil {
		return CustomPropertyDefinitionRef{}, err
	}
	definition, err := single("custom property", name, matches)
	if err != nil {
		return CustomPropertyDefinitionRef{}, err
	}
	return definition.Ref(), nil
}

// ResolveOwner looks up the user referenced by "USER_DIRECTORY\USER_ID".
func (r *CommonPropertiesResolver) ResolveOwner(ctx context.Context, owner string) (*OwnerRef, error) {
	directory, userID, err := parseOwnerRef(owner)
	if err != nil {
		return nil, err
	}
	if r.Users == nil {
		return nil, fmt.Errorf("user lookup is not configured")
	}
	filter := fmt.Sprintf("userId eq %s and userDirectory eq %s", quote(userID), quote(directory))
	matches, err := r.Users.GetFilterWithContext(ctx, filter)
	if err != nil {
		return nil, err
	}
	user, err := single("user", owner, matches)
	if err != nil {
		return nil, err
	}
	ref := user.Ref()
	return &ref, nil
}

// ResolveStream looks up a stream by exact name.
func (r *CommonPropertiesResolver) ResolveStream(ctx context.Context, name string) (*StreamRef, error) {
	if r.Streams == nil {
		return nil, fmt.Errorf("stream lookup is not configured")
	}
	matches, err := r.Streams.GetFilterWithContext(ctx, nameFilter(name))
	if err != nil {
		return nil, err
	}
	stream, err := single("stream", name, matches)
	if err != nil {
		return nil, err
	}
	ref := stream.Ref()
	return &ref, nil
}

// Resolve resolves the references of a new entity. Custom property values are paired
// with their definition without checking the declared choice values.
// All lookups run concurrently; the first failure cancels the others and nothing is returned.
func (r *CommonPropertiesResolver) Resolve(ctx context.Context, customProperties, tags []string, owner string) (*CommonProperties, error) {
	cpRefs, err := parseCustomPropertyRefs(customProperties)
	if err != nil {
		return nil, err
	}
	tagNames, err := uniqueNames("tag", tags)
	if err != nil {
		return nil, err
	}
	if owner != "" {
		if _, _, err = parseOwnerRef(owner); err != nil {
			return nil, err
		}
	}

	result := &CommonProperties{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var resolveErr error
		result.CustomProperties, resolveErr = r.resolveCustomProperties(gctx, cpRefs, false)
		return resolveErr
	})
	g.Go(func() error {
		var resolveErr error
		result.Tags, resolveErr = r.resolveTags(gctx, tagNames)
		return resolveErr
	})
	if owner != "" {
		g.Go(func() error {
			ref, resolveErr := r.ResolveOwner(gctx, owner)
			result.Owner = ref
			return resolveErr
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveCustomProperties issues one lookup per distinct definition name and pairs every
// reference with its definition, in input order. validate enforces choice values.
func (r *CommonPropertiesResolver) resolveCustomProperties(ctx context.Context, refs []customPropertyRef, validate bool) ([]CustomPropertyValue, error) {
	var names []string
	for _, ref := range refs {
		if !slices.Contains(names, ref.Name) {
			names = append(names, ref.Name)
		}
	}
	definitions := make([]CustomPropertyDefinitionRef, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			definition, err := r.ResolveCustomPropertyDefinition(gctx, name)
			definitions[i] = definition
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	values := make([]CustomPropertyValue, 0, len(refs))
	for _, ref := range refs {
		definition := definitions[slices.Index(names, ref.Name)]
		if validate && !slices.Contains(definition.ChoiceValues, ref.Value) {
			return nil, &core.ChoiceValueError{
				Property: ref.Name,
				Value:    ref.Value,
				Choices:  definition.ChoiceValues,
			}
		}
		values = append(values, CustomPropertyValue{Value: ref.Value, Definition: definition})
	}
	return values, nil
}
