package resources

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/qrs-tools/go-qrs-client/core"
)

// Merge reconciles the requested changes with an entity's current common properties.
//
// For custom properties and tags independently: a nil request keeps the current list,
// an empty one clears it, otherwise the list is combined according to the operation.
// set and add resolve the requested references and validate custom property values
// against the definition's choice values; remove only matches by name (tags) or
// NAME=VALUE (custom properties). Owner and stream are resolved when requested.
//
// All lookups run concurrently. current is never modified and any failure aborts the
// merge. ModifiedDate is always stamped.
func (r *CommonPropertiesResolver) Merge(ctx context.Context, current CommonProperties, changes CommonPropertiesChanges, opts UpdateOptions) (*MergeResult, error) {
	if !opts.CustomPropertyOperation.Valid() {
		return nil, &core.ValidationError{Message: fmt.Sprintf("invalid custom property operation %s", opts.CustomPropertyOperation)}
	}
	if !opts.TagOperation.Valid() {
		return nil, &core.ValidationError{Message: fmt.Sprintf("invalid tag operation %s", opts.TagOperation)}
	}
	cpRefs, err := parseCustomPropertyRefs(changes.CustomProperties)
	if err != nil {
		return nil, err
	}
	tagNames, err := uniqueNames("tag", changes.Tags)
	if err != nil {
		return nil, err
	}
	if changes.Owner != "" {
		if _, _, err = parseOwnerRef(changes.Owner); err != nil {
			return nil, err
		}
	}

	base := current.Clone()
	result := &MergeResult{CommonProperties: base}

	g, gctx := errgroup.WithContext(ctx)
	if changes.CustomProperties != nil {
		g.Go(func() error {
			merged, mergeErr := r.mergeCustomProperties(gctx, base.CustomProperties, cpRefs, opts.CustomPropertyOperation)
			result.CustomProperties = merged
			return mergeErr
		})
	}
	if changes.Tags != nil {
		g.Go(func() error {
			merged, mergeErr := r.mergeTags(gctx, base.Tags, tagNames, opts.TagOperation)
			result.Tags = merged
			return mergeErr
		})
	}
	if changes.Owner != "" {
		g.Go(func() error {
			owner, resolveErr := r.ResolveOwner(gctx, changes.Owner)
			result.Owner = owner
			return resolveErr
		})
	}
	if changes.Stream != "" {
		g.Go(func() error {
			stream, resolveErr := r.ResolveStream(gctx, changes.Stream)
			result.Stream = stream
			return resolveErr
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	result.ModifiedDate = r.timestamp()
	return result, nil
}

func (r *CommonPropertiesResolver) mergeCustomProperties(
	ctx context.Context, existing []CustomPropertyValue, requested []customPropertyRef, op UpdateOperation,
) ([]CustomPropertyValue, error) {
	if len(requested) == 0 {
		return []CustomPropertyValue{}, nil
	}
	present := make(map[string]struct{}, len(existing))
	for _, cp := range existing {
		present[cp.Key()] = struct{}{}
	}

	switch op {
	case OperationAdd:
		var fresh []customPropertyRef
		for _, ref := range requested {
			if _, ok := present[ref.Key()]; !ok {
				fresh = append(fresh, ref)
			}
		}
		resolved, err := r.resolveCustomProperties(ctx, fresh, true)
		if err != nil {
			return nil, err
		}
		return append(existing, resolved...), nil
	case OperationRemove:
		drop := make(map[string]struct{}, len(requested))
		for _, ref := range requested {
			drop[ref.Key()] = struct{}{}
		}
		kept := make([]CustomPropertyValue, 0, len(existing))
		for _, cp := range existing {
			if _, ok := drop[cp.Key()]; !ok {
				kept = append(kept, cp)
			}
		}
		return kept, nil
	default:
		return r.resolveCustomProperties(ctx, requested, true)
	}
}

func (r *CommonPropertiesResolver) mergeTags(ctx context.Context, existing []TagRef, requested []string, op UpdateOperation) ([]TagRef, error) {
	if len(requested) == 0 {
		return []TagRef{}, nil
	}
	present := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		present[tag.Name] = struct{}{}
	}

	switch op {
	case OperationAdd:
		var fresh []string
		for _, name := range requested {
			if _, ok := present[name]; !ok {
				fresh = append(fresh, name)
			}
		}
		resolved, err := r.resolveTags(ctx, fresh)
		if err != nil {
			return nil, err
		}
		return append(existing, resolved...), nil
	case OperationRemove:
		drop := make(map[string]struct{}, len(requested))
		for _, name := range requested {
			drop[name] = struct{}{}
		}
		kept := make([]TagRef, 0, len(existing))
		for _, tag := range existing {
			if _, ok := drop[tag.Name]; !ok {
				kept = append(kept, tag)
			}
		}
		return kept, nil
	default:
		return r.resolveTags(ctx, requested)
	}
}

func (r *CommonPropertiesResolver) resolveTags(ctx context.Context, names []string) ([]TagRef, error) {
	tags := make([]TagRef, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			tag, err := r.ResolveTag(gctx, name)
			tags[i] = tag
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tags, nil
}
