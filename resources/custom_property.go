package resources

import (
	"context"
	"fmt"
	"slices"

	"github.com/qrs-tools/go-qrs-client/core"
)

// Entity types a custom property definition can apply to.
var CustomPropertyObjectTypes = []string{
	"App",
	"AnalyticConnection",
	"ContentLibrary",
	"DataConnection",
	"EngineService",
	"Extension",
	"ExternalProgramTask",
	"PrintingService",
	"ProxyService",
	"ReloadTask",
	"RepositoryService",
	"SchedulerService",
	"ServerNodeConfiguration",
	"Stream",
	"User",
	"UserSyncTask",
	"VirtualProxyConfig",
}

// CustomPropertyDefinition is the schema of a custom property.
type CustomPropertyDefinition struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ValueType    string   `json:"valueType"`
	ChoiceValues []string `json:"choiceValues"`
	ObjectTypes  []string `json:"objectTypes"`
	Description  string   `json:"description,omitempty"`
	CreatedDate  string   `json:"createdDate,omitempty"`
	ModifiedDate string   `json:"modifiedDate,omitempty"`
}

func (d CustomPropertyDefinition) Ref() CustomPropertyDefinitionRef {
	return CustomPropertyDefinitionRef{
		ID:           d.ID,
		Name:         d.Name,
		ValueType:    d.ValueType,
		ChoiceValues: append([]string(nil), d.ChoiceValues...),
	}
}

// CustomPropertyCreate describes a new custom property definition.
type CustomPropertyCreate struct {
	Name         string   `json:"name"`
	ValueType    string   `json:"valueType"`
	ChoiceValues []string `json:"choiceValues"`
	ObjectTypes  []string `json:"objectTypes"`
	Description  string   `json:"description,omitempty"`
}

// CustomPropertyUpdate holds the attributes to change. Nil fields are left untouched.
type CustomPropertyUpdate struct {
	Name         *string
	Description  *string
	ChoiceValues []string
	ObjectTypes  []string
}

// CustomProperties is the /qrs/custompropertydefinition collection.
type CustomProperties struct {
	*core.QRSResource
}

func validateObjectTypes(op string, objectTypes []string) error {
	for _, objectType := range objectTypes {
		if !slices.Contains(CustomPropertyObjectTypes, objectType) {
			return &core.ValidationError{Op: op, Message: fmt.Sprintf("unknown object type %q", objectType)}
		}
	}
	return nil
}

func (c *CustomProperties) GetWithContext(ctx context.Context, id string) (*CustomPropertyDefinition, error) {
	definition, err := getTyped[CustomPropertyDefinition](ctx, c.QRSResource, id)
	return definition, core.WrapOp("custompropertydefinition.get", err)
}

func (c *CustomProperties) Get(id string) (*CustomPropertyDefinition, error) {
	return c.GetWithContext(c.Rest.GetCtx(), id)
}

func (c *CustomProperties) GetAllWithContext(ctx context.Context) ([]CustomPropertyDefinition, error) {
	definitions, err := listTyped[CustomPropertyDefinition](ctx, c.QRSResource, "")
	return definitions, core.WrapOp("custompropertydefinition.getAll", err)
}

func (c *CustomProperties) GetAll() ([]CustomPropertyDefinition, error) {
	return c.GetAllWithContext(c.Rest.GetCtx())
}

// GetFilterWithContext returns the definitions matching a server side filter.
func (c *CustomProperties) GetFilterWithContext(ctx context.Context, filter string) ([]CustomPropertyDefinition, error) {
	if err := requireFilter("custompropertydefinition.getFilter", filter); err != nil {
		return nil, err
	}
	definitions, err := listTyped[CustomPropertyDefinition](ctx, c.QRSResource, filter)
	return definitions, core.WrapOp("custompropertydefinition.getFilter", err)
}

func (c *CustomProperties) GetFilter(filter string) ([]CustomPropertyDefinition, error) {
	return c.GetFilterWithContext(c.Rest.GetCtx(), filter)
}

// CreateWithContext creates a custom property definition. ValueType defaults to "Text".
func (c *CustomProperties) CreateWithContext(ctx context.Context, req CustomPropertyCreate) (*CustomPropertyDefinition, error) {
	const op = "custompropertydefinition.create"
	if !customPropertyNameRe.MatchString(req.Name) {
		return nil, &core.ValidationError{
			Op:      op,
			Message: fmt.Sprintf("invalid custom property name %q (allowed: letters, digits and underscore)", req.Name),
		}
	}
	if err := validateObjectTypes(op, req.ObjectTypes); err != nil {
		return nil, err
	}
	if req.ValueType == "" {
		req.ValueType = "Text"
	}
	if req.ChoiceValues == nil {
		req.ChoiceValues = []string{}
	}
	if req.ObjectTypes == nil {
		req.ObjectTypes = []string{}
	}
	body, err := core.NewParamsFromStruct(req)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	record, err := c.QRSResource.CreateWithContext(ctx, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[CustomPropertyDefinition](record)
}

func (c *CustomProperties) Create(req CustomPropertyCreate) (*CustomPropertyDefinition, error) {
	return c.CreateWithContext(c.Rest.GetCtx(), req)
}

// UpdateWithContext changes a definition in place (read, modify, PUT).
func (c *CustomProperties) UpdateWithContext(ctx context.Context, id string, req CustomPropertyUpdate) (*CustomPropertyDefinition, error) {
	const op = "custompropertydefinition.update"
	if req.Name != nil && !customPropertyNameRe.MatchString(*req.Name) {
		return nil, &core.ValidationError{Op: op, Message: fmt.Sprintf("invalid custom property name %q", *req.Name)}
	}
	if err := validateObjectTypes(op, req.ObjectTypes); err != nil {
		return nil, err
	}
	defer c.Lock(id)()
	body, err := fetchForUpdate(ctx, c.QRSResource, id)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	if req.Name != nil {
		body["name"] = *req.Name
	}
	if req.Description != nil {
		body["description"] = *req.Description
	}
	if req.ChoiceValues != nil {
		body["choiceValues"] = req.ChoiceValues
	}
	if req.ObjectTypes != nil {
		body["objectTypes"] = req.ObjectTypes
	}
	body["modifiedDate"] = formatModifiedDate(nowFunc())
	record, err := c.QRSResource.UpdateWithContext(ctx, id, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[CustomPropertyDefinition](record)
}

func (c *CustomProperties) Update(id string, req CustomPropertyUpdate) (*CustomPropertyDefinition, error) {
	return c.UpdateWithContext(c.Rest.GetCtx(), id, req)
}

func (c *CustomProperties) RemoveWithContext(ctx context.Context, id string) error {
	return core.WrapOp("custompropertydefinition.remove", removeById(ctx, c.QRSResource, id))
}

func (c *CustomProperties) Remove(id string) error {
	return c.RemoveWithContext(c.Rest.GetCtx(), id)
}
