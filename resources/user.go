package resources

import (
	"context"
	"fmt"

	"github.com/qrs-tools/go-qrs-client/core"
)

// User is a repository user.
type User struct {
	ID                string                `json:"id"`
	UserID            string                `json:"userId"`
	UserDirectory     string                `json:"userDirectory"`
	Name              string                `json:"name"`
	Roles             []string              `json:"roles"`
	Inactive          bool                  `json:"inactive"`
	RemovedExternally bool                  `json:"removedExternally"`
	Blacklisted       bool                  `json:"blacklisted"`
	Tags              []TagRef              `json:"tags"`
	CustomProperties  []CustomPropertyValue `json:"customProperties"`
	ModifiedDate      string                `json:"modifiedDate,omitempty"`
}

func (u User) Ref() OwnerRef {
	return OwnerRef{ID: u.ID, UserID: u.UserID, UserDirectory: u.UserDirectory, Name: u.Name}
}

// UserCreate describes a new user. Tags are names, custom properties "NAME=VALUE".
type UserCreate struct {
	UserID           string
	UserDirectory    string
	Name             string
	Roles            []string
	Tags             []string
	CustomProperties []string
}

// UserUpdate holds the attributes to change. Nil fields are left untouched.
type UserUpdate struct {
	Name             *string
	Roles            []string
	Tags             []string
	CustomProperties []string
}

// Users is the /qrs/user collection.
type Users struct {
	*core.QRSResource
	Resolver *CommonPropertiesResolver
}

func (u *Users) GetWithContext(ctx context.Context, id string) (*User, error) {
	user, err := getTyped[User](ctx, u.QRSResource, id)
	return user, core.WrapOp("user.get", err)
}

func (u *Users) Get(id string) (*User, error) {
	return u.GetWithContext(u.Rest.GetCtx(), id)
}

func (u *Users) GetAllWithContext(ctx context.Context) ([]User, error) {
	users, err := listTyped[User](ctx, u.QRSResource, "")
	return users, core.WrapOp("user.getAll", err)
}

func (u *Users) GetAll() ([]User, error) {
	return u.GetAllWithContext(u.Rest.GetCtx())
}

// GetFilterWithContext returns the users matching a server side filter such as
// "userId eq 'alice' and userDirectory eq 'TESTING'".
func (u *Users) GetFilterWithContext(ctx context.Context, filter string) ([]User, error) {
	if err := requireFilter("user.getFilter", filter); err != nil {
		return nil, err
	}
	users, err := listTyped[User](ctx, u.QRSResource, filter)
	return users, core.WrapOp("user.getFilter", err)
}

func (u *Users) GetFilter(filter string) ([]User, error) {
	return u.GetFilterWithContext(u.Rest.GetCtx(), filter)
}

// CreateWithContext creates a user after resolving its tags and custom properties.
func (u *Users) CreateWithContext(ctx context.Context, req UserCreate) (*User, error) {
	const op = "user.create"
	if req.UserID == "" || req.UserDirectory == "" {
		return nil, &core.ValidationError{Op: op, Message: "userId and userDirectory are required"}
	}
	common, err := u.Resolver.Resolve(ctx, req.CustomProperties, req.Tags, "")
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	name := req.Name
	if name == "" {
		name = req.UserID
	}
	roles := req.Roles
	if roles == nil {
		roles = []string{}
	}
	body := core.Params{
		"userId":           req.UserID,
		"userDirectory":    req.UserDirectory,
		"name":             name,
		"roles":            roles,
		"tags":             common.Tags,
		"customProperties": common.CustomProperties,
	}
	record, err := u.QRSResource.CreateWithContext(ctx, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[User](record)
}

func (u *Users) Create(req UserCreate) (*User, error) {
	return u.CreateWithContext(u.Rest.GetCtx(), req)
}

// UpdateWithContext merges the requested changes into the user and sends the result.
func (u *Users) UpdateWithContext(ctx context.Context, id string, req UserUpdate, opts UpdateOptions) (*User, error) {
	const op = "user.update"
	defer u.Lock(id)()
	body, err := fetchForUpdate(ctx, u.QRSResource, id)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	current, err := commonPropertiesOf(body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	merged, err := u.Resolver.Merge(ctx, current, CommonPropertiesChanges{
		CustomProperties: req.CustomProperties,
		Tags:             req.Tags,
	}, opts)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	merged.apply(body)
	if req.Name != nil {
		body["name"] = *req.Name
	}
	if req.Roles != nil {
		body["roles"] = req.Roles
	}
	record, err := u.QRSResource.UpdateWithContext(ctx, id, body)
	if err != nil {
		return nil, core.WrapOp(op, err)
	}
	return fillOne[User](record)
}

func (u *Users) Update(id string, req UserUpdate, opts UpdateOptions) (*User, error) {
	return u.UpdateWithContext(u.Rest.GetCtx(), id, req, opts)
}

func (u *Users) RemoveWithContext(ctx context.Context, id string) error {
	return core.WrapOp("user.remove", removeById(ctx, u.QRSResource, id))
}

func (u *Users) Remove(id string) error {
	return u.RemoveWithContext(u.Rest.GetCtx(), id)
}

// GetByReferenceWithContext returns the user referenced by "USER_DIRECTORY\USER_ID".
func (u *Users) GetByReferenceWithContext(ctx context.Context, reference string) (*User, error) {
	directory, userID, err := parseOwnerRef(reference)
	if err != nil {
		return nil, core.WrapOp("user.get", err)
	}
	users, err := u.GetFilterWithContext(ctx, fmt.Sprintf("userId eq %s and userDirectory eq %s", quote(userID), quote(directory)))
	if err != nil {
		return nil, err
	}
	user, err := single("user", reference, users)
	if err != nil {
		return nil, core.WrapOp("user.get", err)
	}
	return &user, nil
}
