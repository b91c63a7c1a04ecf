package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/fieldtrack/internal/model"
)

// ErrWrongUserType means someone is logged in, but not as the required role.
var ErrWrongUserType = errors.New("logged in with a different user type")

// IdentityReader loads the persisted login.
type IdentityReader interface {
	Identity(ctx context.Context) (model.Identity, error)
}

// Require returns the persisted identity if it has the given user type.
// Marketers must also carry their marketer data.
func Require(ctx context.Context, r IdentityReader, userType string) (model.Identity, error) {
	id, err := r.Identity(ctx)
	if err != nil {
		return model.Identity{}, fmt.Errorf("please login first: %w", err)
	}
	if id.UserType != userType {
		return model.Identity{}, fmt.Errorf("%w: have %q, need %q", ErrWrongUserType, id.UserType, userType)
	}
	if userType == model.UserTypeMarketer && id.Marketer == nil {
		return model.Identity{}, errors.New("please login first: marketer data missing")
	}
	return id, nil
}
