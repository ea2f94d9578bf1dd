package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    uuid.UUID
	Role      domain.Role
	Superuser bool
}

func (p Principal) Authenticated() bool { return p.UserID != uuid.Nil }

func (p Principal) IsAdmin() bool { return p.Role == domain.RoleAdmin || p.Superuser }

type Action int

const (
	// ActionRead covers listing and viewing inventory data.
	ActionRead Action = iota
	// ActionWrite covers any inventory mutation.
	ActionWrite
	// ActionManageUser covers viewing or changing one user account.
	ActionManageUser
	// ActionListUsers covers the user directory.
	ActionListUsers
	// ActionCreateAdmin covers registering new admins.
	ActionCreateAdmin
)

// Allow decides whether p may perform action. ownerID is only consulted for ActionManageUser.
func Allow(p Principal, action Action, ownerID uuid.UUID) bool {
	if !p.Authenticated() {
		return false
	}
	switch action {
	case ActionRead:
		return true
	case ActionWrite, ActionListUsers:
		return p.IsAdmin()
	case ActionManageUser:
		return p.UserID == ownerID || p.IsAdmin()
	case ActionCreateAdmin:
		return p.Superuser
	}
	return false
}

// Require is Allow turned into an error: ErrUnauthorized for anonymous callers, ErrForbidden otherwise.
func Require(p Principal, action Action, ownerID uuid.UUID) error {
	if !p.Authenticated() {
		return domain.ErrUnauthorized
	}
	if !Allow(p, action, ownerID) {
		return domain.ErrForbidden
	}
	return nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the zero Principal for anonymous requests.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
