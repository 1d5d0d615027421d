package auth

import (
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// ActorFromClaims builds the actor carried by a parsed access token.
func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}
}

// Valid reports whether the actor carries an identity and a known role.
func (a Actor) Valid() bool {
	return a.UserID != uuid.Nil && a.Role.IsValid()
}

// HasRole reports whether the actor holds any of roles.
func (a Actor) HasRole(roles ...enums.Role) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

func (a Actor) IsManager() bool {
	return a.Role == enums.RoleManager
}
