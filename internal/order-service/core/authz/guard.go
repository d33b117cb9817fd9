// Package authz decides whether an authenticated actor may act on a resource.
package authz

import (
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

// Authorize allows the call only when an actor is present and owns the
// resource. An empty owner never matches.
func Authorize(actor *domain.AuthContext, ownerID domain.ID) error {
	if actor == nil || actor.UserID == "" {
		return &apperr.AuthorizationError{OwnerID: ownerID.String()}
	}
	if ownerID == "" || actor.UserID != ownerID {
		return &apperr.AuthorizationError{ActorID: actor.UserID.String(), OwnerID: ownerID.String()}
	}
	return nil
}

// RequireActor rejects a call made without an authenticated identity. Read
// paths use it to refuse before the ownership lookup.
func RequireActor(actor *domain.AuthContext) error {
	if actor == nil || actor.UserID == "" {
		return &apperr.AuthorizationError{}
	}
	return nil
}
