package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/apperr"
	"github.com/jcmexdev/brewery-order-service/internal/order-service/core/domain"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		actor   *domain.AuthContext
		owner   domain.ID
		allowed bool
	}{
		{"owner", &domain.AuthContext{UserID: "7"}, "7", true},
		{"other user", &domain.AuthContext{UserID: "7"}, "8", false},
		{"no actor", nil, "7", false},
		{"actor without id", &domain.AuthContext{Email: "a@b.c"}, "7", false},
		{"empty owner", &domain.AuthContext{UserID: "7"}, "", false},
		{"both empty", &domain.AuthContext{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.owner)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			var authErr *apperr.AuthorizationError
			assert.True(t, errors.As(err, &authErr))
		})
	}
}

func TestRequireActor(t *testing.T) {
	assert.NoError(t, RequireActor(&domain.AuthContext{UserID: "1"}))
	assert.Error(t, RequireActor(nil))
	assert.Error(t, RequireActor(&domain.AuthContext{}))
}
