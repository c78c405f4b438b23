// Package httpkit provides identity helpers for handlers.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CurrentUserID returns the authenticated user's ID from the gin context.
// The second return value is false when no authenticated user is present.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}

	return userID, true
}

// CurrentRoles returns the authenticated user's roles from the gin context.
func CurrentRoles(c *gin.Context) []string {
	value, ok := c.Get(ContextRolesKey)
	if !ok {
		return nil
	}

	roles, ok := value.([]string)
	if !ok {
		return nil
	}

	return roles
}

// HasRole reports whether the authenticated user carries the given role.
func HasRole(c *gin.Context, role string) bool {
	for _, item := range CurrentRoles(c) {
		if item == role {
			return true
		}
	}
	return false
}
