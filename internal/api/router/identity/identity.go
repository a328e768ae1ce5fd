// Package identity carries the verified technician identity through the
// request context.
package identity

import (
	"github.com/fieldhq/pro-dispatch/internal/api/auth"
	"github.com/gin-gonic/gin"
)

const contextKey = "technician_identity"

// Set stores the verified identity on the request context.
func Set(c *gin.Context, ident auth.Identity) {
	c.Set(contextKey, ident)
}

// FromContext retrieves the verified identity, if the auth middleware ran.
func FromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return auth.Identity{}, false
	}
	ident, ok := v.(auth.Identity)
	return ident, ok
}
