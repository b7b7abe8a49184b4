package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// RequireSuperadmin restricts a route to superadmin accounts. Permission
// flags never widen subadmin access, so account administration sits behind
// this gate rather than behind RequirePermissions.
func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := GetPrincipal(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "Authentication required",
			})
			c.Abort()
			return
		}

		if !principal.IsSuperadmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  false,
				"message": "Superadmin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequirePermissions declares the permission flags a route needs. With no
// flags declared the route is open to any authenticated admin. Superadmins
// pass unconditionally; permissions are purely additive restrictions on
// subadmins.
//
// Two subadmin failures are distinguished: an account with no permission
// set at all, and an account whose set is missing a declared flag.
func RequirePermissions(flags ...models.PermissionFlag) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := GetPrincipal(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "Authentication required",
			})
			c.Abort()
			return
		}

		if len(flags) == 0 || principal.IsSuperadmin() {
			c.Next()
			return
		}

		if principal.Permissions == nil {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  false,
				"message": "No permissions assigned to this account",
			})
			c.Abort()
			return
		}

		for _, flag := range flags {
			if !principal.Permissions.Has(flag) {
				c.JSON(http.StatusForbidden, gin.H{
					"status":  false,
					"message": "Insufficient permission: " + string(flag),
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
