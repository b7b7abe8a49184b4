package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/database"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/pkg/token"
)

// Session transport cookies. The session cookie carries the signed token;
// the identity cookie is a non-httpOnly summary for client-side UI. The two
// are always written together so their contents stay consistent.
const (
	SessionCookieName  = "visa_session"
	IdentityCookieName = "visa_identity"
)

// PrincipalContextKey is the key used to store the principal in Gin context
const PrincipalContextKey = "principal"

// Principal is the authenticated identity attached to the request context.
// Role and Permissions reflect the live database record, not the token.
type Principal struct {
	ID          uuid.UUID           `json:"id"`
	Kind        token.PrincipalKind `json:"kind"`
	Email       string              `json:"email"`
	FullName    string              `json:"full_name"`
	Role        string              `json:"role"`
	Permissions *models.Permissions `json:"permissions,omitempty"`
}

// IsSuperadmin reports whether the principal bypasses permission checks.
func (p Principal) IsSuperadmin() bool {
	return p.Kind == token.KindAdmin && p.Role == models.RoleSuperadmin
}

func unauthenticated(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"status": false, "message": message})
	c.Abort()
}

// RequireAdmin authenticates admin-area requests. It verifies the session
// cookie and re-fetches the admin record so role or permission changes take
// effect immediately, token contents notwithstanding.
func RequireAdmin(tokenService *token.Service, adminRepo *database.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifySessionCookie(c, tokenService)
		if !ok {
			return
		}

		if claims.Kind != token.KindAdmin {
			unauthenticated(c, "Admin session required")
			return
		}

		admin, err := adminRepo.GetByID(c.Request.Context(), claims.PrincipalID)
		if err != nil {
			// Principal vanished: token outlives the account until this lookup.
			unauthenticated(c, "Session is no longer valid")
			return
		}

		c.Set(PrincipalContextKey, Principal{
			ID:          admin.ID,
			Kind:        token.KindAdmin,
			Email:       admin.Email,
			FullName:    admin.FullName,
			Role:        admin.Role,
			Permissions: admin.Permissions,
		})

		c.Next()
	}
}

// RequireCustomer attributes identity to customer-area mutating actions.
func RequireCustomer(tokenService *token.Service, customerRepo *database.CustomerRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifySessionCookie(c, tokenService)
		if !ok {
			return
		}

		if claims.Kind != token.KindCustomer {
			unauthenticated(c, "Customer session required")
			return
		}

		customer, err := customerRepo.GetByID(c.Request.Context(), claims.PrincipalID)
		if err != nil {
			unauthenticated(c, "Session is no longer valid")
			return
		}

		c.Set(PrincipalContextKey, Principal{
			ID:       customer.ID,
			Kind:     token.KindCustomer,
			Email:    customer.Email,
			FullName: customer.FullName,
			Role:     customer.Role,
		})

		c.Next()
	}
}

func verifySessionCookie(c *gin.Context, tokenService *token.Service) (*token.Claims, bool) {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie == "" {
		unauthenticated(c, "Authentication required")
		return nil, false
	}

	claims, err := tokenService.Verify(cookie)
	if err != nil {
		if err == token.ErrExpiredToken {
			unauthenticated(c, "Session has expired. Please log in again.")
		} else {
			unauthenticated(c, "Invalid session")
		}
		return nil, false
	}

	return claims, true
}

// GetPrincipal retrieves the authenticated principal from the Gin context
func GetPrincipal(c *gin.Context) (Principal, bool) {
	value, exists := c.Get(PrincipalContextKey)
	if !exists {
		return Principal{}, false
	}

	principal, ok := value.(Principal)
	if !ok {
		return Principal{}, false
	}

	return principal, true
}

// SetSessionCookies writes the session token cookie and the parallel
// identity summary cookie in one place so every issuance keeps them
// consistent. maxAge is in seconds.
func SetSessionCookies(c *gin.Context, sessionToken string, p Principal, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, sessionToken, maxAge, "/", "", false, true)

	identity, err := json.Marshal(gin.H{
		"id":    p.ID,
		"email": p.Email,
		"name":  p.FullName,
	})
	if err != nil {
		return
	}
	c.SetCookie(IdentityCookieName, string(identity), maxAge, "/", "", false, false)
}

// ClearSessionCookies removes both session cookies on logout
func ClearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
	c.SetCookie(IdentityCookieName, "", -1, "/", "", false, false)
}
