package middleware

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mobilemart/mobilemart-golang/internal/auth"
)

// Authenticate is the single access-control gate. It validates the
// bearer token, resolves the subject against the users table, and —
// when one or more roles are given — enforces that the user holds one
// of them. On success the context carries 'userID' and 'userRole' for
// the handlers downstream.
//
//	Authenticate(db)                      // any authenticated user
//	Authenticate(db, models.RoleAdmin)    // admin only
//	Authenticate(db, models.RoleCustomer) // customer only
func Authenticate(db *sql.DB, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authentication required. No token provided.",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid token format (must be Bearer)",
			})
			c.Abort()
			return
		}

		// 2. --- Validate Token ---
		userID, _, err := auth.ValidateToken(parts[1])
		if err != nil {
			reason := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = "Token expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": reason})
			c.Abort()
			return
		}

		// 3. --- Resolve Subject ---
		// The role check uses the stored role, not the token claim, so
		// a role change takes effect without waiting for token expiry.
		var role string
		err = db.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "User not found. Invalid token.",
				})
				c.Abort()
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Database error checking user",
			})
			c.Abort()
			return
		}

		// 4. --- Enforce Role ---
		if len(roles) > 0 {
			allowed := false
			for _, r := range roles {
				if role == r {
					allowed = true
					break
				}
			}
			if !allowed {
				c.JSON(http.StatusForbidden, gin.H{
					"success": false,
					"error":   "Access denied. Insufficient privileges.",
				})
				c.Abort()
				return
			}
		}

		// 5. --- Success ---
		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}
