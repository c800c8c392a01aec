package middleware

import (
	"net/http"
	"strings"

	"clinq/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthStaffMiddleware guards the staff-side endpoints: reception booking,
// queue management and doctor controls. The validated clinic id is stored on
// the context so handlers can scope their queries.
func JWTAuthStaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
					"code":  500,
				})
			}
		}()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		claims, err := utils.ExtractStaffClaims(tokenString)
		if err != nil || claims.StaffID == "" || claims.ClinicID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		if claims.Role != "staff" && claims.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Staff access required",
				"code":  0,
			})
			return
		}

		c.Set("staffID", claims.StaffID)
		c.Set("clinicID", claims.ClinicID)
		c.Set("staffRole", claims.Role)
		c.Next()
	}
}
