package middleware

import (
	"errors"
	"net/http"

	"petrel/clients"
	"petrel/models"
	"petrel/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireServer admits only server sessions.
func RequireServer() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok || !session.IsServer {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSameUserOrServer admits the target user themselves or a server.
func RequireSameUserOrServer() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok || (!session.IsServer && session.UserID != c.Param("userid")) {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCustodian admits servers, the target user, or a caller the target
// has granted custodian (or root) to.
func RequireCustodian(gatekeeper clients.Gatekeeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
			c.Abort()
			return
		}

		targetUserID := c.Param("userid")
		if session.IsServer || session.UserID == targetUserID {
			c.Next()
			return
		}

		permissions, err := gatekeeper.GroupsForUser(c.Request.Context(), targetUserID)
		if err != nil {
			utils.GetLogger().Error("failed to check custodian access",
				zap.String("targetUserId", targetUserID), zap.Error(err))
			utils.JSONError(c, upstreamStatus(err), "Unauthorized", "")
			c.Abort()
			return
		}

		granted := permissions[session.UserID]
		if !granted.Has(models.CapabilityCustodian) && !granted.Has(models.CapabilityRoot) {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
			c.Abort()
			return
		}
		c.Next()
	}
}

func upstreamStatus(err error) int {
	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return http.StatusInternalServerError
}
