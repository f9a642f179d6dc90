package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"petrel/clients"
	"petrel/models"
	"petrel/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Context key under which the verified caller lands.
const TokenDataKey = "tokenData"

// How long a verified token stays in the cache. Short on purpose: a revoked
// session should not outlive this by much.
const tokenCacheTTL = time.Minute

const tokenCachePrefix = "session:"

// TokenAuth verifies the session token on every request. Locally minted
// server tokens short-circuit; everything else goes to the user directory,
// with verified results cached briefly in Redis. The resulting TokenData is
// stored on the context for downstream access checks.
func TokenAuth(userAPI clients.UserAPI, authCache *redis.Client, serverSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(clients.SessionTokenHeader)
		if token == "" {
			utils.JSONError(c, http.StatusUnauthorized, "No token", "")
			c.Abort()
			return
		}

		if serverName, err := utils.ParseServerToken(token, serverSecret); err == nil {
			c.Set(TokenDataKey, models.TokenData{UserID: serverName, IsServer: true})
			c.Next()
			return
		}

		if data, ok := cachedTokenData(c.Request.Context(), authCache, token); ok {
			c.Set(TokenDataKey, data)
			c.Next()
			return
		}

		data, err := userAPI.CheckToken(c.Request.Context(), token)
		if err != nil {
			utils.GetLogger().Warn("token check failed", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "Invalid token", "")
			c.Abort()
			return
		}

		cacheTokenData(c.Request.Context(), authCache, token, data)
		c.Set(TokenDataKey, data)
		c.Next()
	}
}

// SessionFromContext returns the verified caller placed by TokenAuth.
func SessionFromContext(c *gin.Context) (models.TokenData, bool) {
	value, exists := c.Get(TokenDataKey)
	if !exists {
		return models.TokenData{}, false
	}
	data, ok := value.(models.TokenData)
	return data, ok
}

func cachedTokenData(ctx context.Context, cache *redis.Client, token string) (models.TokenData, bool) {
	if cache == nil {
		return models.TokenData{}, false
	}
	raw, err := cache.Get(ctx, tokenCachePrefix+utils.HashToken(token)).Result()
	if err != nil {
		return models.TokenData{}, false
	}
	var data models.TokenData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return models.TokenData{}, false
	}
	return data, true
}

func cacheTokenData(ctx context.Context, cache *redis.Client, token string, data models.TokenData) {
	if cache == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	// Cache misses on write are not worth failing the request over.
	_ = cache.Set(ctx, tokenCachePrefix+utils.HashToken(token), raw, tokenCacheTTL).Err()
}
