package routes

import (
	"time"

	"petrel/clients"
	"petrel/handlers"
	"petrel/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Deps is everything route registration needs beyond the handler itself.
type Deps struct {
	UserAPI      clients.UserAPI
	Gatekeeper   clients.Gatekeeper
	AuthCache    *redis.Client
	ServerSecret string
}

// RegisterRoutes mounts the metadata API on the router.
func RegisterRoutes(r *gin.Engine, h *handlers.MetadataHandler, deps Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", clients.SessionTokenHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	auth := middleware.TokenAuth(deps.UserAPI, deps.AuthCache, deps.ServerSecret)

	r.GET("/status", h.StatusHandler)
	r.GET("/collections", h.CollectionsHandler)

	// Unified related-users listing.
	r.GET("/users/:userid/users", auth, middleware.RequireCustodian(deps.Gatekeeper), h.ListUsersHandler)

	// Private pairs are server-only.
	r.GET("/:userid/private/:name", auth, middleware.RequireServer(), h.GetPrivatePairHandler)
	r.DELETE("/:userid/private/:name", auth, middleware.RequireServer(), h.DeletePrivatePairHandler)

	// Collection contents at the top level of the document.
	r.GET("/:userid/:collection", auth, h.GetCollectionHandler)
	r.POST("/:userid/:collection", auth, middleware.RequireCustodian(deps.Gatekeeper), h.UpdateCollectionHandler)
	r.PUT("/:userid/:collection", auth, middleware.RequireCustodian(deps.Gatekeeper), h.UpdateCollectionHandler)
	r.DELETE("/:userid/:collection", auth, middleware.RequireCustodian(deps.Gatekeeper), h.DeleteCollectionHandler)
}
