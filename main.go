package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petrel/clients"
	"petrel/config"
	"petrel/database"
	metadataRepo "petrel/database/repository/metadata"
	"petrel/handlers"
	"petrel/middleware"
	"petrel/routes"
	metadata "petrel/services/metadata"
	"petrel/utils"

	"github.com/gin-gonic/gin"
)

const serverTokenLifetime = time.Hour

func main() {
	config.LoadConfig()
	utils.InitializeLogger(config.GetEnv(), config.AppConfig.LogLevel)
	logger := utils.GetLogger()

	cipher, err := metadataRepo.NewDocumentCipher(config.AppConfig.SaltDeploy)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	if config.AppConfig.ServerSecret == "" {
		logger.Sugar().Fatal("main: a server secret must be specified")
	}

	mongoClient, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	repo, err := metadataRepo.NewMongoMetadataRepo(mongoClient, config.AppConfig.DatabaseName, cipher)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize metadata repository: %v", err)
	}

	authCache, err := utils.NewAuthCache(
		config.AppConfig.RedisAddr,
		config.AppConfig.RedisPassword,
		config.AppConfig.RedisAuthDB,
	)
	if err != nil {
		// The token cache is an optimization; the service runs without it.
		logger.Sugar().Warnf("main: session-token cache unavailable: %v", err)
		authCache = nil
	}

	serverToken := func(ctx context.Context) (string, error) {
		return utils.GenerateServerToken(
			config.AppConfig.ServerName,
			config.AppConfig.ServerSecret,
			serverTokenLifetime,
		)
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	userAPI := clients.NewUserAPIClient(httpClient, config.AppConfig.UserAPIURL, serverToken)
	gatekeeper := clients.NewGatekeeperClient(httpClient, config.AppConfig.GatekeeperURL, serverToken)

	service := &metadata.DefaultMetadataService{
		Repo:       repo,
		Users:      userAPI,
		Gatekeeper: gatekeeper,
	}
	handler := handlers.NewMetadataHandler(service)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimit(config.AppConfig.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handler, routes.Deps{
		UserAPI:      userAPI,
		Gatekeeper:   gatekeeper,
		AuthCache:    authCache,
		ServerSecret: config.AppConfig.ServerSecret,
	})

	srv := &http.Server{
		Addr:    "0.0.0.0:" + config.AppConfig.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: error closing mongo connection: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
