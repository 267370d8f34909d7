package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"friendtalk/internal/handlers"
	"friendtalk/internal/middleware"
	"friendtalk/internal/observability"
	"friendtalk/internal/rabbitmq"
	"friendtalk/internal/repositories"
	"friendtalk/internal/store"
	"friendtalk/internal/telemetry"
	"friendtalk/internal/ws"
)

func main() {
	dataFile := getEnv("DATA_FILE", "data.json")
	documentStore, err := store.Open(dataFile)
	if err != nil {
		// A corrupt document is an operator problem; starting empty
		// would silently discard history.
		log.Fatalf("failed to open store: %v", err)
	}

	uploadDir := getEnv("UPLOAD_DIR", "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatalf("failed to create upload dir: %v", err)
	}

	if endpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""); endpoint != "" {
		shutdown, err := observability.InitTracing(context.Background(), "friendtalk", endpoint)
		if err != nil {
			log.Fatalf("failed to init tracing: %v", err)
		}
		defer shutdown(context.Background())
	}

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "friendtalk.events"))
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)

	audit := telemetry.NewAuditEmitter(publisher, getEnv("AUDIT_ROUTING_KEY", "audit.friendtalk"), "friendtalk", getEnv("ENVIRONMENT", "dev"))

	userRepo := repositories.NewUserRepo(documentStore)
	chatRepo := repositories.NewChatRepo(documentStore)
	messageRepo := repositories.NewMessageRepo(documentStore)

	hub := ws.NewHub(ws.BroadcastPolicy(getEnv("BROADCAST_POLICY", string(ws.PolicyRoomOnly))))

	authHandler := handlers.NewAuthHandler(userRepo, hub, audit)
	chatHandler := handlers.NewChatHandler(chatRepo, userRepo, hub, audit)
	uploadHandler := handlers.NewUploadHandler(messageRepo, chatRepo, userRepo, hub, uploadDir)
	wsHandler := ws.NewHandler(hub, userRepo, chatRepo, messageRepo)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware("friendtalk"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)
	router.POST("/logout", authHandler.Logout)
	router.GET("/users", chatHandler.ListUsers)
	router.GET("/chats/:username", chatHandler.ListChatsForUser)
	router.POST("/chats", chatHandler.CreateChat)
	router.POST("/upload", uploadHandler.Upload)
	router.Static("/uploads", uploadDir)

	router.GET("/ws", wsHandler.Handle)

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "3000")
	log.Printf("friendtalk listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
