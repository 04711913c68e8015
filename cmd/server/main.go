package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bookswap/internal/api"
	"bookswap/internal/auth"
	"bookswap/internal/chat"
	"bookswap/internal/pairing"
	"bookswap/internal/storage"
	"bookswap/internal/store"
	internalWs "bookswap/internal/websocket"
)

func main() {
	// Log to both file and console
	logFile, err := os.OpenFile("server.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Store: postgres by default, memory for local development
	storeTypeStr := os.Getenv("STORE_TYPE")
	if storeTypeStr == "" {
		storeTypeStr = "postgres"
	}
	storeType := store.StoreType(storeTypeStr)

	dbURL := os.Getenv("DATABASE_URL")
	if storeType == store.PostgreSQL && dbURL == "" {
		log.Fatal("DATABASE_URL is required for the postgres store")
	}

	db, err := store.NewStore(storeType, dbURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()
	log.Printf("Connected to %s store successfully", storeType)

	// Token service: stateless JWTs or revocable Redis sessions
	var tokens auth.TokenService
	switch os.Getenv("AUTH_MODE") {
	case "", "jwt":
		jwtSecret := os.Getenv("JWT_SECRET")
		if jwtSecret == "" {
			log.Fatal("JWT_SECRET environment variable is required")
		}
		auth.InitJWTKey([]byte(jwtSecret))
		tokens = auth.NewJWTService()
	case "redis":
		redisAddr := os.Getenv("REDIS_ADDR")
		if redisAddr == "" {
			log.Fatal("REDIS_ADDR is required for redis sessions")
		}
		tokens = auth.NewRedisSessionStore(redisAddr, os.Getenv("REDIS_PASSWORD"), 24*time.Hour)
	default:
		log.Fatalf("Unsupported AUTH_MODE: %s", os.Getenv("AUTH_MODE"))
	}

	// Object store for cover photos is optional
	var objects storage.ObjectStore
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		objects, err = storage.NewMinioStore(
			endpoint,
			os.Getenv("MINIO_ACCESS_KEY"),
			os.Getenv("MINIO_SECRET_KEY"),
			envOrDefault("MINIO_BUCKET", "bookswap-covers"),
			os.Getenv("MINIO_USE_SSL") == "true",
		)
		if err != nil {
			log.Fatalf("Failed to initialize object store: %v", err)
		}
		log.Println("Object store connected, cover uploads enabled")
	} else {
		log.Println("MINIO_ENDPOINT not set, cover uploads disabled")
	}

	router := gin.Default()

	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	wsManager := internalWs.NewManager()
	go wsManager.Run()

	engine := pairing.NewEngine(db)
	chatService := chat.NewService(db, wsManager)

	authHandler := api.NewAuthHandler(db, tokens)
	bookHandler := api.NewBookHandler(db, engine, objects)
	chatHandler := api.NewChatHandler(chatService)

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	// Protected routes
	authorized := router.Group("/api")
	authorized.Use(api.AuthMiddleware(tokens))
	{
		authorized.GET("/auth/me", authHandler.GetMe)
		authorized.POST("/auth/logout", authHandler.Logout)

		authorized.GET("/books", bookHandler.ListBooks)
		authorized.POST("/books", bookHandler.CreateBook)
		authorized.DELETE("/books/:id", bookHandler.DeleteBook)
		authorized.POST("/books/:id/like", bookHandler.LikeBook)

		authorized.GET("/chatrooms", chatHandler.ListRooms)
		authorized.GET("/chatrooms/:id/messages", chatHandler.GetMessages)
		authorized.POST("/chatrooms/:id/messages", chatHandler.SendMessage)

		if objects != nil {
			uploadHandler := api.NewUploadHandler(objects)
			authorized.POST("/uploads/cover", uploadHandler.CreateCoverUploadURL)
		}
	}

	// WebSocket route accepts the token as a query parameter, since
	// browser WebSocket clients cannot set an Authorization header.
	router.GET("/ws", func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		identity, err := tokens.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("userID", identity.UserID)
		wsManager.HandleWebSocket(c)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
