package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	_ "github.com/spotsnack/backend/docs" // swagger docs
	"github.com/spotsnack/backend/internal/auth"
	"github.com/spotsnack/backend/internal/bridge"
	"github.com/spotsnack/backend/internal/config"
	"github.com/spotsnack/backend/internal/gateway"
	"github.com/spotsnack/backend/internal/metrics"
	"github.com/spotsnack/backend/internal/users"
)

// @title Spot&Snack API
// @version 1.0
// @description Chat assistant and place vibes for Spot&Snack.
// @description Every chat or vibe request runs the chatbot process once and returns its JSON output.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token. The "token" cookie set by /auth/login works too.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tp, err := initTracer()
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	invocationMetrics, err := metrics.NewInvocationMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	interpreter := bridge.New(cfg.Interpreter, bridge.WithRecorder(invocationMetrics))
	log.Printf(`{"level":"info","message":"Interpreter configured","executable":"%s","script":"%s","workdir":"%s","timeout":"%s"}`,
		cfg.Interpreter.Bin, cfg.Interpreter.Script, cfg.Interpreter.WorkDir, cfg.Interpreter.Timeout)

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = connectDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database after retries: %v", err)
		}
		defer pool.Close()
	} else {
		log.Println(`{"level":"warn","message":"DATABASE_URL not set, account routes disabled"}`)
	}

	handler := gateway.NewHandler(interpreter)
	routes := gateway.Routes{
		Handler: handler,
		Socket:  gateway.NewChatSocket(handler, cfg.CORSOrigin),
	}

	if pool != nil {
		store := users.NewPostgresStore(pool)
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare users table: %v", err)
		}

		jwtManager, err := auth.NewJWTManager(cfg.JWTSecret)
		if err != nil {
			log.Fatalf("Failed to initialize JWT manager: %v", err)
		}

		routes.JWT = jwtManager
		routes.Auth = gateway.NewAuthHandler(store, jwtManager, cfg.GinMode == gin.ReleaseMode)
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(structuredLoggingMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not ready",
					"error":  "database connection failed",
				})
				return
			}
		}
		if err := interpreter.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"error":   "interpreter ping failed",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	gateway.RegisterRoutes(router, routes)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// chatbot calls hold the response open until the process exits
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Spot&Snack API server on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}

	log.Println("Server exited")
}

// connectDatabase opens the pool, retrying while the database starts up
func connectDatabase(dbURL string) (*pgxpool.Pool, error) {
	log.Println("Connecting to PostgreSQL database...")
	var pool *pgxpool.Pool
	var err error

	for i := 0; i < 10; i++ {
		pool, err = pgxpool.New(context.Background(), dbURL)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Connected to PostgreSQL database")
				return pool, nil
			}
			pool.Close()
		}
		log.Printf("Waiting for database... (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	return nil, err
}

// initTracer initializes OpenTelemetry tracing
func initTracer() (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}

// structuredLoggingMiddleware provides structured JSON logging for all requests
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		logEntry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		if userID := auth.UserID(c); userID != "" {
			logEntry["user_id"] = userID
		}

		if len(c.Errors) > 0 {
			logEntry["errors"] = c.Errors.String()
		}

		logJSON, _ := json.Marshal(logEntry)
		log.Println(string(logJSON))
	}
}
