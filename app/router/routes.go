// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/templaito/templaito/app/dto"
	"github.com/templaito/templaito/app/handlers"
	"github.com/templaito/templaito/app/middleware"
	"github.com/templaito/templaito/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                *fiber.App
	authHandler        handlers.AuthHandlerInterface
	adminAuthHandler   handlers.AdminAuthHandlerInterface
	clientHandler      handlers.ClientHandlerInterface
	integrationHandler handlers.IntegrationHandlerInterface
	templateHandler    handlers.TemplateHandlerInterface
	campaignHandler    handlers.CampaignHandlerInterface
	promptAdminHandler handlers.PromptAdminHandlerInterface
	authMiddleware     *middleware.AuthMiddleware
	allowedOrigins     []string
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	authHandler handlers.AuthHandlerInterface,
	adminAuthHandler handlers.AdminAuthHandlerInterface,
	clientHandler handlers.ClientHandlerInterface,
	integrationHandler handlers.IntegrationHandlerInterface,
	templateHandler handlers.TemplateHandlerInterface,
	campaignHandler handlers.CampaignHandlerInterface,
	promptAdminHandler handlers.PromptAdminHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	allowedOrigins []string,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "TemplAIto API",
		ServerHeader: "TemplAIto",
		ErrorHandler: errorHandler,
		BodyLimit:    8 * 1024 * 1024, // generated HTML payloads can be large
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                app,
		authHandler:        authHandler,
		adminAuthHandler:   adminAuthHandler,
		clientHandler:      clientHandler,
		integrationHandler: integrationHandler,
		templateHandler:    templateHandler,
		campaignHandler:    campaignHandler,
		promptAdminHandler: promptAdminHandler,
		authMiddleware:     authMiddleware,
		allowedOrigins:     allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	// API routes
	api := r.app.Group("/api/v1")

	// Health check and Prometheus scrape endpoints (no rate limiting)
	api.Get("/health", r.healthCheck)
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// General rate limiting for all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        2000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	}))

	auth.Post("/login", r.authHandler.Login)
	auth.Post("/refresh", r.authHandler.RefreshToken)

	// Admin auth, same limiter budget as user auth
	adminAuth := api.Group("/admin/auth")
	adminAuth.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	}))

	adminAuth.Get("/captcha", r.adminAuthHandler.InitCaptcha)
	adminAuth.Post("/login", r.adminAuthHandler.Login)

	// Client management and everything scoped under a client
	clients := api.Group("/clients", r.authMiddleware.Authenticate())
	clients.Post("/", r.clientHandler.CreateClient)
	clients.Get("/", r.clientHandler.ListClients)
	clients.Get("/:uuid", r.clientHandler.GetClient)
	clients.Put("/:uuid", r.clientHandler.UpdateClient)
	clients.Post("/:uuid/archive", r.clientHandler.SetArchived)
	clients.Get("/:uuid/countries", r.clientHandler.ListCountryConfigs)
	clients.Put("/:uuid/countries/:country", r.clientHandler.UpdateCountryConfig)

	// ESP integration lifecycle
	clients.Get("/:uuid/integration", r.integrationHandler.Get)
	clients.Post("/:uuid/integration", r.integrationHandler.Connect)
	clients.Post("/:uuid/integration/refresh", r.integrationHandler.Refresh)
	clients.Delete("/:uuid/integration", r.integrationHandler.Disconnect)

	// Campaign publishing and metrics
	clients.Post("/:uuid/campaigns", r.campaignHandler.PublishCampaign)
	clients.Get("/:uuid/campaigns", r.campaignHandler.ListCampaigns)
	clients.Get("/:uuid/campaigns/:campaign_uuid", r.campaignHandler.GetCampaign)
	clients.Post("/:uuid/campaigns/:campaign_uuid/cancel", r.campaignHandler.CancelCampaign)
	clients.Post("/:uuid/metrics", r.campaignHandler.GetMetrics)
	clients.Get("/:uuid/metrics/export", r.campaignHandler.ExportMetrics)

	// Template generation
	templates := api.Group("/templates", r.authMiddleware.Authenticate())
	templates.Post("/generate", r.templateHandler.GenerateTemplate)
	templates.Get("/thumbnail", r.templateHandler.Thumbnail)

	// Admin-only prompt template management
	prompts := api.Group("/admin/prompts", r.authMiddleware.AdminAuthenticate())
	prompts.Post("/", r.promptAdminHandler.CreatePrompt)
	prompts.Get("/", r.promptAdminHandler.ListPrompts)
	prompts.Get("/:prompt_uuid", r.promptAdminHandler.GetPrompt)
	prompts.Put("/:prompt_uuid", r.promptAdminHandler.UpdatePrompt)
	prompts.Get("/:prompt_uuid/stats", r.promptAdminHandler.GetPromptStats)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data: https:; connect-src 'self' https:; frame-ancestors 'none';",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	// CORS middleware
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.allowedOrigins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression, skipped for binary responses like thumbnails and XLSX exports
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			contentType := c.Get("Content-Type")
			return contentType == "image/png" ||
				contentType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		},
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health" || c.Path() == "/metrics"
		},
	}))

	// Prometheus request metrics
	r.app.Use(middleware.Metrics())

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "templaito-api",
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
