package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/personnel-directory/messaging-api/internal/api/handler"
	"github.com/personnel-directory/messaging-api/internal/api/middleware"
	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// multipartOverhead is added to the media limit for form fields and boundaries.
const multipartOverhead = 64 << 10

// Services are the use cases exposed over HTTP.
type Services struct {
	Verification ports.VerificationService
	Auth         ports.AuthService
	Personnel    ports.PersonnelService
	Messages     ports.MessageService
	Threads      ports.ThreadService
	Blobs        ports.BlobStore
}

// Options tune the transport layer.
type Options struct {
	// RateLimitPerMinute bounds unauthenticated verification and auth calls per client IP.
	RateLimitPerMinute int
	// MaxUploadBytes is the largest attachment accepted; request bodies are capped just above it.
	MaxUploadBytes int64
	// Checks are run by the readiness probe, keyed by dependency name.
	Checks map[string]handler.DependencyCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoprometheus.NewMiddleware("personnel"))

	// --- Handlers ---
	verificationHandler := handler.NewVerificationHandler(svc.Verification)
	authHandler := handler.NewAuthHandler(svc.Auth)
	personnelHandler := handler.NewPersonnelHandler(svc.Personnel)
	messageHandler := handler.NewMessageHandler(svc.Messages)
	threadHandler := handler.NewThreadHandler(svc.Threads)
	mediaHandler := handler.NewMediaHandler(svc.Blobs)

	requireAuth := middleware.Auth(svc.Auth)
	limiter := rateLimiter(opts.RateLimitPerMinute)
	bodyLimit := echomiddleware.BodyLimit(fmt.Sprintf("%dK", (opts.MaxUploadBytes+multipartOverhead)/1024+1))

	v1 := e.Group("/v1")

	// --- Verification flow (public, rate limited) ---
	verification := v1.Group("/verification", limiter)
	verification.POST("/service-number", verificationHandler.CheckServiceNumber)
	verification.POST("/official-name", verificationHandler.ConfirmOfficialName)
	verification.POST("/phone", verificationHandler.ConfirmPhone)
	verification.POST("/email", verificationHandler.ConfirmEmail)
	verification.POST("/otp", verificationHandler.VerifyOTP)
	verification.POST("/password", verificationHandler.SetPassword)

	// --- Auth ---
	auth := v1.Group("/auth", limiter)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/password-reset", authHandler.RequestPasswordReset)
	auth.POST("/password-reset/:uid/:token", authHandler.ResetPassword)
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.PUT("/password", authHandler.ChangePassword, requireAuth)

	// --- Personnel directory ---
	personnel := v1.Group("/personnel", requireAuth)
	personnel.POST("", personnelHandler.Register, middleware.RequireRole(domain.RoleAdmin))
	personnel.GET("/me", personnelHandler.Me)
	personnel.PUT("/me", personnelHandler.UpdateMe)
	personnel.GET("/:id", personnelHandler.Get)

	// --- Direct messages ---
	messages := v1.Group("/messages", requireAuth, bodyLimit)
	messages.POST("", messageHandler.Send)
	messages.GET("", messageHandler.Inbox)
	messages.POST("/read", messageHandler.MarkRead)
	messages.POST("/delete", messageHandler.Delete)
	messages.POST("/forward", messageHandler.Forward)
	messages.POST("/react", messageHandler.React)
	messages.POST("/star", messageHandler.Star)
	messages.POST("/unstar", messageHandler.Unstar)
	messages.GET("/shared/:contact_id", messageHandler.Shared)
	messages.GET("/:id/reactions", messageHandler.Reactions)

	// --- Threads ---
	threads := v1.Group("/threads", requireAuth, bodyLimit)
	threads.POST("", threadHandler.Create)
	threads.POST("/group", threadHandler.CreateGroup)
	threads.GET("", threadHandler.ListMine)
	threads.GET("/:id/messages", threadHandler.Messages)
	threads.POST("/:id/messages", threadHandler.Send)
	threads.POST("/:id/participants", threadHandler.AddParticipant)
	threads.POST("/:id/participants/remove", threadHandler.RemoveParticipant)

	// --- Media ---
	v1.GET("/media/:id", mediaHandler.Download, requireAuth)

	// --- Operations (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(opts.Checks)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	return e
}

// rateLimiter allows perMinute requests per client IP with an equal burst.
func rateLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 30
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiter(store)
}
