package routes

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/velo/internal/config"
	"github.com/example/velo/internal/handlers"
	"github.com/example/velo/internal/middleware"
	"github.com/example/velo/internal/otp"
	"github.com/example/velo/internal/relay"
	"github.com/example/velo/internal/services"
	"github.com/example/velo/internal/store"
)

// Register wires up all HTTP and WebSocket routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	mailer := services.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	users := store.NewUsersStore(db)
	msgs := store.NewMessagesStore(db)

	verifier := otp.NewVerifier(users, mailer, cfg.OTPTTL, cfg.OTPMaxAttempts)
	router := relay.NewRouter(msgs, relay.NewHub())

	limiter := middleware.NewLimiterStore(cfg.RateLimitRPM, 3, time.Minute)

	authHandler := handlers.NewAuthHandler(users, verifier, cfg)
	chatHandler := handlers.NewChatHandler(users, msgs)
	wsHandler := handlers.NewWSHandler(router, cfg)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth", middleware.RateLimit(limiter))
	auth.Post("/register", authHandler.Register)
	auth.Post("/verify", authHandler.Verify)
	auth.Post("/login", authHandler.Login)

	// Protected query surface
	protected := api.Group("", middleware.AuthMiddleware(cfg))
	protected.Get("/chats/recent", chatHandler.RecentChats)
	protected.Get("/messages/:user_id", chatHandler.History)
	protected.Get("/users/search", chatHandler.SearchUsers)

	// Real-time surface
	app.Use("/ws", wsHandler.Upgrade)
	app.Get("/ws", websocket.New(wsHandler.Serve))
}
