package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/server/handlers"
	"github.com/mamadbah2/repairdesk/internal/server/middleware"
)

// Handlers groups every HTTP adapter mounted by the router.
type Handlers struct {
	Users         *handlers.UserHandler
	Clients       *handlers.ClientHandler
	Pieces        *handlers.PieceHandler
	Interventions *handlers.InterventionHandler
	Factures      *handlers.FactureHandler
	Prets         *handlers.PretHandler
	Vehicules     *handlers.VehiculeHandler
	Formulaires   *handlers.FormulaireHandler
	Dashboard     *handlers.DashboardHandler
	Assistant     *handlers.AssistantHandler
	Maintenance   *handlers.MaintenanceHandler
	Files         *handlers.FileHandler
}

// Options configures the engine.
type Options struct {
	AllowedOrigins []string
	Auth           middleware.Authenticator
	Maintenance    middleware.MaintenanceReader
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/login", h.Users.Login)
	api.GET("/maintenance", h.Maintenance.Get)

	authed := api.Group("")
	authed.Use(middleware.Auth(opts.Auth))
	authed.Use(middleware.Maintenance(opts.Maintenance, logger))

	authed.POST("/auth/logout", h.Users.Logout)
	authed.GET("/auth/me", h.Users.Me)

	admin := authed.Group("")
	admin.Use(middleware.RequireAdmin())
	admin.PUT("/maintenance", h.Maintenance.Set)
	users := admin.Group("/users")
	{
		users.GET("", h.Users.List)
		users.POST("", h.Users.Create)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
	}

	clients := authed.Group("/clients")
	{
		clients.GET("", h.Clients.List)
		clients.POST("", h.Clients.Create)
		clients.GET("/:id", h.Clients.Get)
		clients.PUT("/:id", h.Clients.Update)
		clients.DELETE("/:id", h.Clients.Delete)
		clients.POST("/:id/appareils", h.Clients.AddAppareil)
		clients.PUT("/:id/appareils/:appareilId", h.Clients.UpdateAppareil)
		clients.DELETE("/:id/appareils/:appareilId", h.Clients.RemoveAppareil)
	}

	pieces := authed.Group("/pieces")
	{
		pieces.GET("", h.Pieces.List)
		pieces.POST("", h.Pieces.Create)
		pieces.GET("/alertes", h.Pieces.Alerts)
		pieces.GET("/export", h.Pieces.Export)
		pieces.GET("/stats", h.Dashboard.PieceStats)
		pieces.GET("/:id", h.Pieces.Get)
		pieces.PUT("/:id", h.Pieces.Update)
		pieces.DELETE("/:id", h.Pieces.Delete)
		pieces.PATCH("/:id/stock", h.Pieces.AdjustStock)
	}

	interventions := authed.Group("/interventions")
	{
		interventions.GET("", h.Interventions.List)
		interventions.POST("", h.Interventions.Create)
		interventions.GET("/export", h.Interventions.Export)
		interventions.GET("/stats", h.Dashboard.InterventionStats)
		interventions.GET("/:id", h.Interventions.Get)
		interventions.PUT("/:id", h.Interventions.Update)
		interventions.DELETE("/:id", h.Interventions.Delete)
		interventions.PATCH("/:id/statut", h.Interventions.UpdateStatut)
		interventions.POST("/:id/photos", h.Interventions.AddPhoto)
		interventions.GET("/:id/pdf", h.Interventions.PDF)
	}

	factures := authed.Group("/factures")
	{
		factures.GET("", h.Factures.List)
		factures.POST("", h.Factures.Create)
		factures.GET("/stats", h.Dashboard.FactureStats)
		factures.GET("/:id", h.Factures.Get)
		factures.PUT("/:id", h.Factures.Update)
		factures.DELETE("/:id", h.Factures.Delete)
		factures.PATCH("/:id/statut", h.Factures.UpdateStatut)
		factures.GET("/:id/pdf", h.Factures.PDF)
	}

	devices := authed.Group("/appareils-pret")
	{
		devices.GET("", h.Prets.ListDevices)
		devices.POST("", h.Prets.CreateDevice)
		devices.GET("/:id", h.Prets.GetDevice)
		devices.PUT("/:id", h.Prets.UpdateDevice)
		devices.DELETE("/:id", h.Prets.DeleteDevice)
	}

	prets := authed.Group("/prets")
	{
		prets.GET("", h.Prets.List)
		prets.POST("", h.Prets.Create)
		prets.GET("/stats", h.Dashboard.PretStats)
		prets.GET("/:id", h.Prets.Get)
		prets.PUT("/:id", h.Prets.Update)
		prets.DELETE("/:id", h.Prets.Delete)
		prets.POST("/:id/retour", h.Prets.Return)
	}

	vehicules := authed.Group("/vehicules")
	{
		vehicules.GET("", h.Vehicules.List)
		vehicules.POST("", h.Vehicules.Create)
		vehicules.GET("/stats", h.Vehicules.Stats)
		vehicules.GET("/:id", h.Vehicules.Get)
		vehicules.PUT("/:id", h.Vehicules.Update)
		vehicules.DELETE("/:id", h.Vehicules.Delete)
		vehicules.POST("/:id/kilometrage", h.Vehicules.AddKilometrage)
		vehicules.POST("/:id/carburant", h.Vehicules.AddCarburant)
		vehicules.POST("/:id/documents", h.Vehicules.AddDocument)
	}

	formulaires := authed.Group("/formulaires")
	{
		formulaires.GET("", h.Formulaires.List)
		formulaires.POST("", h.Formulaires.Create)
		formulaires.GET("/:id", h.Formulaires.Get)
		formulaires.PUT("/:id", h.Formulaires.Update)
		formulaires.DELETE("/:id", h.Formulaires.Delete)
	}

	dashboard := authed.Group("/dashboard")
	{
		dashboard.GET("", h.Dashboard.Dashboard)
		dashboard.GET("/revenus", h.Dashboard.Revenue)
		dashboard.GET("/alertes", h.Dashboard.Alerts)
	}

	chat := authed.Group("/assistant")
	{
		chat.POST("/chat", h.Assistant.Chat)
		chat.GET("/conversations", h.Assistant.Conversations)
		chat.GET("/conversations/:id", h.Assistant.Conversation)
		chat.DELETE("/conversations/:id", h.Assistant.DeleteConversation)
	}

	authed.GET("/fichiers/*key", h.Files.Download)

	logger.Info("router initialized", zap.Strings("allowed_origins", opts.AllowedOrigins))

	return r
}

// corsConfig allows the listed origins. An empty list or "*" allows any
// origin, without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
