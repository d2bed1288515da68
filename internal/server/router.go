// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"ecoaceite/internal/config"
	"ecoaceite/internal/handlers"
	"ecoaceite/internal/middleware"
	"ecoaceite/internal/models"
	"ecoaceite/internal/notify"
	"ecoaceite/internal/pdf"
	"ecoaceite/internal/services"

	_ "ecoaceite/internal/docs" // swagger spec
)

// Deps are the collaborators the router needs beyond the database.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Notifier notify.Notifier
	Verifier middleware.ExternalVerifier
	Pages    handlers.PageStore
	Invoices pdf.InvoiceGenerator
}

// NewRouter wires services, handlers and middleware into a gin engine.
func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	db := deps.DB
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}

	// Services
	userService := services.NewUserService(db)
	roleResolver := services.NewRoleService(db, cfg.AdminEmails)
	usuarioService := services.NewUsuarioService(db)
	auditService := services.NewAuditService(db)
	ingresoService := services.NewIngresoService(db, notifier)
	gastoService := services.NewGastoService(db)
	projectService := services.NewProjectService(db)
	convocatoriaService := services.NewConvocatoriaService(db, notifier)
	signupService := services.NewSignupService(db, notifier)
	contactService := services.NewContactService(db, notifier)
	dashboardService := services.NewDashboardService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, roleResolver, auditService)
	adminHandler := handlers.NewAdminHandler(userService, usuarioService, auditService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	ingresoHandler := handlers.NewIngresoHandler(ingresoService, deps.Invoices, auditService)
	gastoHandler := handlers.NewGastoHandler(gastoService, auditService)
	projectHandler := handlers.NewProjectHandler(projectService, auditService)
	convocatoriaHandler := handlers.NewConvocatoriaHandler(convocatoriaService, auditService)
	signupHandler := handlers.NewSignupHandler(signupService, auditService)
	contactHandler := handlers.NewContactHandler(contactService)
	contentHandler := handlers.NewContentHandler(deps.Pages)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(corsMiddleware(cfg.CORSOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	v1.GET("/pages", contentHandler.ListPages)
	v1.GET("/pages/:slug", contentHandler.GetPage)
	v1.POST("/signups", signupHandler.CreateSignup)
	v1.POST("/contact", contactHandler.CreateMessage)
	v1.GET("/convocatorias", convocatoriaHandler.ListPublic)
	v1.GET("/convocatorias/:id", convocatoriaHandler.GetPublic)

	// Pipeline routes
	internal := v1.Group("/internal")
	internal.Use(middleware.APIKeyAuth(cfg.PipelineAPIKey))
	internal.POST("/convocatorias/import", convocatoriaHandler.Import)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Verifier))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/session", authHandler.Session)
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.POST("/me/signups", signupHandler.CreateSignup)
	protected.POST("/convocatorias/:id/solicitudes", convocatoriaHandler.CreateSolicitud)
	protected.GET("/solicitudes/mine", convocatoriaHandler.ListMine)

	// Dashboards
	dashboards := protected.Group("/dashboards")
	dashboards.GET("/admin", middleware.RequireDashboard(roleResolver, models.DashboardAdmin), dashboardHandler.Admin)
	dashboards.GET("/usuario", middleware.RequireDashboard(roleResolver, models.DashboardUsuario), dashboardHandler.Usuario)
	dashboards.GET("/administrador", middleware.RequireDashboard(roleResolver, models.DashboardAdministrador), dashboardHandler.Administrador)
	dashboards.GET("/comercial", middleware.RequireDashboard(roleResolver, models.DashboardComercial), dashboardHandler.Comercial)

	// Back office: finance, projects, grants and accounts
	admin := protected.Group("/")
	admin.Use(middleware.RequireDashboard(roleResolver, models.DashboardAdmin))

	admin.GET("/finance/summary", dashboardHandler.FinanceSummary)

	ingresos := admin.Group("/ingresos")
	ingresos.POST("", ingresoHandler.CreateIngreso)
	ingresos.GET("", ingresoHandler.ListIngresos)
	ingresos.GET("/export.csv", ingresoHandler.ExportIngresos)
	ingresos.GET("/:id", ingresoHandler.GetIngreso)
	ingresos.PUT("/:id", ingresoHandler.UpdateIngreso)
	ingresos.DELETE("/:id", ingresoHandler.DeleteIngreso)
	ingresos.PATCH("/:id/cobrar", ingresoHandler.MarkCobrada)
	ingresos.GET("/:id/factura.pdf", ingresoHandler.Invoice)

	gastos := admin.Group("/gastos")
	gastos.POST("", gastoHandler.CreateGasto)
	gastos.GET("", gastoHandler.ListGastos)
	gastos.GET("/export.csv", gastoHandler.ExportGastos)
	gastos.GET("/:id", gastoHandler.GetGasto)
	gastos.PUT("/:id", gastoHandler.UpdateGasto)
	gastos.DELETE("/:id", gastoHandler.DeleteGasto)
	gastos.PATCH("/:id/pagar", gastoHandler.MarkPagada)

	projects := admin.Group("/projects")
	projects.POST("", projectHandler.CreateProject)
	projects.GET("", projectHandler.ListProjects)
	projects.GET("/:id", projectHandler.GetProject)
	projects.PUT("/:id", projectHandler.UpdateProject)
	projects.DELETE("/:id", projectHandler.DeleteProject)
	projects.GET("/:id/financials", projectHandler.GetProjectFinancials)

	backoffice := admin.Group("/admin")
	backoffice.GET("/convocatorias", convocatoriaHandler.ListAll)
	backoffice.POST("/convocatorias", convocatoriaHandler.CreateConvocatoria)
	backoffice.PUT("/convocatorias/:id", convocatoriaHandler.UpdateConvocatoria)
	backoffice.DELETE("/convocatorias/:id", convocatoriaHandler.DeleteConvocatoria)
	backoffice.GET("/solicitudes", convocatoriaHandler.ListSolicitudes)
	backoffice.PATCH("/solicitudes/:id/estado", convocatoriaHandler.UpdateSolicitudEstado)
	backoffice.GET("/signups", signupHandler.ListSignups)
	backoffice.PATCH("/signups/:id/estado", signupHandler.UpdateSignupEstado)
	backoffice.GET("/contact", contactHandler.ListMessages)
	backoffice.GET("/users", adminHandler.ListUsers)
	backoffice.PATCH("/users/:id/role", adminHandler.ChangeRole)
	backoffice.PATCH("/users/:id/active", adminHandler.SetActive)
	backoffice.PATCH("/users/:id/email-verified", adminHandler.SetEmailVerified)
	backoffice.GET("/usuarios", adminHandler.ListUsuarios)
	backoffice.POST("/usuarios", adminHandler.CreateUsuario)
	backoffice.DELETE("/usuarios/:id", adminHandler.DeleteUsuario)
	backoffice.GET("/audit", adminHandler.ListAuditLogs)

	// Commercial follow-up
	comercial := protected.Group("/comercial")
	comercial.Use(middleware.RequireDashboard(roleResolver, models.DashboardComercial))
	comercial.GET("/signups", signupHandler.ListCommercialSignups)
	comercial.PATCH("/signups/:id/estado", signupHandler.UpdateCommercialSignupEstado)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
