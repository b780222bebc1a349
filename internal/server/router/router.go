package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/domain/models"
	"github.com/mamadbah2/amuvet/internal/server/handlers"
	"github.com/mamadbah2/amuvet/internal/session"
)

// New wires the Gin engine with required routes and middlewares.
func New(auth *handlers.AuthHandler, cascade *handlers.CascadeHandler, treatment *handlers.TreatmentHandler, audit *handlers.AuditHandler, sessions *session.Manager, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/auth/login", auth.Login)
	r.POST("/auth/register", auth.Register)
	r.POST("/auth/logout", auth.Logout)
	r.POST("/auth/profile", requireSession(sessions), auth.UpdateProfile)

	sel := r.Group("/cascade", requireSession(sessions))
	sel.GET("/farms", cascade.Farms)
	sel.POST("/farm", cascade.SelectFarm)
	sel.POST("/flock", cascade.SelectFlock)
	sel.POST("/animal", cascade.SelectAnimal)
	sel.GET("/selection", cascade.Selection)
	sel.GET("/drugs", cascade.Drugs)

	tr := r.Group("/treatments", requireSession(sessions))
	tr.GET("", treatment.List)
	tr.POST("", treatment.Submit)

	vet := tr.Group("", requireRole(sessions, models.RoleVet))
	vet.POST("/:id/approve", treatment.Approve)
	vet.POST("/:id/reject", treatment.Reject)
	vet.GET("/:id/review", treatment.StartReview)
	vet.POST("/:id/review", treatment.ConfirmReview)
	vet.DELETE("/:id/review", treatment.DiscardReview)

	r.GET("/audit/decisions", requireSession(sessions), requireRole(sessions, models.RoleRegulator), audit.Decisions)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// requireSession rejects requests when nobody is logged in.
func requireSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := sessions.Current(); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// requireRole gates role-specific workflows, e.g. vet decisions.
func requireRole(sessions *session.Manager, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
