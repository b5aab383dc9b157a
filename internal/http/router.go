package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
// mailH es opcional: sin journal de Redis no se publica /mail/failures.
func NewRouter(
	logger *zap.Logger,
	accountH *AccountHandler,
	mailH *MailHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(requestIDMiddleware(), zapLoggerMiddleware(logger), metricsMiddleware(), gin.Recovery())

	r.GET("/healthz", healthH.Live)
	r.GET("/readyz", healthH.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	users := r.Group("/users")
	users.POST("", accountH.Register)
	users.POST("/register", accountH.Register)
	users.POST("/login", accountH.Login)
	users.POST("/verify-email", accountH.VerifyEmail)
	users.POST("/resend-verification-email", accountH.ResendVerification)
	users.POST("/forgot-password", accountH.ForgotPassword)
	users.POST("/reset-password", accountH.ResetPassword)
	users.GET("", accountH.ListUsers)
	users.GET("/:id", accountH.GetUser)
	users.PUT("/:id", accountH.UpdateUser)
	users.DELETE("/:id", accountH.DeleteUser)

	if mailH != nil && mailH.journal != nil {
		r.GET("/mail/failures", mailH.ListFailures)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})

	return r
}
