package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/service"
)

// errorResponse es el cuerpo común de todas las respuestas de error.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Path:       c.Request.URL.Path,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrAuthentication):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError traduce errores del servicio; los no clasificados se registran
// y se responden sin detalle.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := statusForError(err)
	var accountErr *service.AccountError
	if status == http.StatusInternalServerError || !errors.As(err, &accountErr) {
		logger.Error(op+" failed", zap.Error(err), zap.String("request_id", requestID(c)))
		writeError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if status == http.StatusServiceUnavailable {
		logger.Warn(op+" dependency failure", zap.Error(err), zap.String("request_id", requestID(c)))
	}
	writeError(c, status, accountErr.Message)
}
