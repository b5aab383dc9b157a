package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/email"
)

const defaultFailureLimit = 50

// MailHandler expone el journal de envíos fallidos para operadores.
type MailHandler struct {
	logger  *zap.Logger
	journal email.FailureJournal
}

func NewMailHandler(logger *zap.Logger, journal email.FailureJournal) *MailHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailHandler{logger: logger, journal: journal}
}

// ListFailures maneja GET /mail/failures?limit=n.
func (h *MailHandler) ListFailures(c *gin.Context) {
	limit := int64(defaultFailureLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	failures, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list mail failures failed", zap.Error(err))
		writeError(c, http.StatusServiceUnavailable, "mail failure journal unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statusCode": http.StatusOK,
		"failures":   failures,
	})
}
