package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"go.uber.org/zap"
)

var errDatabaseDown = apperrors.New(http.StatusServiceUnavailable, "ServiceUnavailable", "Database unreachable", nil)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthController struct {
	db      Pinger
	service string
}

func NewHealthController(db Pinger, service string) *HealthController {
	return &HealthController{db: db, service: service}
}

func (ctrl *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if ctrl.db != nil {
		if err := ctrl.db.PingContext(ctx); err != nil {
			zap.L().Warn("health check: database unreachable", zap.Error(err))
			response.Error(c, errDatabaseDown.WithDetails(gin.H{"service": ctrl.service, "database": "down"}))
			return
		}
	}
	response.OK(c, "Service is healthy", gin.H{"service": ctrl.service, "database": "up"})
}
