package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"github.com/jonbarlo/onlineshop-api/services"
)

type DashboardController struct {
	service services.DashboardService
}

func NewDashboardController(s services.DashboardService) *DashboardController {
	return &DashboardController{service: s}
}

func (ctrl *DashboardController) GetStats(c *gin.Context) {
	stats, err := ctrl.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Dashboard stats retrieved successfully", stats)
}
