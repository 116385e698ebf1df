package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"github.com/jonbarlo/onlineshop-api/middleware"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/services"
)

type AuthController struct {
	service   services.AuthService
	validator *RequestValidator
}

func NewAuthController(s services.AuthService, v *RequestValidator) *AuthController {
	return &AuthController{service: s, validator: v}
}

func (ctrl *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	result, err := ctrl.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Login successful", result)
}

// Me returns the authenticated admin.
func (ctrl *AuthController) Me(c *gin.Context) {
	admin, err := ctrl.service.GetAdmin(c.Request.Context(), c.GetString(middleware.AdminIDKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Admin retrieved successfully", admin)
}
