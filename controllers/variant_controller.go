package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/services"
)

type VariantController struct {
	service   services.VariantService
	validator *RequestValidator
}

func NewVariantController(s services.VariantService, v *RequestValidator) *VariantController {
	return &VariantController{service: s, validator: v}
}

func (ctrl *VariantController) GetVariants(c *gin.Context) {
	variants, err := ctrl.service.ListVariants(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	if variants == nil {
		variants = []models.ProductVariant{}
	}
	response.OK(c, "Variants retrieved successfully", variants)
}

func (ctrl *VariantController) CreateVariant(c *gin.Context) {
	var req models.CreateVariantRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	variant, err := ctrl.service.CreateVariant(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Variant created successfully", variant)
}

func (ctrl *VariantController) UpdateVariant(c *gin.Context) {
	var req models.UpdateVariantRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	variant, err := ctrl.service.UpdateVariant(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Variant updated successfully", variant)
}
