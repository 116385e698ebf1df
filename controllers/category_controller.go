package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/services"
)

type CategoryController struct {
	service   services.CategoryService
	validator *RequestValidator
}

func NewCategoryController(s services.CategoryService, v *RequestValidator) *CategoryController {
	return &CategoryController{service: s, validator: v}
}

// GetCategories lists active categories for the storefront.
func (ctrl *CategoryController) GetCategories(c *gin.Context) {
	ctrl.list(c, false)
}

func (ctrl *CategoryController) AdminGetCategories(c *gin.Context) {
	ctrl.list(c, true)
}

func (ctrl *CategoryController) list(c *gin.Context, includeInactive bool) {
	categories, err := ctrl.service.ListCategories(c.Request.Context(), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	response.OK(c, "Categories retrieved successfully", categories)
}

func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	category, err := ctrl.service.GetCategory(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Category retrieved successfully", category)
}

func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	category, err := ctrl.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Category created successfully", category)
}

func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	var req models.UpdateCategoryRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	category, err := ctrl.service.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Category updated successfully", category)
}

func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	if err := ctrl.service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Category deleted successfully", nil)
}
