package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/services"
)

type ProductController struct {
	service   services.ProductService
	validator *RequestValidator
}

func NewProductController(s services.ProductService, v *RequestValidator) *ProductController {
	return &ProductController{service: s, validator: v}
}

// GetProducts lists active products for the storefront.
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	ctrl.list(c, false)
}

// AdminGetProducts lists products including deactivated ones.
func (ctrl *ProductController) AdminGetProducts(c *gin.Context) {
	ctrl.list(c, true)
}

func (ctrl *ProductController) list(c *gin.Context, includeInactive bool) {
	filter, err := ctrl.validator.ParseProductFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.IncludeInactive = includeInactive

	products, total, err := ctrl.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	response.Paginated(c, "Products retrieved successfully", products, response.NewPagination(filter.Page, filter.Limit, total))
}

func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	product, err := ctrl.service.GetProduct(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product retrieved successfully", product)
}

func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	product, err := ctrl.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Product created successfully", product)
}

func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	var req models.UpdateProductRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	product, err := ctrl.service.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product updated successfully", product)
}

func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	if err := ctrl.service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product deleted successfully", nil)
}
