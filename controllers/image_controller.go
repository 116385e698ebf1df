package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/services"
)

type ImageController struct {
	service   services.ImageService
	validator *RequestValidator
}

func NewImageController(s services.ImageService, v *RequestValidator) *ImageController {
	return &ImageController{service: s, validator: v}
}

func (ctrl *ImageController) GetImages(c *gin.Context) {
	images, err := ctrl.service.ListImages(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if images == nil {
		images = []models.ProductImage{}
	}
	response.OK(c, "Images retrieved successfully", images)
}

func (ctrl *ImageController) AddImage(c *gin.Context) {
	var req models.CreateImageRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	image, err := ctrl.service.AddImage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Image added successfully", image)
}

func (ctrl *ImageController) UpdateImage(c *gin.Context) {
	var req models.UpdateImageRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	image, err := ctrl.service.UpdateImage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Image updated successfully", image)
}

func (ctrl *ImageController) DeleteImage(c *gin.Context) {
	if err := ctrl.service.DeleteImage(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Image deleted successfully", nil)
}

// CreateUploadURL returns a presigned URL the admin UI uploads the file to
// before registering it with AddImage.
func (ctrl *ImageController) CreateUploadURL(c *gin.Context) {
	var req models.UploadURLRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	target, err := ctrl.service.CreateUploadURL(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Upload URL created successfully", target)
}
