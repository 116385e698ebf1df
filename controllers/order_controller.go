package controllers

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/services"
)

type OrderController struct {
	service   services.OrderService
	validator *RequestValidator
}

func NewOrderController(s services.OrderService, v *RequestValidator) *OrderController {
	return &OrderController{service: s, validator: v}
}

// CreateOrder places a guest order.
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	order, err := ctrl.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Order created successfully", order)
}

// TrackOrder lets a customer look up their order by number and email.
func (ctrl *OrderController) TrackOrder(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Error(c, apperrors.ErrValidation.WithMessage("email query parameter is required"))
		return
	}

	order, err := ctrl.service.GetOrderByNumber(c.Request.Context(), c.Param("orderNumber"), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", order)
}

func (ctrl *OrderController) GetOrders(c *gin.Context) {
	filter, err := ctrl.validator.ParseOrderFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	orders, total, err := ctrl.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	response.Paginated(c, "Orders retrieved successfully", orders, response.NewPagination(filter.Page, filter.Limit, total))
}

func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	order, err := ctrl.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", order)
}

// UpdateOrderStatus moves an order to a new status. Marking an order paid
// deducts its stock.
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	order, err := ctrl.service.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order status updated successfully", order)
}
