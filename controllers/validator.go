package controllers

import (
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"github.com/shopspring/decimal"
)

// Validation constants
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPageNumber   = 1000000
)

var registerOnce sync.Once

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// RequestValidator handles all input validation
type RequestValidator struct{}

// NewRequestValidator configures gin's validator engine: JSON field names in
// errors, and decimal amounts compared as numbers by gt/gte/lte rules.
func NewRequestValidator() *RequestValidator {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	})
	return &RequestValidator{}
}

// BindJSON decodes and validates the request body into obj.
func (rv *RequestValidator) BindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{
				Field:   fieldPath(fe),
				Rule:    fe.Tag(),
				Message: fieldMessage(fe),
			})
		}
		return apperrors.ErrValidation.WithMessage("Validation failed").WithDetails(details)
	}
	if errors.Is(err, io.EOF) {
		return apperrors.ErrValidation.WithMessage("Request body is required")
	}
	return apperrors.ErrValidation.WithMessage("Invalid request body").WithDetails(err.Error())
}

// fieldPath drops the top-level struct name from the namespace,
// "CreateOrderRequest.items[0].quantity" becoming "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "uuid":
		return field + " must be a valid UUID"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return field + " must contain at least " + fe.Param() + " item(s)"
		}
		return field + " must be at least " + fe.Param() + " characters long"
	case "max":
		if fe.Kind() == reflect.Slice {
			return field + " must contain at most " + fe.Param() + " items"
		}
		return field + " must be at most " + fe.Param() + " characters long"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "lte":
		return field + " must be less than or equal to " + fe.Param()
	default:
		return field + " is invalid"
	}
}

// ParsePagination validates and parses pagination parameters
func (rv *RequestValidator) ParsePagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, apperrors.ErrValidation.WithMessage("invalid page number")
	}
	if page > MaxPageNumber {
		page = MaxPageNumber
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)))
	if err != nil || limit < 1 {
		return 0, 0, apperrors.ErrValidation.WithMessage("invalid page size")
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, nil
}

// ParseProductFilter reads the listing query: page, limit, categoryId,
// status, search, minPrice, maxPrice and sort.
func (rv *RequestValidator) ParseProductFilter(c *gin.Context) (repository.ProductFilter, error) {
	var filter repository.ProductFilter

	page, limit, err := rv.ParsePagination(c)
	if err != nil {
		return filter, err
	}
	filter.Page, filter.Limit = page, limit

	if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, apperrors.ErrValidation.WithMessage("invalid category ID format")
		}
		filter.CategoryID = &id
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.ProductStatus(raw)
		if status != models.ProductStatusAvailable && status != models.ProductStatusSoldOut {
			return filter, apperrors.ErrValidation.WithMessage("status must be one of: available sold_out")
		}
		filter.Status = &status
	}

	filter.Search = strings.TrimSpace(c.Query("search"))

	if filter.MinPrice, err = parseDecimalQuery(c, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parseDecimalQuery(c, "maxPrice"); err != nil {
		return filter, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return filter, apperrors.ErrValidation.WithMessage("minPrice must be less than or equal to maxPrice")
	}

	sortParam := strings.ToLower(strings.TrimSpace(c.Query("sort")))
	if sortParam != "" && !repository.IsSupportedProductSort(sortParam) {
		return filter, apperrors.ErrValidation.WithMessage("invalid sort value")
	}
	filter.Sort = sortParam

	return filter, nil
}

// ParseOrderFilter reads the admin order listing query.
func (rv *RequestValidator) ParseOrderFilter(c *gin.Context) (repository.OrderFilter, error) {
	var filter repository.OrderFilter

	page, limit, err := rv.ParsePagination(c)
	if err != nil {
		return filter, err
	}
	filter.Page, filter.Limit = page, limit

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			return filter, apperrors.ErrValidation.WithMessage("invalid order status")
		}
		filter.Status = &status
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	return filter, nil
}

func parseDecimalQuery(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperrors.ErrValidation.WithMessagef("invalid %s value", key)
	}
	return &d, nil
}
