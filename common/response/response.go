package response

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/common/logger"
	"go.uber.org/zap"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Error      *string     `json:"error"`
	Details    interface{} `json:"details,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes totalPages for the given page window.
func NewPagination(page, limit int, total int64) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// OK writes a 200 success envelope.
func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

// Created writes a 201 success envelope.
func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

// Success writes a success envelope with the given status.
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: now(),
	})
}

// Paginated writes a 200 success envelope for a list page.
func Paginated(c *gin.Context, message string, data interface{}, p *Pagination) {
	c.JSON(http.StatusOK, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: p,
		Timestamp:  now(),
	})
}

// Error writes the failure envelope for err and aborts the chain. The error
// field carries the error type, message the human readable reason. Internal
// errors are logged with the underlying cause and reported without it.
func Error(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.With(c, zap.L()).Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	errType := appErr.Type
	c.AbortWithStatusJSON(appErr.Code, Envelope{
		Success:   false,
		Message:   appErr.Message,
		Error:     &errType,
		Details:   appErr.Details,
		Timestamp: now(),
	})
}
