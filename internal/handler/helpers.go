package handler

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/model"
)

// getPathParam retrieves a path parameter and validates it's not empty
func getPathParam(c *gin.Context, paramName string) (string, error) {
	value := c.Param(paramName)
	if value == "" {
		return "", fmt.Errorf("%s is required", paramName)
	}
	return value, nil
}

// getPathInt retrieves an integer path parameter
func getPathInt(c *gin.Context, paramName string) (int, error) {
	value, err := getPathParam(c, paramName)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return n, nil
}

// getQueryInt retrieves an integer query parameter with a default value
func getQueryInt(c *gin.Context, paramName string, defaultValue int) (int, error) {
	valueStr := c.Query(paramName)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}

	return value, nil
}

// getQueryString retrieves a string query parameter
func getQueryString(c *gin.Context, paramName string) string {
	return c.Query(paramName)
}

// bindJSON binds JSON request body to a struct
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return fmt.Errorf("invalid JSON format: %v", err)
	}
	return nil
}

// validatePagination validates and returns pagination parameters
func validatePagination(page, limit int) error {
	if page < 1 {
		return fmt.Errorf("page must be greater than 0")
	}
	if limit < 1 || limit > 100 {
		return fmt.Errorf("limit must be between 1 and 100")
	}
	return nil
}

// validationDetails converts a domain validation error to ErrorDetail slice
func validationDetails(err *domain.ValidationError) []model.ErrorDetail {
	if err.Field == "" {
		return nil
	}
	return []model.ErrorDetail{newErrorDetail(err.Field, err.Message)}
}

// logError writes a handler failure with its request context
func logError(c *gin.Context, event string, err error, fields map[string]interface{}) {
	log.Printf("[%s] %s %s: %v %v", event, c.Request.Method, c.Request.URL.Path, err, fields)
}
