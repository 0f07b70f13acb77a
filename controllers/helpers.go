package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jjrmrcly79/naturalezamistica/logger"
	"github.com/jjrmrcly79/naturalezamistica/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// respondError logs the service error with its cause and writes the
// client-safe message.
func respondError(c *gin.Context, log *zap.Logger, svcErr *services.ServiceError) {
	fields := []zap.Field{
		zap.String("kind", string(svcErr.Kind)),
		zap.Int("status", svcErr.StatusCode),
		zap.String("request_id", c.GetString(logger.RequestIDKey)),
	}
	if svcErr.Err != nil {
		fields = append(fields, zap.Error(svcErr.Err))
	}
	if svcErr.StatusCode >= 500 {
		log.Error(svcErr.Message, fields...)
	} else {
		log.Warn(svcErr.Message, fields...)
	}
	c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
}

// bindingErrorMessage turns a bind failure into a message naming the bad fields.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Malformed request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldErrorMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// parsePagination reads page and limit (perPage is accepted as an alias).
func parsePagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, errors.New("invalid page number")
	}

	limitStr := c.Query("limit")
	if limitStr == "" {
		limitStr = c.DefaultQuery("perPage", strconv.Itoa(defaultPageSize))
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return 0, 0, errors.New("invalid page size")
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, nil
}

func parseProductID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
