package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/internal/shared"
	"novelstore-backend/internal/shared/response"
)

type validatable interface {
	Validate() error
}

// bindJSON bind body rồi chạy ozzo Validate; false = đã ghi response lỗi
func bindJSON(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "Dữ liệu request không hợp lệ", gin.H{
			"info": err.Error(),
		})
		return false
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "Dữ liệu không hợp lệ", err)
		return false
	}
	return true
}

// parseIDParam parse :id; false = đã ghi response lỗi
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "ID không hợp lệ", gin.H{
			"info": err.Error(),
		})
		return uuid.Nil, false
	}
	return id, true
}

// handleError map AppError sang HTTP status, lỗi khác là 500
func handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, appErr.Details)
		return
	}

	log.Error().
		Err(err).
		Str("request_id", c.GetString(shared.ContextKeyRequestID)).
		Str("path", c.FullPath()).
		Msg("Unhandled promotion error")

	response.ErrorWithDetails(c, http.StatusInternalServerError, string(model.ErrCodeInternalError), "Đã có lỗi xảy ra, vui lòng thử lại sau", nil)
}

// getUserIDFromContext lấy user ID do AuthMiddleware set
func getUserIDFromContext(c *gin.Context) string {
	return c.GetString(shared.ContextKeyUserID)
}

// parseIntQuery parse integer query param với default value
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	if value := c.Query(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
