package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taoyao-code/iohc-gateway/internal/controller"
	"github.com/taoyao-code/iohc-gateway/internal/outbound"
	"github.com/taoyao-code/iohc-gateway/internal/protocol/iohc"
	"github.com/taoyao-code/iohc-gateway/internal/registry"
)

// statusFor 错误到HTTP状态码的映射
func statusFor(err error) int {
	switch {
	case errors.Is(err, iohc.ErrParse),
		errors.Is(err, iohc.ErrIndex),
		errors.Is(err, iohc.ErrUnknownButton),
		errors.Is(err, iohc.ErrAddress):
		return http.StatusBadRequest
	case errors.Is(err, iohc.ErrSize):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registry.ErrDuplicateNode):
		return http.StatusConflict
	case errors.Is(err, outbound.ErrNoTransport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error":   controller.ErrorKind(err),
		"message": err.Error(),
	})
}
