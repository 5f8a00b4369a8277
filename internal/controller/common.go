package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trustmart_v1_202609/internal/errs"
)

// writeError 按错误类型映射 HTTP 状态码，保持统一响应包
func writeError(c *gin.Context, err error) {
	var (
		validation *errs.ValidationError
		notFound   *errs.NotFoundError
		conflict   *errs.ConflictError
		transition *errs.InvalidTransitionError
		timeout    *errs.TimeoutError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "资源不存在: " + err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"code": 409, "message": "状态冲突: " + err.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "message": "非法操作: " + err.Error()})
	case errors.As(err, &timeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"code": 504, "message": "下游服务超时: " + err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "内部错误: " + err.Error()})
	}
	c.Error(err)
}
