package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumify/internal/errcode"
	"resumify/internal/export"
	"resumify/internal/resume"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// ErrorCode 返回带业务码的错误，前端据 code 决定提示方式。
func ErrorCode(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// PaymentRequired 返回会员闸门的拦截结果。
func PaymentRequired(c *gin.Context, d export.Decision) {
	code := errcode.UpgradeRequired
	if d.Redirect == export.RedirectLogin {
		code = errcode.LoginRequired
	}
	c.JSON(http.StatusPaymentRequired, gin.H{
		"error":    "template requires premium",
		"code":     code,
		"redirect": d.Redirect,
	})
}

// InvalidResume 把 Schema 或结构校验错误转换为 422，其余错误返回 false。
func InvalidResume(c *gin.Context, err error) bool {
	var schemaErr *resume.SchemaError
	if errors.As(err, &schemaErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid resume json", "fields": schemaErr.Fields})
		return true
	}
	var validationErr *resume.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid resume data", "fields": validationErr.Fields})
		return true
	}
	return false
}
