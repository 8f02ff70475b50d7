package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeServerError   = 500
	CodeBusinessError = 1000
)

const (
	CodeInvalidAmount   = 1001
	CodeAlreadyClaimed  = 1002
	CodeInvalidQuantity = 1003
	CodeProductNotFound = 1004
	CodeEmptyCart       = 1005
	CodeAccountNotFound = 1006
	CodeUnknownAction   = 1007
	CodeNotProfessional = 1008
	CodeEmailTaken      = 1009
	CodeOrderNotFound   = 1010
	CodeSystemBusy      = 1011
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusOK, Response{
		Code:    CodeUnauthorized,
		Message: message,
	})
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}
