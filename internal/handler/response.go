package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/validator"
)

type Response struct {
	Status string      `json:"status"`
	Detail string      `json:"detail,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(detail string) *Response {
	return &Response{
		Status: "error",
		Detail: detail,
	}
}

// OK writes the success envelope with status 200.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

// RespondError maps err to a status code and writes the error envelope.
// Anything that is not a known application error becomes a generic 500 and
// the original error is only logged.
func RespondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Code != errors.ErrInternal {
		status := appErr.StatusCode()
		if status >= http.StatusInternalServerError {
			log.Warn().
				Err(err).
				Str("request_id", c.GetString(CtxRequestID)).
				Str("path", c.Request.URL.Path).
				Msg("request failed on unavailable dependency")
		}
		c.AbortWithStatusJSON(status, NewErrorResponse(appErr.Message))
		return
	}

	log.Error().
		Err(err).
		Str("request_id", c.GetString(CtxRequestID)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}

// RespondBindError reports a body or query that failed to decode or validate.
func RespondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(validator.Describe(err)))
}
