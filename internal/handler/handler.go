package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/pkg/errors"
)

// Context keys set by the middleware chain.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "user_id"
	CtxUsername  = "username"
	CtxRole      = "role"
)

// ParamUUID parses a path parameter as a uuid. On failure it writes a 400
// and returns false.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, errors.NewBadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes and validates the body. On failure it writes a 400 and
// returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondBindError(c, err)
		return false
	}
	return true
}

// BindQuery is BindJSON for the query string.
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		RespondBindError(c, err)
		return false
	}
	return true
}

// CurrentUserID returns the authenticated user, or uuid.Nil.
func CurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(CtxUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
