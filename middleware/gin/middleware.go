package ginmw

import (
	"github.com/gin-gonic/gin"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/middleware"
)

// DecodeJSON decodes the incoming JSON into T through m with opt (or
// middleware.DefaultDecodeOpt when zero), stores the value in the request
// context, and on failure aborts with the issues payload.
func DecodeJSON[T any](m *polyjson.Mapper, opt polyjson.DecodeOpt) gin.HandlerFunc {
	opt = middleware.OrDefault(opt)
	return func(c *gin.Context) {
		v, err := middleware.DecodeRequest[T](c.Request, m, opt)
		if err != nil {
			c.AbortWithStatusJSON(middleware.Status(err), middleware.ErrorPayload(err))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithDecoded(c.Request.Context(), v))
		c.Next()
	}
}

// GetDecoded fetches the decoded T from gin.Context.
func GetDecoded[T any](c *gin.Context) (T, bool) {
	return middleware.DecodedFromContext[T](c.Request.Context())
}
