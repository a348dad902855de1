package echomw

import (
	"github.com/labstack/echo/v4"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/middleware"
)

// DecodeJSON decodes the request JSON into T through m, stores the value in
// the request context on success, or answers with the issues payload when
// decoding fails. A zero opt means middleware.DefaultDecodeOpt.
func DecodeJSON[T any](m *polyjson.Mapper, opt polyjson.DecodeOpt) echo.MiddlewareFunc {
	opt = middleware.OrDefault(opt)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, err := middleware.DecodeRequest[T](c.Request(), m, opt)
			if err != nil {
				return c.JSON(middleware.Status(err), middleware.ErrorPayload(err))
			}
			ctx := middleware.ContextWithDecoded(c.Request().Context(), v)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetDecoded fetches the decoded T from echo.Context.
func GetDecoded[T any](c echo.Context) (T, bool) {
	return middleware.DecodedFromContext[T](c.Request().Context())
}
