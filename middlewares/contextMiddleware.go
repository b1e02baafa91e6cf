package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bitbucket.org/mmdatafocus/moldtrack_backend/appctx"
)

// ContextMiddleware attaches the correlation id and UI locale to the request
// context so workflow logs can carry them.
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		locale := c.GetHeader("x-locale")
		if locale == "" {
			locale = "ja"
		}

		ctx := c.Request.Context()
		ctx = appctx.Set(ctx, appctx.ContextKeyCorrelationId, cid)
		ctx = appctx.Set(ctx, appctx.ContextKeyLocale, locale)
		c.Request = c.Request.WithContext(ctx)

		c.Header("x-correlation-id", cid)
		c.Next()
	}
}
