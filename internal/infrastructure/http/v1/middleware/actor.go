package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "retailcore/internal/core/context"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
)

// Actor middleware propagates the acting user from request headers into
// context so lifecycle transitions can record who performed them.
// Requests without the header fall back to the "system" actor.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(HeaderActorID)
		if actorID == "" {
			c.Next()
			return
		}

		ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{
			ID:   actorID,
			Name: c.GetHeader(HeaderActorName),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
