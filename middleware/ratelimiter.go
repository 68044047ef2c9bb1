package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiter caps each client at 100 requests a minute. The counter lives
// in memory; the backend runs as a single instance so no shared store is
// needed.
func RateLimiter() gin.HandlerFunc {
	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: time.Minute,
		Limit:  100,
	})
	return ginlimiter.NewMiddleware(instance)
}
