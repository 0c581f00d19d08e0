package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/course-forum/pkg/response"
)

// PerUserRateLimit 按已认证用户限速（心跳等高频端点用）
func PerUserRateLimit(r float64, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	return func(c *gin.Context) {
		ident := CurrentIdentity(c)
		if ident == nil {
			c.Next()
			return
		}
		mu.Lock()
		lim, ok := limiters[ident.ID]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(r), burst)
			limiters[ident.ID] = lim
		}
		mu.Unlock()

		if !lim.Allow() {
			c.JSON(http.StatusTooManyRequests, response.Response{
				Code:    http.StatusTooManyRequests,
				Message: "too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
