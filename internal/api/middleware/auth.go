package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/course-forum/internal/membership"
	"github.com/d60-Lab/course-forum/pkg/response"
)

const identityKey = "identity"

// Auth 解析 Bearer JWT（sub=用户ID），向身份提供方换取完整身份
func Auth(secret string, identities membership.Identities) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			response.Unauthorized(c, "invalid token subject")
			c.Abort()
			return
		}

		ident, err := identities.Get(c.Request.Context(), sub)
		if err != nil {
			if errors.Is(err, membership.ErrUnknownUser) {
				response.Unauthorized(c, "unknown user")
			} else {
				response.InternalError(c, err)
			}
			c.Abort()
			return
		}
		c.Set(identityKey, ident)
		c.Next()
	}
}

// CurrentIdentity 读取 Auth 中间件写入的身份；未认证路由上返回 nil
func CurrentIdentity(c *gin.Context) *membership.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*membership.Identity)
	return ident
}
