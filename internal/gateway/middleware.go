package gateway

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/betbot/systock/pkg/logger"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "requestID"
	ctxSubject      = "subject"
)

// Claims 网关令牌
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// IssueToken 签发网关访问令牌（HS256）
func IssueToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: "trade",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(ctxRequestID),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"elapsed":    time.Since(start).String(),
		}).Info("[gateway] request")
	}
}

func (s *Server) jwtAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid authorization header")
			return
		}

		var claims Claims
		token, err := jwt.ParseWithClaims(parts[1], &claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(s.cfg.JWTSecret), nil
		}, jwt.WithTimeFunc(s.cfg.Now), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		c.Set(ctxSubject, claims.Subject)
		c.Next()
	}
}
