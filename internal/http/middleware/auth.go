package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/classloop/classloop-backend/internal/platform/logger"
)

const (
	ctxKeySchoolID = "auth_school_id"
	ctxKeyActorID  = "auth_actor_id"
	ctxKeyRole     = "auth_role"
)

// AuthMiddleware extracts tenant claims from a bearer token. Session
// issuance and refresh live in a separate identity service; the engine
// only needs to know which school and actor a request belongs to.
type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), secret: []byte(secret)}
}

type engineClaims struct {
	SchoolID string `json:"school_id"`
	ActorID  string `json:"actor_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (am *AuthMiddleware) RequireClaims() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		claims := &engineClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return am.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		schoolID, err := uuid.Parse(claims.SchoolID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token missing school claim"})
			return
		}
		actorID, err := uuid.Parse(claims.ActorID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token missing actor claim"})
			return
		}

		c.Set(ctxKeySchoolID, schoolID)
		c.Set(ctxKeyActorID, actorID)
		c.Set(ctxKeyRole, claims.Role)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

// SchoolID returns the tenant claim set by RequireClaims.
func SchoolID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ctxKeySchoolID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// ActorID returns the acting teacher/student claim set by RequireClaims.
func ActorID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ctxKeyActorID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func Role(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyRole); ok {
		if r, ok := v.(string); ok {
			return r
		}
	}
	return ""
}
