package middlewares

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahulatai/agentic-backend/internal/domain"

	"github.com/golang-jwt/jwt"
)

const (
	bearerPrefix    = "Bearer "
	accessTokenType = "access"
)

type accessTokenClaims struct {
	jwt.StandardClaims
	TokenType string `json:"type"`
}

func bearerToken(authorization string) (string, bool) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix))
	return token, token != ""
}

// verifyAccessToken checks an HS256 access token and returns the tenant named by its subject
func verifyAccessToken(tokenString string, signingSecret []byte) (domain.TenantID, error) {
	if len(signingSecret) == 0 {
		return domain.TenantID{}, errors.New(authErrorLogHeader + "Token authentication is not configured")
	}

	claims := &accessTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return signingSecret, nil
	})
	if err != nil {
		return domain.TenantID{}, fmt.Errorf(authErrorLogHeader+"%w", err)
	}

	if claims.TokenType != accessTokenType {
		return domain.TenantID{}, errors.New(authErrorLogHeader + "Token is not an access token")
	}

	tenant, err := domain.ParseTenantID(claims.Subject)
	if err != nil {
		return domain.TenantID{}, errors.New(authErrorLogHeader + "Token subject is not a tenant id")
	}

	return tenant, nil
}
