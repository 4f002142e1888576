package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// TokenCookie is the cookie name accepted when no Authorization header is sent.
const TokenCookie = "token"

// Context keys the auth middleware fills from the token claims.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
	KeyEmail  = "email"
)

var (
	errNoToken      = errors.New("missing authorization header")
	errBadHeader    = errors.New("invalid authorization header")
	errInvalidToken = errors.New("invalid token")
)

// Auth validates the JWT and injects claims into context: user_id (from
// sub), role and email.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := authenticate(c, jwtSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			setClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth injects claims when a valid token is present and lets
// anonymous or badly authenticated requests through without them.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, err := authenticate(c, jwtSecret); err == nil {
				setClaims(c, claims)
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, jwtSecret string) (jwt.MapClaims, error) {
	raw, err := bearerToken(c)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, errInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if ck, err := c.Cookie(TokenCookie); err == nil && ck.Value != "" {
			return ck.Value, nil
		}
		return "", errNoToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", errBadHeader
	}
	return parts[1], nil
}

func setClaims(c echo.Context, claims jwt.MapClaims) {
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)
	c.Set(KeyUserID, sub)
	c.Set(KeyRole, role)
	c.Set(KeyEmail, email)
}
