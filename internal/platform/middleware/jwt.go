package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth validates a bearer token signed with the shared HS256
// secret. Requests without a valid token get 401. The token subject,
// when present, is stored in the context under "user_id". An empty
// secret disables authentication entirely; the server only installs
// this middleware when one is configured.
func JWTAuth(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return unauthorized(c, "missing bearer token")
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return key, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return unauthorized(c, "invalid token")
			}

			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if sub, err := claims.GetSubject(); err == nil && sub != "" {
					c.Set("user_id", sub)
				}
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, reason string) error {
	c.Response().Header().Set("WWW-Authenticate", "Bearer")
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": reason})
}
