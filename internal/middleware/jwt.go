package middleware

import (
	"fmt"
	"net/http"

	"legalizador/internal/common"
	"legalizador/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// userContextKey is where echo-jwt stores the parsed *jwt.Token.
const userContextKey = "user"

// NewJWTMiddleware validates bearer tokens signed with secret. When jwks is
// set, tokens signed with an asymmetric key are verified against it.
func NewJWTMiddleware(secret string, jwks *keyfunc.JWKS) echo.MiddlewareFunc {
	return echojwt.WithConfig(JWTConfig(secret, jwks))
}

// JWTConfig builds the echo-jwt configuration used by NewJWTMiddleware.
func JWTConfig(secret string, jwks *keyfunc.JWKS) echojwt.Config {
	return echojwt.Config{
		ContextKey: userContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(services.TokenClaims)
		},
		KeyFunc: func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
				return []byte(secret), nil
			}
			if jwks != nil {
				return jwks.Keyfunc(token)
			}
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return
			}
			ctx := common.WithUser(c.Request().Context(), claims.UserID, claims.Email, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Invalid token", nil))
		},
	}
}

// ClaimsFromContext returns the claims of the token accepted for this
// request.
func ClaimsFromContext(c echo.Context) (*services.TokenClaims, bool) {
	token, ok := c.Get(userContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(*services.TokenClaims)
	return claims, ok
}
