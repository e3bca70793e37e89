package security

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"quizmaster/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken signs a token bound to the user's current uniquifier. Rotating
// the uniquifier revokes every token issued before.
func GenerateToken(userID int64, uniquifier string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":       strconv.FormatInt(userID, 10),
		"fs_uniquifier": uniquifier,
		"exp":           time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":           time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// TokenFromAuthHeader reads the raw token from the configured custom header.
func TokenFromAuthHeader(r *http.Request) string {
	return r.Header.Get(config.AppConfig.AuthTokenHeader)
}

// Verifier looks for a token in the custom header first, then in
// "Authorization: Bearer T", and stores the verification result in the context.
func Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verify(TokenAuth, TokenFromAuthHeader, jwtauth.TokenFromHeader)
}

func GetUserIDFromClaims(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		return 0, errors.New("user_id claim is missing or not a string")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("user_id claim is not numeric")
	}
	return id, nil
}

func GetUniquifierFromClaims(claims jwt.MapClaims) (string, error) {
	u, ok := claims["fs_uniquifier"].(string)
	if !ok || u == "" {
		return "", errors.New("fs_uniquifier claim is missing or not a string")
	}
	return u, nil
}
