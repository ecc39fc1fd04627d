package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt"

	"eventlive/internal/pkg/errs"
)

// VerifyToken parses and validates a bearer token string using the provided secretKey.
// It distinguishes an expired token from an otherwise invalid one so that callers can
// emit the correct machine-readable code on the realtime channel.
func VerifyToken(tokenString string, secretKey string) (*Claims, *errs.CustomError) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, errs.NewError(errs.ErrTokenExpired)
		}
		return nil, errs.NewError(errs.ErrTokenInvalid)
	}

	if !token.Valid {
		return nil, errs.NewError(errs.ErrTokenInvalid)
	}

	if claims.UserID == "" {
		return nil, errs.NewError(errs.ErrTokenInvalid)
	}

	return claims, nil
}
