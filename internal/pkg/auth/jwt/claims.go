package jwt

import (
	"github.com/golang-jwt/jwt"

	"eventlive/internal/app/user"
)

// Claims defines the structure of the JSON Web Token claims accepted by the
// realtime gateway. Tokens are issued by the platform's auth service; this
// layer only verifies them and extracts a stable user identity.
type Claims struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims

	// UserID is the stable identifier of the authenticated user.
	UserID string `json:"user_id"`

	// Email is the authenticated email address bound to the token.
	Email string `json:"email"`

	// Name is the display name recorded at token issuance.
	Name string `json:"name,omitempty"`

	// Avatar is a reference to the user's avatar image.
	Avatar string `json:"avatar,omitempty"`
}

// User converts the verified claims into the identity struct used throughout
// the realtime layer.
func (c *Claims) User() user.User {
	return user.User{
		ID:     c.UserID,
		Name:   c.Name,
		Email:  c.Email,
		Avatar: c.Avatar,
	}
}
