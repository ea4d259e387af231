package auth

import (
	"time"

	realtime_errors "restaurant-realtime/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

// AccessClaims is what a dashboard or mobile access token carries.
type AccessClaims struct {
	UserID          string   `json:"sub"`
	Role            string   `json:"role,omitempty"`
	RestaurantIDs   []string `json:"restaurants,omitempty"`
	ConversationIDs []string `json:"conversations,omitempty"`
	jwt.RegisteredClaims
}

func (c AccessClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// TokenService verifies HMAC-signed access tokens.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

func (s *TokenService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, realtime_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, realtime_errors.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil {
		return AccessClaims{}, realtime_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return AccessClaims{}, realtime_errors.ErrUnauthorized
	}

	return *claims, nil
}

// SignAccessToken mints a token for claims, valid for ttl. Used by the
// dev-token command and by tests.
func (s *TokenService) SignAccessToken(claims AccessClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
