package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Shivanshu999/casePlus/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenDuration = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// TokenService creates and verifies authorization tokens
type TokenService interface {
	CreateToken(userID uuid.UUID) (string, error)
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// AuthToken implements TokenService with HMAC signed JWT
type AuthToken struct {
	key []byte
}

// NewAuthToken creates new AuthToken instance
func NewAuthToken(key []byte) *AuthToken {
	return &AuthToken{key: key}
}

// CreateToken creates signed token carrying user id
func (at *AuthToken) CreateToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
		},
		UserID: userID.String(),
	})

	return token.SignedString(at.key)
}

// VerifyToken verifies token string and returns its payload
func (at *AuthToken) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	cl := claims{}
	token, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return at.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(cl.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &models.TokenPayload{UserID: userID}, nil
}
