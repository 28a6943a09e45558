package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const issuer = "venuebooking"

const (
	PurposeAccess = "access"
	PurposeVerify = "verify"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token claims")
)

type JWTServiceInterface interface {
	GenerateJWT(userID int, role, purpose string, expirationTime time.Time) (string, error)
	ValidateToken(tokenString, purpose string) (*Claims, error)
}

type Claims struct {
	UserID  int    `json:"user_id"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.StandardClaims
}

type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

func (s *JWTService) GenerateJWT(userID int, role, purpose string, expirationTime time.Time) (string, error) {
	claims := Claims{
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
			IssuedAt:  time.Now().Unix(),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken checks the signature, expiry and that the token was issued
// for purpose.
func (s *JWTService) ValidateToken(tokenString, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == 0 || claims.Issuer != issuer || claims.Purpose != purpose {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
