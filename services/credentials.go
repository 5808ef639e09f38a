package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"eldercare-server/models"
	"eldercare-server/types"
)

const tokenIssuer = "eldercare-server"

// CredentialService hashes passwords and issues bearer tokens
type CredentialService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCredentialService creates a credential service signing with secret
func NewCredentialService(secret string, ttl time.Duration) *CredentialService {
	return &CredentialService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TokenResponse is returned by login and registration
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HashPassword hashes a password using bcrypt
func (cs *CredentialService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifyPassword compares a password with its hash
func (cs *CredentialService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a short-lived access token for the user
func (cs *CredentialService) IssueToken(user models.User) (*TokenResponse, error) {
	now := cs.now()
	claims := &types.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cs.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cs.secret)
	if err != nil {
		return nil, internal("failed to sign token", err)
	}

	return &TokenResponse{
		AccessToken: tokenString,
		TokenType:   "bearer",
		ExpiresIn:   int64(cs.ttl.Seconds()),
	}, nil
}

// ResolveToken validates a token and returns its claims
func (cs *CredentialService) ResolveToken(tokenString string) (*types.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &types.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return cs.secret, nil
	}, jwt.WithTimeFunc(cs.now), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, unauthorized("token expired")
		}
		return nil, unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*types.Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, unauthorized("invalid token claims")
	}
	return claims, nil
}
