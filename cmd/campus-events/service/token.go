package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordHashCost      = 12
	resetTokenTTL         = 10 * time.Minute
	verificationTokenTTL  = 24 * time.Hour
	accountTokenByteCount = 32
)

// Claims are the JWT claims of a session token.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

func (t *TokenIssuer) Issue(user model.User) (string, error) {
	now := t.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", model.ErrInternal(err, "failed to sign token")
	}
	return signed, nil
}

// Parse verifies the signature and expiry of a session token.
func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, model.ErrUnauthorized("invalid or expired token")
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, model.ErrUnauthorized("invalid or expired token")
	}
	return claims, nil
}

func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", model.ErrInternal(err, "failed to hash password")
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// newAccountToken returns a random token for the user and the digest that
// is stored in its place.
func newAccountToken() (string, string, error) {
	buf := make([]byte, accountTokenByteCount)
	if _, err := rand.Read(buf); err != nil {
		return "", "", model.ErrInternal(err, "failed to generate token")
	}
	raw := hex.EncodeToString(buf)
	return raw, hashAccountToken(raw), nil
}

func hashAccountToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
