package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload issued by the identity service.
type Claims struct {
	Role     string `json:"role"`
	ClinicID string `json:"clinicId,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 actor tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token for the actor. Used by seed/simulate tooling and tests;
// production tokens come from the identity service with the same secret.
func (t *Tokens) Issue(a Actor) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("auth: signing secret not configured")
	}
	if err := a.Validate(); err != nil {
		return "", err
	}

	now := t.now()
	claims := Claims{
		Role: string(a.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	if a.ClinicID != uuid.Nil {
		claims.ClinicID = a.ClinicID.String()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies the token and returns the actor it describes.
func (t *Tokens) Parse(tokenString string) (Actor, error) {
	if len(t.secret) == 0 {
		return Actor{}, errors.New("auth: signing secret not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: subject is not a uuid", ErrInvalidToken)
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	actor := Actor{UserID: userID, Role: role}
	if claims.ClinicID != "" {
		clinicID, err := uuid.Parse(claims.ClinicID)
		if err != nil {
			return Actor{}, fmt.Errorf("%w: clinicId is not a uuid", ErrInvalidToken)
		}
		actor.ClinicID = clinicID
	}
	if err := actor.Validate(); err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return actor, nil
}
