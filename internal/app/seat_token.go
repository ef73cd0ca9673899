package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// ErrInvalidSeatToken is returned for tokens that fail signature, expiry or
// game checks.
var ErrInvalidSeatToken = errors.New("invalid seat token")

// SeatTokens signs the credential a client presents to reclaim its seat
// after a disconnect.
type SeatTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

const defaultSeatIssuer = "cribbage"

// NewSeatTokens builds a signer. An empty issuer uses the default one.
func NewSeatTokens(secret, issuer string, ttl time.Duration) *SeatTokens {
	if issuer == "" {
		issuer = defaultSeatIssuer
	}
	return &SeatTokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token binding the user to the game's seat.
func (s *SeatTokens) Issue(userID, gameID string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", fmt.Errorf("seat tokens not configured")
	}
	if userID == "" || gameID == "" {
		return "", fmt.Errorf("user and game are required")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"gid": gameID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the token against the game and returns the seated user id.
func (s *SeatTokens) Verify(tokenString, gameID string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", fmt.Errorf("seat tokens not configured")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidSeatToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidSeatToken
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return "", fmt.Errorf("%w: issuer mismatch", ErrInvalidSeatToken)
	}
	if gid, _ := claims["gid"].(string); gid != gameID {
		return "", fmt.Errorf("%w: issued for another game", ErrInvalidSeatToken)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidSeatToken)
	}
	return sub, nil
}
