package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"DemoHub/pkg/cache"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevoked      = errors.New("token has been revoked")
)

// Claims is what the server needs back from a verified token.
type Claims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// Manager issues and verifies HS256 access tokens and tracks revoked jtis.
// Revocations live in an in-memory cache until the token would have expired.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked *cache.Cache
	now     func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: cache.New(0),
		now:     time.Now,
	}
}

// Issue signs a token for userID.
func (m *Manager) Issue(userID uint) (string, Claims, error) {
	now := m.now()
	c := Claims{
		UserID:    userID,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        c.JTI,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
	})
	s, err := tok.SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return s, c, nil
}

// Parse verifies signature, expiry and revocation.
func (m *Manager) Parse(tokenStr string) (Claims, error) {
	var rc jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &rc, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC signing
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}

	uid, err := strconv.ParseUint(rc.Subject, 10, 64)
	if err != nil || uid == 0 {
		return Claims{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	c := Claims{UserID: uint(uid), JTI: rc.ID}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	if m.IsRevoked(c.JTI) {
		return Claims{}, ErrRevoked
	}
	return c, nil
}

// Revoke blocks jti until exp. Revocations that already lapsed are
// dropped first so the store only ever holds live jtis.
func (m *Manager) Revoke(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	ttl := exp.Sub(m.now())
	if ttl <= 0 {
		return
	}
	m.revoked.Sweep()
	m.revoked.Set(jti, struct{}{}, ttl)
}

func (m *Manager) IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	_, ok := m.revoked.Get(jti)
	return ok
}
