package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lms-quiz-session/internal/domain"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims carried by tokens issued by the LMS auth service.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Config holds verification settings.
type Config struct {
	Secret []byte
	Issuer string // empty accepts any issuer
}

// Verifier validates HS256 tokens and turns them into session contexts.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{secret: cfg.Secret, issuer: cfg.Issuer}
}

// Verify parses raw and returns the SessionContext for its user. The raw token is
// kept so downstream calls can act on the user's behalf.
func (v *Verifier) Verify(raw string) (domain.SessionContext, error) {
	if raw == "" {
		return domain.SessionContext{}, ErrMissingToken
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SessionContext{}, ErrExpiredToken
		}
		return domain.SessionContext{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.SessionContext{}, ErrInvalidToken
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return domain.SessionContext{}, ErrInvalidToken
	}
	return domain.SessionContext{UserID: userID, Token: raw}, nil
}

// Sign issues a token for userID. Used by the dev `token` command and tests.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// TokenFromRequest reads "Authorization: Bearer <token>", falling back to the
// token query parameter (browsers cannot set headers on WebSocket upgrades).
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

type sessionKey struct{}

// WithSession stores sc in ctx.
func WithSession(ctx context.Context, sc domain.SessionContext) context.Context {
	return context.WithValue(ctx, sessionKey{}, sc)
}

// SessionFrom returns the SessionContext stored by WithSession.
func SessionFrom(ctx context.Context) (domain.SessionContext, bool) {
	sc, ok := ctx.Value(sessionKey{}).(domain.SessionContext)
	return sc, ok
}
