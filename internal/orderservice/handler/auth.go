package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wheres-my-food/pkg/config"
	"wheres-my-food/pkg/models"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by Authenticator, or the zero
// Principal for anonymous requests.
func PrincipalFrom(ctx context.Context) models.Principal {
	p, _ := ctx.Value(principalKey{}).(models.Principal)
	return p
}

// Authenticator validates HS256 bearer tokens carrying sub, role and
// vendor_id claims.
type Authenticator struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Authenticator{secret: []byte(cfg.JWTSecret), opts: opts}
}

type claims struct {
	Role     string `json:"role"`
	VendorID string `json:"vendor_id"`
	jwt.RegisteredClaims
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauthorized(w, "missing bearer token")
			return
		}

		p, err := a.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Parse verifies raw and returns the principal it names.
func (a *Authenticator) Parse(raw string) (models.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, a.opts...)
	if err != nil {
		return models.Principal{}, err
	}
	if c.Subject == "" || c.Role == "" {
		return models.Principal{}, models.ErrUnauthenticated
	}
	return models.Principal{
		ID:       c.Subject,
		Role:     models.Role(strings.ToUpper(c.Role)),
		VendorID: c.VendorID,
	}, nil
}

// Issue signs a token for p. Used by tests and local tooling.
func (a *Authenticator) Issue(p models.Principal, issuer, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role:     string(p.Role),
		VendorID: p.VendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if issuer != "" {
		c.Issuer = issuer
	}
	if audience != "" {
		c.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.secret)
}

func unauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	writeError(w, http.StatusUnauthorized, codeUnauthenticated, desc)
}
