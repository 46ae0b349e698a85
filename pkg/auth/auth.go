/*
auth verifies Clerk session tokens. A session token is an RS256 JWT signed
with the instance key; the subject is the Clerk user id. Tokens are read
from the Authorization header or from the __session cookie which Clerk sets
for same-site requests.
*/
package auth

import (
	"context"
	"crypto/rsa"
	"net/http"
	"slices"
	"strings"
	"time"

	// Packages
	debtstack "github.com/debtstack-ai/debtstack"
	jwt "github.com/golang-jwt/jwt/v5"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Verifier checks session tokens against the instance public key
type Verifier struct {
	key     *rsa.PublicKey
	parties []string
	leeway  time.Duration
}

// Opt is a functional option for the verifier
type Opt func(*Verifier) error

// Claims are the session token claims used by the gateway
type Claims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	Email           string `json:"email,omitempty"`
}

type claimsKey struct{}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SessionCookie = "__session"
	DefaultLeeway = 5 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewVerifier returns a verifier for the PEM encoded public key
func NewVerifier(pem string, opts ...Opt) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(strings.TrimSpace(pem)))
	if err != nil {
		return nil, debtstack.ErrBadParameter.Withf("session key: %v", err)
	}
	v := &Verifier{key: key, leeway: DefaultLeeway}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithAuthorizedParties restricts tokens to those issued for one of the
// given origins. With no parties, any azp claim is accepted.
func WithAuthorizedParties(parties ...string) Opt {
	return func(v *Verifier) error {
		for _, party := range parties {
			if party = strings.TrimSpace(party); party != "" {
				v.parties = append(v.parties, strings.TrimSuffix(party, "/"))
			}
		}
		return nil
	}
}

// WithLeeway sets the allowed clock skew
func WithLeeway(leeway time.Duration) Opt {
	return func(v *Verifier) error {
		if leeway < 0 {
			return debtstack.ErrBadParameter.With("leeway must not be negative")
		}
		v.leeway = leeway
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Verify parses and checks a session token, returning its claims
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := new(Claims)
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	); err != nil {
		return nil, debtstack.ErrUnauthorized.With(err)
	}
	if claims.Subject == "" {
		return nil, debtstack.ErrUnauthorized.With("session token has no subject")
	}
	if len(v.parties) > 0 && claims.AuthorizedParty != "" && !slices.Contains(v.parties, claims.AuthorizedParty) {
		return nil, debtstack.ErrUnauthorized.Withf("session token issued for %q", claims.AuthorizedParty)
	}
	return claims, nil
}

// VerifyRequest verifies the session token carried by a request
func (v *Verifier) VerifyRequest(r *http.Request) (*Claims, error) {
	token := Token(r)
	if token == "" {
		return nil, debtstack.ErrUnauthorized.With("missing session token")
	}
	return v.Verify(token)
}

// Token returns the bearer token, or the session cookie, from a request
func Token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// WithClaims returns a context carrying the verified claims
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the verified claims, if any
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// UserID returns the Clerk user id of the verified session, or an empty string
func UserID(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}
