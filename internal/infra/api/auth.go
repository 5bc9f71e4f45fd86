package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"realty-marketplace/internal/infra/logging"
)

var (
	errMissingToken = errors.New("no authentication token found")
	errInvalidToken = errors.New("invalid or expired token")
)

// OwnerClaims is the token issued by the account service. UserID names the
// agency owner; Subject is accepted when userId is absent.
type OwnerClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *OwnerClaims) owner() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Mint signs a token for userID. Token issuance belongs to the account
// service; this exists for seeding and local development.
func (a *Authenticator) Mint(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := OwnerClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) ParseFromRequest(r *http.Request) (*OwnerClaims, error) {
	tok, ok := bearer(r)
	if !ok {
		return nil, errMissingToken
	}
	return a.parse(tok)
}

func (a *Authenticator) parse(tok string) (*OwnerClaims, error) {
	claims := &OwnerClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.owner() == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// RequireOwner rejects requests without a valid token and puts the owner id
// into the request context.
func (a *Authenticator) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.ParseFromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Message: err.Error()})
			return
		}
		ctx := logging.WithUserID(r.Context(), claims.owner())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdminKey guards the operator routes with a static bearer key.
func RequireAdminKey(apiKey string, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				logger.Error().Msg("Admin API key is not configured")
				writeJSON(w, http.StatusForbidden, errorBody{Message: "forbidden"})
				return
			}
			tok, ok := bearer(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthorized"})
				return
			}
			if subtle.ConstantTimeCompare([]byte(tok), []byte(apiKey)) != 1 {
				writeJSON(w, http.StatusForbidden, errorBody{Message: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// owner returns the id stored by RequireOwner.
func owner(r *http.Request) string {
	id, _ := logging.UserID(r.Context())
	return id
}
