package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core"
	"github.com/bmukendi/kongamano/core/account"
)

const (
	sessionCookieName  = "session"
	contextIdentityKey = "identity"
	contextAccountKey  = "account"
)

// SessionClaims represents the session identity transmitted via a JWT. It
// carries the OAuth-derived profile; the account link is resolved per request.
type SessionClaims struct {
	jwt.StandardClaims
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

func GetIdentityClaims(ident account.Identity, conf *core.Config) *SessionClaims {
	now := time.Now()
	return &SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   ident.Email,
			ExpiresAt: now.Add(conf.SessionMaxAge).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:    ident.Name,
		Email:   ident.Email,
		Picture: ident.Picture,
	}
}

// GenerateSessionToken generates a signed JWT token string representing the
// session identity Claims.
func GenerateSessionToken(claims *SessionClaims, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// sessionMiddleware attaches the session identity to the request context. The
// token is read from the session cookie or a Bearer header. A missing, expired
// or otherwise invalid token means an anonymous request, never an error.
func sessionMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if raw := extractSessionToken(ctx.Request()); raw != "" {
				claims := new(SessionClaims)
				token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
					}
					return []byte(conf.SecretKey), nil
				})
				if err == nil && token.Valid && claims.Email != "" {
					ctx.Set(contextIdentityKey, &account.Identity{
						Email:   claims.Email,
						Name:    claims.Name,
						Picture: claims.Picture,
					})
				}
			}
			return next(ctx)
		}
	}
}

func extractSessionToken(req *http.Request) string {
	if cookie, err := req.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := req.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// getContextIdentity returns the session identity, or nil for an anonymous
// request.
func getContextIdentity(ctx echo.Context) *account.Identity {
	if ident, ok := ctx.Get(contextIdentityKey).(*account.Identity); ok {
		return ident
	}
	return nil
}

// getContextAccount resolves the session identity to its Account, caching it
// on the context. account.ErrNotFound means a session without an account (or
// no session at all).
func getContextAccount(ctx echo.Context, svc *account.Service) (account.Account, error) {
	if acct, ok := ctx.Get(contextAccountKey).(account.Account); ok {
		return acct, nil
	}

	acct, err := svc.Resolve(ctx.Request().Context(), getContextIdentity(ctx))
	if err != nil {
		return account.Account{}, err
	}
	ctx.Set(contextAccountKey, acct)
	return acct, nil
}
