package auth

import (
	"crypto/rand"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Authenticator bundles the key store and token secret behind one check.
type Authenticator struct {
	store  *KeyStore
	secret []byte
	logger *zap.Logger
}

// NewAuthenticator wires the key store with the JWT secret. An empty secret
// is replaced by a random per-process one: tokens must never be signed with
// a key an outsider can guess. Tokens minted under a generated secret do not
// survive a restart.
func NewAuthenticator(store *KeyStore, secret string, logger *zap.Logger) *Authenticator {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("auth: failed to generate a token secret: " + err.Error())
		}
		logger.Warn("JWT_SECRET not set, using a random per-process secret")
	}
	return &Authenticator{store: store, secret: key, logger: logger}
}

// Middleware guards HTTP routes. No keys configured means open access;
// otherwise the request must carry a valid X-API-Key header or a bearer
// token minted from one.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !a.store.Enabled() {
				return next(c)
			}

			apiKey := c.Request().Header.Get("X-API-Key")
			bearer := bearerToken(c.Request().Header.Get("Authorization"))

			if apiKey == "" && bearer == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":  "missing_api_key",
					"detail": "X-API-Key header or bearer token required.",
				})
			}

			if !a.allow(apiKey, bearer) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error":  "invalid_api_key",
					"detail": "Invalid or inactive API key.",
				})
			}

			return next(c)
		}
	}
}

// AllowWebSocket authorizes a streaming connection before the upgrade. The
// key may arrive as a header or, for browser clients that cannot set
// headers on WebSocket requests, as an api_key query parameter.
func (a *Authenticator) AllowWebSocket(c echo.Context) bool {
	if !a.store.Enabled() {
		return true
	}

	apiKey := c.Request().Header.Get("X-API-Key")
	if apiKey == "" {
		apiKey = c.QueryParam("api_key")
	}
	bearer := bearerToken(c.Request().Header.Get("Authorization"))

	return a.allow(apiKey, bearer)
}

// IssueToken exchanges a valid API key for a signed bearer token.
func (a *Authenticator) IssueToken(apiKey string) (string, string, error) {
	entry, ok := a.store.Lookup(apiKey)
	if !ok {
		return "", "", echo.ErrForbidden
	}

	token, expiresAt, err := GenerateToken(a.secret, entry.Name)
	if err != nil {
		a.logger.Error("Failed to generate bearer token",
			zap.String("key_name", entry.Name),
			zap.Error(err))
		return "", "", err
	}
	return token, expiresAt.UTC().Format(time.RFC3339), nil
}

func (a *Authenticator) allow(apiKey, bearer string) bool {
	if apiKey != "" && a.store.Verify(apiKey) {
		return true
	}
	if bearer != "" {
		if _, err := ValidateToken(a.secret, bearer); err == nil {
			return true
		}
	}
	return false
}

func bearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
