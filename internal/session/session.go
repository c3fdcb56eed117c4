package session

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/butikdev/backend-butik/internal/common"
)

// Header names trusted from the upstream auth layer. Authentication itself
// happens before requests reach this service; here the identity is only
// consumed to scope carts and orders.
const (
	HeaderUserID = "X-User-Id"
	HeaderEmail  = "X-User-Email"
)

// Resolver assigns every request a cart owner key. Signed-in requests use
// the upstream user id; anonymous ones get a cookie-backed session id that
// survives the redirect round trip to the payment provider.
type Resolver struct {
	CookieName string
	Secure     bool
}

// Middleware populates the user id and cart owner on the request context.
func (s Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if userID := strings.TrimSpace(r.Header.Get(HeaderUserID)); userID != "" {
			ctx = common.WithUserID(ctx, userID)
			ctx = common.WithCartOwner(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		owner := ""
		if cookie, err := r.Cookie(s.CookieName); err == nil {
			if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
				owner = cookie.Value
			}
		}
		if owner == "" {
			owner = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     s.CookieName,
				Value:    owner,
				Path:     "/",
				MaxAge:   60 * 60 * 24 * 30,
				HttpOnly: true,
				Secure:   s.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx = common.WithCartOwner(ctx, "anon:"+owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Email returns the trusted email header, if any.
func Email(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderEmail))
}
