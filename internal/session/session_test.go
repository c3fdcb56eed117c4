package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/butikdev/backend-butik/internal/common"
)

func resolveOwner(t *testing.T, prepare func(*http.Request)) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var owner string
	handler := Resolver{CookieName: "butik_session"}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, _ = common.CartOwner(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/checkout/quote", nil)
	if prepare != nil {
		prepare(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return owner, rec
}

func TestSignedInUserOwnsCartByUserID(t *testing.T) {
	owner, rec := resolveOwner(t, func(r *http.Request) {
		r.Header.Set(HeaderUserID, "user-42")
	})
	require.Equal(t, "user-42", owner)
	require.Empty(t, rec.Result().Cookies(), "no session cookie for signed-in users")
}

func TestAnonymousGetsSessionCookie(t *testing.T) {
	owner, rec := resolveOwner(t, nil)
	require.True(t, strings.HasPrefix(owner, "anon:"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "butik_session", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
}

func TestAnonymousSessionIsSticky(t *testing.T) {
	_, rec := resolveOwner(t, nil)
	issued := rec.Result().Cookies()[0]

	owner, rec2 := resolveOwner(t, func(r *http.Request) {
		r.AddCookie(issued)
	})
	require.Equal(t, "anon:"+issued.Value, owner)
	require.Empty(t, rec2.Result().Cookies(), "no new cookie once one exists")
}

func TestMalformedCookieIsReplaced(t *testing.T) {
	owner, rec := resolveOwner(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "butik_session", Value: "not-a-uuid"})
	})
	require.True(t, strings.HasPrefix(owner, "anon:"))
	require.Len(t, rec.Result().Cookies(), 1)
}
