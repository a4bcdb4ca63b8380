package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noisyneuron/noisyneuron/internal/middleware"
	"github.com/noisyneuron/noisyneuron/internal/model"
)

func signupValues(email string) url.Values {
	return url.Values{
		"email":            {email},
		"password":         {testPassword},
		"password_confirm": {testPassword},
		"first_name":       {"Ada"},
	}
}

func TestSignup_EstablishesSessionAndRedirects(t *testing.T) {
	hs := newHarness(t)

	rec := hs.serve(hs.h.Signup, nil, formRequest(http.MethodPost, "/accounts/signup/", signupValues("new@example.com")))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, PathProfile, rec.Header().Get("Location"))

	session := hs.storedSession(rec)
	assert.True(t, session.IsAuthenticated())
	require.Len(t, session.Flashes, 1)
	assert.Equal(t, MsgSignupSuccess, session.Flashes[0].Message)
	assert.Len(t, hs.accounts.profiles, 1)
}

func TestSignup_FlashShownOnceOnNextPage(t *testing.T) {
	hs := newHarness(t)

	rec := hs.serve(hs.h.Signup, nil, formRequest(http.MethodPost, "/accounts/signup/", signupValues("flash@example.com")))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, PathProfile, nil)
	req.AddCookie(cookie)
	rec = hs.serve(hs.h.Profile, middleware.RequireLogin(PathLogin), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to NoisyNeuron!")

	req = httptest.NewRequest(http.MethodGet, PathProfile, nil)
	req.AddCookie(cookie)
	rec = hs.serve(hs.h.Profile, middleware.RequireLogin(PathLogin), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Welcome to NoisyNeuron!")
}

func TestSignup_ValidationErrorRerendersForm(t *testing.T) {
	hs := newHarness(t)

	values := signupValues("bad@example.com")
	values.Set("password_confirm", "different-secret")

	rec := hs.serve(hs.h.Signup, nil, formRequest(http.MethodPost, "/accounts/signup/", values))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "didn&#39;t match")
	assert.Contains(t, body, `value="bad@example.com"`)
	assert.NotContains(t, body, testPassword)
	assert.Empty(t, hs.accounts.users)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	hs := newHarness(t)
	hs.accounts.addUser("taken@example.com")

	rec := hs.serve(hs.h.Signup, nil, formRequest(http.MethodPost, "/accounts/signup/", signupValues("taken@example.com")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "A user with this email already exists.")
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		password string
		wantCode int
		wantLoc  string
	}{
		{"default redirect", "/accounts/login/", testPassword, http.StatusSeeOther, PathDashboard},
		{"safe next", "/accounts/login/?next=%2Faccounts%2Fprofile%2F", testPassword, http.StatusSeeOther, PathProfile},
		{"open redirect rejected", "/accounts/login/?next=%2F%2Fevil.example.com", testPassword, http.StatusSeeOther, PathDashboard},
		{"wrong password", "/accounts/login/", "nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			hs.accounts.addUser("ada@example.com")

			values := url.Values{"email": {"ada@example.com"}, "password": {tt.password}}
			rec := hs.serve(hs.h.Login, nil, formRequest(http.MethodPost, tt.target, values))

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusSeeOther {
				assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
				assert.True(t, hs.storedSession(rec).IsAuthenticated())
				return
			}
			assert.Contains(t, rec.Body.String(), MsgInvalidCredentials)
			assert.Contains(t, rec.Body.String(), `value="ada@example.com"`)
		})
	}
}

func TestLogin_RotatesExistingSession(t *testing.T) {
	hs := newHarness(t)
	hs.accounts.addUser("ada@example.com")
	hs.store.data["anon-token"] = model.Session{CreatedAt: time.Now()}

	req := formRequest(http.MethodPost, "/accounts/login/", url.Values{"email": {"ada@example.com"}, "password": {testPassword}})
	req.AddCookie(&http.Cookie{Name: middleware.DefaultSessionCookie, Value: "anon-token"})
	rec := hs.serve(hs.h.Login, nil, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, stillThere := hs.store.data["anon-token"]
	assert.False(t, stillThere, "pre-login session must be discarded")
}

func TestLogoutThenGatedPageRedirects(t *testing.T) {
	hs := newHarness(t)
	user := hs.accounts.addUser("ada@example.com")
	cookie := hs.loginAs(user)

	req := httptest.NewRequest(http.MethodPost, "/accounts/logout/", nil)
	req.AddCookie(cookie)
	rec := hs.serve(hs.h.Logout, nil, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, PathHome, rec.Header().Get("Location"))
	assert.Equal(t, []string{user.ID}, hs.accounts.logouts)

	fresh := hs.storedSession(rec)
	assert.False(t, fresh.IsAuthenticated())
	require.Len(t, fresh.Flashes, 1)
	assert.Equal(t, MsgLogoutSuccess, fresh.Flashes[0].Message)

	// the old cookie no longer authenticates
	req = httptest.NewRequest(http.MethodGet, PathDashboard, nil)
	req.AddCookie(cookie)
	rec = hs.serve(hs.h.Dashboard, middleware.RequireLogin(PathLogin), req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), PathLogin+"?next="))
}

func TestLogout_WithoutSession(t *testing.T) {
	hs := newHarness(t)

	rec := hs.serve(hs.h.Logout, nil, httptest.NewRequest(http.MethodGet, "/accounts/logout/", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, PathHome, rec.Header().Get("Location"))
}

func TestAuthRateLimited(t *testing.T) {
	hs := newHarness(t)

	for _, path := range []string{"/accounts/login/", "/accounts/signup/"} {
		rec := hs.serve(func(w http.ResponseWriter, r *http.Request) {
			hs.h.AuthRateLimited(w, r, 30*time.Second)
		}, nil, httptest.NewRequest(http.MethodPost, path, nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Too many attempts. Please try again in 30 seconds.", path)
	}
}

func TestLoginForm_CarriesSafeNext(t *testing.T) {
	hs := newHarness(t)

	rec := hs.serve(hs.h.LoginForm, nil, httptest.NewRequest(http.MethodGet, "/accounts/login/?next=%2F%2Fevil.example.com", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "evil.example.com")
}
