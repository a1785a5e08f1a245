package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/shorturl/pkg/config"
	"golang.org/x/oauth2"
)

// fakeGoogle serves the token and userinfo endpoints the callback talks to.
func fakeGoogle(t *testing.T, email string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","email":"` + email + `","verified_email":true}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestAuthHandler(cfg *config.Config, google *httptest.Server) *AuthHandler {
	h := NewAuthHandler(cfg)
	if google != nil {
		h.oauthConfig.Endpoint = oauth2.Endpoint{
			AuthURL:   google.URL + "/auth",
			TokenURL:  google.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
		h.userInfoURL = google.URL + "/userinfo"
	}
	return h
}

func callbackRequest(state, cookieState string) *http.Request {
	req := httptest.NewRequest("GET", "/auth/google/callback?code=c&state="+url.QueryEscape(state), nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: cookieState})
	}
	return req
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&config.Config{GoogleClientID: "client"})
	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest("GET", "/auth/google/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	state := findCookie(rr, stateCookie)
	require.NotNil(t, state)
	assert.True(t, state.HttpOnly)

	location, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, location.Query().Get("state"))
	assert.Equal(t, "client", location.Query().Get("client_id"))
}

func TestAuthHandler_CallbackWithoutStateCookie(t *testing.T) {
	h := NewAuthHandler(&config.Config{})
	rr := httptest.NewRecorder()
	h.Callback(rr, callbackRequest("abc", ""))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Nil(t, findCookie(rr, authCookie))
}

func TestAuthHandler_CallbackStateMismatch(t *testing.T) {
	h := NewAuthHandler(&config.Config{})
	rr := httptest.NewRecorder()
	h.Callback(rr, callbackRequest("abc", "other"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, findCookie(rr, authCookie))
}

func TestAuthHandler_CallbackIssuesToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "auth-secret", FrontendURL: "/api/v1/mappings"}
	h := newTestAuthHandler(cfg, fakeGoogle(t, "someone@example.com"))

	rr := httptest.NewRecorder()
	h.Callback(rr, callbackRequest("abc", "abc"))

	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/api/v1/mappings", rr.Header().Get("Location"))

	cookie := findCookie(rr, authCookie)
	require.NotNil(t, cookie)
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("auth-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", claims.Subject)
}

func TestAuthHandler_CallbackAllowlist(t *testing.T) {
	cfg := &config.Config{JWTSecret: "auth-secret", AllowedEmails: []string{"owner@example.com"}}
	h := newTestAuthHandler(cfg, fakeGoogle(t, "someone@example.com"))

	rr := httptest.NewRecorder()
	h.Callback(rr, callbackRequest("abc", "abc"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Nil(t, findCookie(rr, authCookie))
}

func TestAuthHandler_Logout(t *testing.T) {
	h := NewAuthHandler(&config.Config{FrontendURL: "/api/v1/mappings"})
	req := httptest.NewRequest("GET", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: authCookie, Value: "token"})

	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/api/v1/mappings", rr.Header().Get("Location"))
	cookie := findCookie(rr, authCookie)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}
