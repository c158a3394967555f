package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
)

func TestSessionRoutes_LoginLogoutRoundTrip(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before, err := decodeBody[map[string]any](rec)
	require.NoError(t, err)
	assert.Equal(t, false, before["active"])

	rec = env.do(http.MethodPost, "/api/session/login", map[string]string{
		"email": "gamer@levelup.cl", "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	logged, err := decodeBody[map[string]any](rec)
	require.NoError(t, err)
	assert.Equal(t, true, logged["active"])
	assert.Equal(t, "mock-token-1", logged["token"])
	require.NotNil(t, logged["usuario"])

	rec = env.do(http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current, err := decodeBody[map[string]any](rec)
	require.NoError(t, err)
	assert.Equal(t, true, current["active"])

	rec = env.do(http.MethodPost, "/api/session/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/session", nil)
	after, err := decodeBody[map[string]any](rec)
	require.NoError(t, err)
	assert.Equal(t, false, after["active"])
}

func TestSessionRoutes_LoginValidation(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/session/login", map[string]string{
		"email": "", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, err := decodeBody[map[string]string](rec)
	require.NoError(t, err)
	assert.Equal(t, "validation", body["error"])
}

func TestSessionRoutes_InvalidJSONRejected(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: env.ClientID})

	rec := httptest.NewRecorder()
	env.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientCookie_MintedWhenAbsent(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	env.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var minted string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == ClientCookieName {
			minted = cookie.Value
		}
	}
	require.NotEmpty(t, minted, "response must set the client cookie")
	_, err := uuid.Parse(minted)
	assert.NoError(t, err)
}

func TestClientCookie_ForgedValueReplaced(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: "../../other-namespace"})
	rec := httptest.NewRecorder()
	env.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var minted string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == ClientCookieName {
			minted = cookie.Value
		}
	}
	require.NotEmpty(t, minted)
	_, err := uuid.Parse(minted)
	assert.NoError(t, err)
}

func TestSessionRoutes_ClientsAreIsolated(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/session/login", map[string]string{
		"email": "gamer@levelup.cl", "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// A different browser client sees no session.
	other := &testEnv{Handler: env.Handler, ClientID: uuid.NewString()}
	rec = other.do(http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := decodeBody[map[string]any](rec)
	require.NoError(t, err)
	assert.Equal(t, false, body["active"])
}
