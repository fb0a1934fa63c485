package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domains/auth/service"
	"storefront/internal/infrastructure/api"
	"storefront/internal/preference"
	"storefront/pkg/eventbus"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resetCounter struct{ n int }

func (r *resetCounter) Reset() { r.n++ }

// remoteAuth fakes the three auth endpoints
func remoteAuth(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/login/":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"No active account found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access":"tok","refresh":"ref","user":{"id":1,"username":"ana"}}`)
	case "/auth/registro/":
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"username":["A user with that username already exists."]}`)
	case "/auth/perfil/":
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id":1,"username":"ana","email":"ana@example.com"}`)
	default:
		http.NotFound(w, r)
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *resetCounter, *eventbus.Bus) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(http.HandlerFunc(remoteAuth))
	t.Cleanup(srv.Close)

	tokens := service.NewTokenStore(preference.NewStore(preference.NewMemoryBackend()))
	client := api.NewClient(srv.URL, time.Second, tokens)
	bus := eventbus.New()
	resets := &resetCounter{}

	r := gin.New()
	NewHandler(service.NewService(client, tokens), bus, resets).RegisterRoutes(r.Group("/api/v1"))
	return r, resets, bus
}

func send(r *gin.Engine, method, path, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func TestLoginMeLogout(t *testing.T) {
	r, resets, bus := setupRouter(t)
	events := 0
	t.Cleanup(bus.Subscribe(eventbus.CartChanged, func() { events++ }))

	code, _ := send(r, http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := send(r, http.MethodPost, "/api/v1/auth/login", `{"username":"ana","password":"secret"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ana", env["data"].(map[string]interface{})["username"])
	assert.Equal(t, 1, resets.n)
	assert.Equal(t, 1, events)

	code, env = send(r, http.MethodGet, "/api/v1/auth/me?refresh=true", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ana@example.com", env["data"].(map[string]interface{})["email"])

	code, _ = send(r, http.MethodPost, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, resets.n)

	code, _ = send(r, http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogin_WrongPassword(t *testing.T) {
	r, resets, _ := setupRouter(t)

	code, env := send(r, http.MethodPost, "/api/v1/auth/login", `{"username":"ana","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, env["error"].(map[string]interface{})["message"], "No active account found")
	assert.Zero(t, resets.n)
}

func TestLogin_MissingFields(t *testing.T) {
	r, _, _ := setupRouter(t)

	code, env := send(r, http.MethodPost, "/api/v1/auth/login", `{"username":"ana"}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env["error"].(map[string]interface{})["code"])
}

func TestRegister_ServerFieldError(t *testing.T) {
	r, _, _ := setupRouter(t)

	body := `{"username":"ana","email":"ana@example.com","password":"password1","password2":"password1"}`
	code, env := send(r, http.MethodPost, "/api/v1/auth/register", body)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "username: A user with that username already exists.", env["error"].(map[string]interface{})["message"])
}
