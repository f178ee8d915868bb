package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/auth"
	"estate-admin/internal/credstore"
	"estate-admin/internal/model"
	"estate-admin/internal/session"
)

func testGuard(t *testing.T, role model.Role) (*session.Guard, string) {
	t.Helper()
	store := credstore.New()
	ok := store.Set("u1", credstore.Credentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Email:        "admin@example.com",
		User:         &model.User{ID: "u1", Email: "admin@example.com", Role: role},
	})
	if !ok {
		t.Fatalf("seed credentials")
	}
	cfg := auth.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := auth.CreateToken("u1", string(role), cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	return session.NewGuard(store, cfg, nil, false), tok
}

func TestRequireSession_SetsSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard, tok := testGuard(t, model.RoleAdmin)

	r := gin.New()
	r.GET("/", RequireSession(guard, model.RoleAdmin), func(c *gin.Context) {
		res, ok := SessionFromContext(c)
		if !ok || res.UserID != "u1" || res.Credentials.AccessToken != "access" {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireSession_MissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard, _ := testGuard(t, model.RoleAdmin)

	r := gin.New()
	r.GET("/", RequireSession(guard, model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireSession_RoleMismatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard, tok := testGuard(t, model.RoleAgent)

	r := gin.New()
	r.GET("/", RequireSession(guard, model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for role mismatch, got %d", w.Code)
	}
}

func TestRequireSession_OwnerOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard, tok := testGuard(t, model.RoleOwner)

	r := gin.New()
	r.GET("/", RequireSession(guard, model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected OWNER to pass, got %d", w.Code)
	}
}
