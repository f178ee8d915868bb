package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"estate-admin/internal/auth"
	"estate-admin/internal/credstore"
	"estate-admin/internal/hub"
	"estate-admin/internal/model"
	"estate-admin/internal/session"
)

func newWebSocketFixture(t *testing.T) (*hub.Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := credstore.New()
	store.Set("admin-1", credstore.Credentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Email:        "admin@example.com",
		User:         &model.User{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin},
	})

	tokenCfg := auth.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	token, err := auth.CreateToken("admin-1", string(model.RoleAdmin), tokenCfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	wsHub := hub.New()
	h := &WebSocketHandler{
		Hub:   wsHub,
		Guard: session.NewGuard(store, tokenCfg, nil, false),
	}

	r := gin.New()
	r.GET("/ws", h.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for wsHub.Connections("admin-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return wsHub, conn
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &WebSocketHandler{
		Hub:   hub.New(),
		Guard: session.NewGuard(credstore.New(), auth.TokenConfig{Secret: "secret", Expiry: time.Hour}, nil, false),
	}
	r := gin.New()
	r.GET("/ws", h.Serve)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=garbage"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("expected handshake to fail")
	}
}

func TestWebSocketDeliversBroadcast(t *testing.T) {
	wsHub, conn := newWebSocketFixture(t)

	wsHub.BroadcastEvent(hub.Event{Type: hub.EventPropertyStatusChanged, Body: map[string]string{"propertyId": "p1"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var event hub.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Type != hub.EventPropertyStatusChanged {
		t.Fatalf("unexpected event: %s", data)
	}
}

// Many request goroutines broadcast at once while the connection's ping loop
// runs; every write must land on the wire intact.
func TestWebSocketConcurrentBroadcasts(t *testing.T) {
	wsHub, conn := newWebSocketFixture(t)

	const events = 100
	var wg sync.WaitGroup
	for i := 0; i < events; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wsHub.BroadcastEvent(hub.Event{Type: hub.EventPropertyStatusChanged, Body: map[string]string{"propertyId": "p1"}})
		}()
	}

	for i := 0; i < events; i++ {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage after %d events: %v", i, err)
		}
		var event hub.Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("unmarshal %q: %v", data, err)
		}
		if event.Type != hub.EventPropertyStatusChanged {
			t.Fatalf("unexpected event: %s", data)
		}
	}
	wg.Wait()

	if wsHub.Connections("admin-1") != 1 {
		t.Fatalf("expected connection to survive, got %d", wsHub.Connections("admin-1"))
	}
}
