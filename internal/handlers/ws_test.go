package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/feed"
)

type wireUpdate struct {
	Type   string   `json:"type"`
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
	Error  string   `json:"error"`
}

func newWSServer(t *testing.T, interval time.Duration) (*httptest.Server, *feed.Broker) {
	t.Helper()
	broker := feed.NewBroker(newStubPrices(), interval, common.NewSilentLogger(), nil)
	srv := httptest.NewServer(NewWSHandler(broker, common.NewSilentLogger()))
	t.Cleanup(func() {
		broker.Close()
		srv.Close()
	})
	return srv, broker
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) wireUpdate {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var u wireUpdate
	if err := conn.ReadJSON(&u); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return u
}

func TestWS_SubscribeReceivesUpdates(t *testing.T) {
	srv, _ := newWSServer(t, 10*time.Millisecond)
	conn := dial(t, srv)

	conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": "aapl"})

	u := readUpdate(t, conn)
	if u.Type != "priceUpdate" || u.Symbol != "AAPL" {
		t.Fatalf("unexpected message %+v", u)
	}
	if u.Price == nil || *u.Price != 100 {
		t.Errorf("expected price 100, got %v", u.Price)
	}
}

func TestWS_NullPriceDelivered(t *testing.T) {
	srv, _ := newWSServer(t, 10*time.Millisecond)
	conn := dial(t, srv)

	conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": "ZZZZ"})

	u := readUpdate(t, conn)
	if u.Type != "priceUpdate" || u.Price != nil {
		t.Errorf("expected null price update, got %+v", u)
	}
}

func TestWS_InvalidMessages(t *testing.T) {
	srv, _ := newWSServer(t, time.Hour)
	conn := dial(t, srv)

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	if u := readUpdate(t, conn); u.Type != "error" {
		t.Errorf("expected error for bad JSON, got %+v", u)
	}

	conn.WriteJSON(map[string]string{"type": "dance"})
	if u := readUpdate(t, conn); u.Type != "error" || u.Error != "unknown message type" {
		t.Errorf("expected unknown type error, got %+v", u)
	}

	conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": "not a symbol"})
	if u := readUpdate(t, conn); u.Type != "error" {
		t.Errorf("expected error for bad symbol, got %+v", u)
	}
}

func TestWS_DisconnectClosesSession(t *testing.T) {
	srv, broker := newWSServer(t, 10*time.Millisecond)
	conn := dial(t, srv)
	conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": "AAPL"})
	readUpdate(t, conn)

	if broker.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", broker.Count())
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for broker.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if broker.Count() != 0 {
		t.Errorf("session not released after disconnect, %d open", broker.Count())
	}
}

func TestWS_BrokerCloseDisconnectsClient(t *testing.T) {
	srv, broker := newWSServer(t, time.Hour)
	conn := dial(t, srv)

	deadline := time.Now().Add(2 * time.Second)
	for broker.Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	broker.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}
