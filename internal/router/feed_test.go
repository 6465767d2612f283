package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"greencart.dev/storefront/pkg/events"
)

func TestSellerFeedStreamsEvents(t *testing.T) {
	ts := newTestServer(testConfig())
	srv := httptest.NewServer(ts.engine)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "https://shop.test")
	header.Set("Cookie", "sellerToken="+sellerToken(t, testSeller).Value)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/order/seller/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ts.feed.ch <- events.New(events.OrderPaid, "o1", "u1")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != events.OrderPaid || ev.OrderID != "o1" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestSellerFeedRejectsForeignOrigin(t *testing.T) {
	ts := newTestServer(testConfig())
	srv := httptest.NewServer(ts.engine)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.test")
	header.Set("Cookie", "sellerToken="+sellerToken(t, testSeller).Value)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/order/seller/feed"
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("dial from a foreign origin should fail")
	}
}
