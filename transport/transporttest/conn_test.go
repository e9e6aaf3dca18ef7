package transporttest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNetwork_ServesRequestHead(t *testing.T) {
	nw := NewNetwork(func(req Request) Reply {
		return Reply{Data: []byte("pong"), Hangup: true}
	})

	c := nw.Factory()
	if err := c.Connect(t.Context(), "example.com", 8080); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := c.Write([]byte("GET /a HTTP/1.1\r\nHost: example.com\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if c.Available() != 0 {
		t.Fatal("handler ran before the request head was complete")
	}
	if _, err := c.Write([]byte("\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := []Request{{
		Host:   "example.com",
		Port:   8080,
		Method: "GET",
		Path:   "/a",
		Proto:  "HTTP/1.1",
		Header: map[string]string{"Host": "example.com"},
		Raw:    "GET /a HTTP/1.1\r\nHost: example.com\r\n\r\n",
	}}
	if diff := cmp.Diff(want, nw.Requests()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}

	var got []byte
	for c.Connected() {
		b, err := c.ReadByte()
		if err != nil {
			t.Fatalf("read byte: %v", err)
		}
		got = append(got, b)
	}
	if string(got) != "pong" {
		t.Errorf("got %q, want %q", got, "pong")
	}
}

func TestNetwork_Refuse(t *testing.T) {
	nw := NewNetwork(nil)
	nw.Refuse(true)

	c := nw.Factory()
	if err := c.Connect(t.Context(), "h", 80); !errors.Is(err, ErrRefused) {
		t.Fatalf("connect err = %v, want %v", err, ErrRefused)
	}
	if c.Connected() {
		t.Error("refused conn reports connected")
	}
}

func TestConn_FeedAndHangup(t *testing.T) {
	c := NewConn()
	if err := c.Connect(t.Context(), "h", 80); err != nil {
		t.Fatalf("connect: %v", err)
	}

	c.Feed([]byte("ab"))
	c.Hangup()

	if !c.Connected() {
		t.Fatal("conn with unread bytes should report connected")
	}
	if _, err := c.Write([]byte("x")); err == nil {
		t.Error("expected write after hangup to fail")
	}

	c.ReadByte()
	c.ReadByte()

	if c.Connected() {
		t.Error("drained, hung-up conn reports connected")
	}
}

func TestHTTP(t *testing.T) {
	got := string(HTTP(200, map[string]string{"Content-Length": "4", "A": "b"}, "abcd"))
	want := "HTTP/1.1 200 OK\r\nA: b\r\nContent-Length: 4\r\n\r\nabcd"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
