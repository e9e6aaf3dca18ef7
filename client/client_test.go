package client_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/pollhttp/client"
	"github.com/adamwoolhether/pollhttp/internal/validate"
	"github.com/adamwoolhether/pollhttp/transport/transporttest"
)

func TestClient_Get_WritesFixedRequest(t *testing.T) {
	nw := transporttest.NewNetwork(func(req transporttest.Request) transporttest.Reply {
		return transporttest.Reply{
			Data:   transporttest.HTTP(http.StatusOK, map[string]string{"Content-Length": "2"}, "ok"),
			Hangup: true,
		}
	})

	c, err := client.New(t.Context(), "example.com", 80, client.WithConnFactory(nw.Factory))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	defer c.Close()

	if c.Host() != "example.com" || c.Port() != 80 {
		t.Errorf("client endpoint = %s:%d, want example.com:80", c.Host(), c.Port())
	}

	resp := c.Get(t.Context(), "/files/a.bin?x=1")
	if !resp.OK() {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}

	reqs := nw.Requests()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}

	want := "GET /files/a.bin?x=1 HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n"
	if diff := cmp.Diff(want, reqs[0].Raw); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Get_BracketsIPv6HostHeader(t *testing.T) {
	nw := transporttest.NewNetwork(func(req transporttest.Request) transporttest.Reply {
		return transporttest.Reply{Data: transporttest.HTTP(http.StatusOK, nil, ""), Hangup: true}
	})

	target, err := client.ParseTarget("http://[::1]/x")
	if err != nil {
		t.Fatalf("parsing target: %v", err)
	}

	c, err := client.New(t.Context(), target.Host, target.Port, client.WithConnFactory(nw.Factory))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	defer c.Close()

	c.Get(t.Context(), target.Path)

	reqs := nw.Requests()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	if reqs[0].Host != "::1" {
		t.Errorf("dialed host = %q, want ::1", reqs[0].Host)
	}
	want := "GET /x HTTP/1.1\r\nHost: [::1]\r\nConnection: close\r\n\r\n"
	if diff := cmp.Diff(want, reqs[0].Raw); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Get_ReconnectsExactlyOnce(t *testing.T) {
	nw := transporttest.NewNetwork(func(req transporttest.Request) transporttest.Reply {
		return transporttest.Reply{Data: transporttest.HTTP(http.StatusOK, nil, ""), Hangup: true}
	})
	nw.Refuse(true)

	c, err := client.New(t.Context(), "example.com", 80, client.WithConnFactory(nw.Factory))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	defer c.Close()

	resp := c.Get(t.Context(), "/")

	if !resp.Done() {
		t.Error("failed response should be done")
	}
	if resp.StatusCode() != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode(), http.StatusBadRequest)
	}
	if !errors.Is(resp.Err(), client.ErrNotConnected) {
		t.Errorf("err = %v, want %v", resp.Err(), client.ErrNotConnected)
	}
	if !errors.Is(resp.Err(), transporttest.ErrRefused) {
		t.Errorf("err = %v, want it to wrap %v", resp.Err(), transporttest.ErrRefused)
	}

	conns := nw.Conns()
	if len(conns) != 1 {
		t.Fatalf("got %d conns, want 1", len(conns))
	}
	if n := conns[0].Connects(); n != 2 {
		t.Errorf("connect attempts = %d, want 2 (initial + one retry)", n)
	}

	nw.Refuse(false)

	resp = c.Get(t.Context(), "/")
	if !resp.OK() {
		t.Errorf("status after network recovered = %d, want 200", resp.StatusCode())
	}
}

func TestClient_Get_FreshConnectionPerRequest(t *testing.T) {
	nw := transporttest.NewNetwork(func(req transporttest.Request) transporttest.Reply {
		return transporttest.Reply{
			Data:   transporttest.HTTP(http.StatusOK, map[string]string{"Content-Length": "1"}, "x"),
			Hangup: true,
		}
	})

	c, err := client.New(t.Context(), "example.com", 80, client.WithConnFactory(nw.Factory))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	defer c.Close()

	for range 3 {
		resp := c.Get(t.Context(), "/")
		if !resp.OK() {
			t.Fatalf("status = %d, want 200", resp.StatusCode())
		}
	}

	if n := nw.Conns()[0].Connects(); n != 3 {
		t.Errorf("connects = %d, want 3", n)
	}
	if n := len(nw.Requests()); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}

func TestClient_Get_OverTCP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !r.Close {
			t.Error("expected the request to ask for Connection: close")
		}
		w.Header().Set("Content-Length", "11")
		fmt.Fprint(w, "hello world")
	}))
	defer ts.Close()

	target, err := client.ParseTarget(ts.URL + "/greeting")
	if err != nil {
		t.Fatalf("parsing target: %v", err)
	}

	c, err := client.New(t.Context(), target.Host, target.Port, client.WithPollInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	defer c.Close()

	resp := c.Get(t.Context(), target.Path)
	if !resp.OK() {
		t.Fatalf("status = %d, want 200 (err %v)", resp.StatusCode(), resp.Err())
	}
	if resp.ContentLength() != 11 {
		t.Errorf("content length = %d, want 11", resp.ContentLength())
	}

	body, err := resp.ReadAll(t.Context())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if string(body) != "hello world" {
		t.Errorf("body = %q, want %q", body, "hello world")
	}
}

func TestResponse_Decode(t *testing.T) {
	type release struct {
		Version string `json:"version" validate:"required"`
		Size    int    `json:"size" validate:"gte=1"`
	}

	testCases := []struct {
		name      string
		status    int
		body      string
		exp       release
		expStatus bool
		expFields []string
		expErr    bool
	}{
		{
			name:   "valid",
			status: http.StatusOK,
			body:   `{"version":"1.2.3","size":42}`,
			exp:    release{Version: "1.2.3", Size: 42},
		},
		{
			name:      "fails validation",
			status:    http.StatusOK,
			body:      `{"size":0}`,
			expFields: []string{"size", "version"},
			expErr:    true,
		},
		{
			name:   "bad json",
			status: http.StatusOK,
			body:   `{"version":`,
			expErr: true,
		},
		{
			name:      "unexpected status",
			status:    http.StatusNotFound,
			body:      `{}`,
			expStatus: true,
			expErr:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nw := transporttest.NewNetwork(func(req transporttest.Request) transporttest.Reply {
				return transporttest.Reply{Data: transporttest.HTTP(tc.status, nil, tc.body), Hangup: true}
			})

			c, err := client.New(t.Context(), "api.example.com", 80, client.WithConnFactory(nw.Factory))
			if err != nil {
				t.Fatalf("creating client: %v", err)
			}
			defer c.Close()

			var got release
			err = c.Get(t.Context(), "/release.json").Decode(t.Context(), &got)

			if tc.expErr != (err != nil) {
				t.Fatalf("err = %v, expErr %v", err, tc.expErr)
			}

			if tc.expStatus {
				var statusErr *client.UnexpectedStatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("expected UnexpectedStatusError, got %v", err)
				}
				if statusErr.StatusCode != tc.status {
					t.Errorf("status = %d, want %d", statusErr.StatusCode, tc.status)
				}
			}

			if tc.expFields != nil {
				fields := validate.GetFieldErrors(err).Fields()
				for _, f := range tc.expFields {
					if _, ok := fields[f]; !ok {
						t.Errorf("expected field error for %q, got %v", f, fields)
					}
				}
			}

			if !tc.expErr {
				if diff := cmp.Diff(tc.exp, got); diff != "" {
					t.Errorf("decoded mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestNew_OptionValidation(t *testing.T) {
	testCases := []struct {
		name string
		opt  client.Option
	}{
		{"nil factory", client.WithConnFactory(nil)},
		{"zero poll interval", client.WithPollInterval(0)},
		{"negative poll interval", client.WithPollInterval(-time.Second)},
		{"nil tracer", client.WithTracer(nil)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := client.New(t.Context(), "h", 80, tc.opt); err == nil {
				t.Error("expected option error")
			}
		})
	}
}
