package client

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTarget(t *testing.T) {
	testCases := []struct {
		name   string
		raw    string
		exp    Target
		expErr error
	}{
		{
			name: "full url",
			raw:  "http://example.com/a/b.mp3",
			exp:  Target{Host: "example.com", Port: 80, Path: "/a/b.mp3"},
		},
		{
			name: "explicit port",
			raw:  "http://127.0.0.1:8080/x?y=z",
			exp:  Target{Host: "127.0.0.1", Port: 8080, Path: "/x?y=z"},
		},
		{
			name: "no path",
			raw:  "http://example.com",
			exp:  Target{Host: "example.com", Port: 80, Path: "/"},
		},
		{
			name: "no scheme",
			raw:  "example.com/file",
			exp:  Target{Host: "example.com", Port: 80, Path: "/file"},
		},
		{
			name: "upper case scheme",
			raw:  "HTTP://example.com/",
			exp:  Target{Host: "example.com", Port: 80, Path: "/"},
		},
		{
			name: "bracketed ipv6 without port",
			raw:  "http://[::1]/x",
			exp:  Target{Host: "::1", Port: 80, Path: "/x"},
		},
		{
			name: "bracketed ipv6 with port",
			raw:  "http://[::1]:8080/x",
			exp:  Target{Host: "::1", Port: 8080, Path: "/x"},
		},
		{
			name:   "https",
			raw:    "https://example.com/",
			expErr: ErrTLSUnsupported,
		},
		{
			name:   "ftp",
			raw:    "ftp://example.com/",
			expErr: ErrInvalidTarget,
		},
		{
			name:   "missing host",
			raw:    "http:///path",
			expErr: ErrInvalidTarget,
		},
		{
			name:   "bad port",
			raw:    "http://example.com:99999/",
			expErr: ErrInvalidTarget,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTarget(tc.raw)
			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Fatalf("err = %v, want %v", err, tc.expErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("target mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTarget_Resolve(t *testing.T) {
	base := Target{Host: "example.com", Port: 8080, Path: "/old"}

	got, err := base.Resolve("/new?q=1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(Target{Host: "example.com", Port: 8080, Path: "/new?q=1"}, got); diff != "" {
		t.Errorf("relative mismatch (-want +got):\n%s", diff)
	}

	got, err = base.Resolve("http://cdn.example.com/blob")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(Target{Host: "cdn.example.com", Port: 80, Path: "/blob"}, got); diff != "" {
		t.Errorf("absolute mismatch (-want +got):\n%s", diff)
	}
}

func TestTarget_String(t *testing.T) {
	if got := (Target{Host: "a", Port: 80, Path: "/x"}).String(); got != "http://a/x" {
		t.Errorf("got %q", got)
	}
	if got := (Target{Host: "a", Port: 81, Path: "/x"}).String(); got != "http://a:81/x" {
		t.Errorf("got %q", got)
	}
	if got := (Target{Host: "::1", Port: 80, Path: "/x"}).String(); got != "http://[::1]/x" {
		t.Errorf("got %q", got)
	}
	if got := (Target{Host: "::1", Port: 8080, Path: "/x"}).String(); got != "http://[::1]:8080/x" {
		t.Errorf("got %q", got)
	}
}
