package router

import (
	"net/url"
	"testing"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad url %q: %v", raw, err)
	}
	return u
}

func TestLookupMatchesRegisteredMounts(t *testing.T) {
	providers := []Provider{
		{Mount: "/foo", Origin: mustURL(t, "s3://bucket/images")},
		{Mount: "/bar", Origin: mustURL(t, "http://example.com/images")},
		{Mount: "/baz", Origin: mustURL(t, "file://localhost/./images")},
	}
	rt, err := New(providers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, p := range providers {
		got, mount, ok := rt.Lookup(p.Mount + "/anything.jpg")
		if !ok {
			t.Fatalf("expected match for %s", p.Mount)
		}
		if mount != p.Mount {
			t.Errorf("mount = %q, want %q", mount, p.Mount)
		}
		if got.Origin.String() != p.Origin.String() {
			t.Errorf("origin = %q, want %q", got.Origin, p.Origin)
		}
	}
}

func TestLookupMiss(t *testing.T) {
	rt, err := New([]Provider{{Mount: "/foo", Origin: mustURL(t, "s3://bucket/images")}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _, ok := rt.Lookup("/nope/x.jpg")
	if ok {
		t.Fatal("expected miss")
	}
}

func TestDuplicateMountRejected(t *testing.T) {
	_, err := New([]Provider{
		{Mount: "/foo", Origin: mustURL(t, "s3://a/x")},
		{Mount: "/foo", Origin: mustURL(t, "s3://b/y")},
	})
	if err == nil {
		t.Fatal("expected error for duplicate mount")
	}
}
