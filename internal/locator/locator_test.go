package locator

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

func TestBuildS3(t *testing.T) {
	origin := mustParse(t, "s3://bucket/images")
	got, err := Build(origin, "lenna.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s3loc, ok := got.(*S3)
	if !ok {
		t.Fatalf("expected *S3, got %T", got)
	}
	if s3loc.Bucket != "bucket" || s3loc.Key != "images/lenna.jpg" {
		t.Errorf("got %+v", s3loc)
	}
}

func TestBuildS3NoHost(t *testing.T) {
	origin := mustParse(t, "s3:///images")
	_, err := Build(origin, "lenna.jpg")
	if err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestBuildHTTPIdempotentEncoding(t *testing.T) {
	origin := mustParse(t, "http://127.0.0.1:8080/images")
	once := buildHTTP(origin, "日本語.jpg")
	relOnce := once[len("http://127.0.0.1:8080/images/"):]
	twice := encodeRelative(relOnce)
	if relOnce != twice {
		t.Errorf("encoding is not idempotent: %q != %q", relOnce, twice)
	}
}

func TestBuildFileDotSlashIsRelative(t *testing.T) {
	origin := mustParse(t, "file://localhost/./images")
	got := buildFile(origin, "lenna.jpg")
	if got != "images/lenna.jpg" {
		t.Errorf("got %q, want %q", got, "images/lenna.jpg")
	}
}

func TestBuildFileAbsolute(t *testing.T) {
	origin := mustParse(t, "file://localhost/var/lib/images")
	got := buildFile(origin, "etc/passwd")
	if got != "/var/lib/images/etc/passwd" {
		t.Errorf("got %q, want %q", got, "/var/lib/images/etc/passwd")
	}
}
