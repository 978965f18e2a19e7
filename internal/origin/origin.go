// Package origin defines the unified fetch contract every origin client
// (object store, HTTP, filesystem) implements, so the orchestrator never
// has to know which kind of backend served a given provider.
package origin

import "context"

// Kind distinguishes the three Outcome shapes a fetch can produce.
type Kind int

const (
	// KindBytes means the asset was found and its bytes are in Outcome.Bytes.
	KindBytes Kind = iota
	// KindNotFound means the origin has no such asset — distinct from Error.
	KindNotFound
	// KindError means the fetch failed for any other reason.
	KindError
)

// Outcome is the result of a single fetch call.
type Outcome struct {
	Kind  Kind
	Bytes []byte
	Err   error
}

// Bytes builds a KindBytes outcome.
func Bytes(b []byte) Outcome { return Outcome{Kind: KindBytes, Bytes: b} }

// NotFound builds a KindNotFound outcome.
func NotFound() Outcome { return Outcome{Kind: KindNotFound} }

// Error builds a KindError outcome.
func Error(err error) Outcome { return Outcome{Kind: KindError, Err: err} }

// Client fetches bytes for a locator produced by package locator. Each
// concrete client is constructed once at startup and is safe to share
// across concurrent requests.
type Client interface {
	Fetch(ctx context.Context, locator any) Outcome
}
