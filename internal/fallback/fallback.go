// Package fallback is the fallback resolver (C9): when an origin fetch
// or pipeline run fails, it substitutes a per-provider or global
// fallback image — run through the same pipeline as ordinary content —
// or, failing that, a plain-text message carrying the original status.
package fallback

import (
	"net/http"

	"github.com/livesense-inc/fanlin-go/internal/negotiate"
	"github.com/livesense-inc/fanlin-go/internal/pipeline"
	"github.com/livesense-inc/fanlin-go/internal/reqparams"
)

// Resolver holds the fallback bytes loaded once at startup, keyed by
// provider mount, plus an optional global fallback used when a provider
// has none of its own.
type Resolver struct {
	pipeline      *pipeline.Pipeline
	globalBytes   []byte
	providerBytes map[string][]byte
}

// New constructs an empty Resolver; callers populate it with
// SetGlobal/SetProvider during startup.
func New(pipe *pipeline.Pipeline) *Resolver {
	return &Resolver{pipeline: pipe, providerBytes: make(map[string][]byte)}
}

// SetGlobal installs the fallback used when no provider-specific one
// applies or succeeds.
func (r *Resolver) SetGlobal(b []byte) { r.globalBytes = b }

// SetProvider installs a fallback specific to one provider's mount.
func (r *Resolver) SetProvider(mount string, b []byte) {
	if len(b) == 0 {
		return
	}
	r.providerBytes[mount] = b
}

// Resolve implements the §4.9 resolution order. statusCode is the
// status the caller would otherwise have rendered (404 or 500); it is
// only used verbatim when no fallback image exists or decodes.
func (r *Resolver) Resolve(mount string, q reqparams.Query, accepted negotiate.Formats, statusCode int) (pipeline.Result, int) {
	if b, ok := r.providerBytes[mount]; ok {
		if res, err := r.pipeline.Process(b, q, accepted); err == nil {
			return res, http.StatusOK
		}
	}
	if len(r.globalBytes) > 0 {
		if res, err := r.pipeline.Process(r.globalBytes, q, accepted); err == nil {
			return res, http.StatusOK
		}
	}
	return plainTextResult(statusCode), statusCode
}

func plainTextResult(statusCode int) pipeline.Result {
	return PlainText(statusCode)
}

// PlainText builds the plain-text error body the orchestrator renders
// when there is no fallback image to fall back to at all.
func PlainText(statusCode int) pipeline.Result {
	return pipeline.Result{
		MimeType: "text/plain; charset=utf-8",
		Bytes:    []byte(http.StatusText(statusCode)),
	}
}
