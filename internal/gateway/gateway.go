// Package gateway is the request orchestrator (C10): it composes the
// router, locator builder, origin clients and image pipeline behind a
// semaphore-gated, per-request-timeout handler, and renders the
// resulting status/headers/body onto a fiber context.
package gateway

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/semaphore"

	"github.com/livesense-inc/fanlin-go/internal/fallback"
	"github.com/livesense-inc/fanlin-go/internal/locator"
	"github.com/livesense-inc/fanlin-go/internal/negotiate"
	"github.com/livesense-inc/fanlin-go/internal/origin"
	"github.com/livesense-inc/fanlin-go/internal/pathnorm"
	"github.com/livesense-inc/fanlin-go/internal/pipeline"
	"github.com/livesense-inc/fanlin-go/internal/reqparams"
	"github.com/livesense-inc/fanlin-go/internal/router"
)

// Clients groups the three origin clients by the URI scheme they serve.
type Clients struct {
	S3   origin.Client
	HTTP origin.Client
	File origin.Client
}

func (c Clients) forScheme(scheme string) origin.Client {
	switch scheme {
	case "s3":
		return c.S3
	case "http", "https":
		return c.HTTP
	case "file":
		return c.File
	default:
		return nil
	}
}

// Gateway is the shared, read-only orchestrator wired once at startup
// and used concurrently by every request task.
type Gateway struct {
	router   *router.Router
	clients  Clients
	pipeline *pipeline.Pipeline
	fallback *fallback.Resolver
	sem      *semaphore.Weighted
	timeout  time.Duration
	selfURL  string
}

// New constructs a Gateway. maxClients sizes the admission semaphore;
// timeout bounds each request's wait for an admission slot and its
// origin fetch. The pipeline run that follows is not cancelled by it.
func New(r *router.Router, clients Clients, pipe *pipeline.Pipeline, fb *fallback.Resolver, maxClients int, timeout time.Duration, selfURL string) *Gateway {
	return &Gateway{
		router:   r,
		clients:  clients,
		pipeline: pipe,
		fallback: fb,
		sem:      semaphore.NewWeighted(int64(maxClients)),
		timeout:  timeout,
		selfURL:  selfURL,
	}
}

// SelfURL reports the externally-visible base URL this gateway believes
// it is reachable at, for diagnostics (mirrors the original Rust
// implementation's State.root_uri accessor).
func (g *Gateway) SelfURL() string { return g.selfURL }

// Handle is the generic image-serving route handler (§4.10).
func (g *Gateway) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), g.timeout)
	defer cancel()

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return render(c, 500, fallback.PlainText(500))
	}
	defer g.sem.Release(1)

	q := reqparams.Parse(func(key string) (string, bool) {
		if !c.Context().QueryArgs().Has(key) {
			return "", false
		}
		return c.Query(key), true
	})
	if q.UnsupportedScaleSize() {
		return render(c, fiber.StatusBadRequest, fallback.PlainText(fiber.StatusBadRequest))
	}
	accepted := negotiate.Parse(c.Get(fiber.HeaderAccept))

	provider, prefix, matched := g.router.Lookup(c.Path())

	fetchStart := time.Now()
	outcome, mount := g.fetch(ctx, c.Path(), provider, prefix, matched)
	fetchElapsed := time.Since(fetchStart)

	processStart := time.Now()
	result, status := g.resolve(provider, mount, outcome, q, accepted)
	processElapsed := time.Since(processStart)

	c.Set(fiber.HeaderVary, fiber.HeaderAccept)
	c.Set("Server-Timing", serverTiming(fetchElapsed, processElapsed))
	return render(c, status, result)
}

func (g *Gateway) fetch(ctx context.Context, reqPath string, provider *router.Provider, prefix string, matched bool) (origin.Outcome, string) {
	if !matched {
		return origin.NotFound(), ""
	}

	rel, err := pathnorm.Normalize(reqPath, prefix)
	if err != nil {
		return origin.Error(fmt.Errorf("bad path: %w", err)), provider.Mount
	}

	loc, err := locator.Build(provider.Origin, rel)
	if err != nil {
		return origin.Error(fmt.Errorf("bad origin: %w", err)), provider.Mount
	}

	client := g.clients.forScheme(provider.Origin.Scheme)
	if client == nil {
		return origin.Error(fmt.Errorf("no client configured for scheme %q", provider.Origin.Scheme)), provider.Mount
	}
	return client.Fetch(ctx, loc), provider.Mount
}

// resolve maps a fetch Outcome (and, for Bytes, the pipeline run over
// it) onto a final (Result, status) pair per §4.9/§4.10.
func (g *Gateway) resolve(provider *router.Provider, mount string, outcome origin.Outcome, q reqparams.Query, accepted negotiate.Formats) (pipeline.Result, int) {
	switch outcome.Kind {
	case origin.KindBytes:
		res, err := g.pipeline.Process(outcome.Bytes, q, accepted)
		if err != nil {
			log.Errorw("pipeline failed", "mount", mount, "error", err.Error())
			log.Warnw("activating fallback", "mount", mount, "self_url", g.SelfURL())
			return g.fallback.Resolve(mount, q, accepted, fiber.StatusInternalServerError)
		}
		return res, fiber.StatusOK

	case origin.KindNotFound:
		if provider != nil && provider.SuccessEvenNoContent {
			log.Warnw("activating fallback", "mount", mount, "self_url", g.SelfURL())
			return g.fallback.Resolve(mount, q, accepted, fiber.StatusNotFound)
		}
		return fallback.PlainText(fiber.StatusNotFound), fiber.StatusNotFound

	default: // origin.KindError
		log.Errorw("origin fetch failed", "mount", mount, "error", fmt.Sprint(outcome.Err))
		log.Warnw("activating fallback", "mount", mount, "self_url", g.SelfURL())
		return g.fallback.Resolve(mount, q, accepted, fiber.StatusInternalServerError)
	}
}

func serverTiming(fetch, process time.Duration) string {
	return fmt.Sprintf("f_fetch;dur=%.2f, f_process;dur=%.2f", msOf(fetch), msOf(process))
}

func msOf(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func render(c *fiber.Ctx, status int, result pipeline.Result) error {
	c.Set(fiber.HeaderContentType, result.MimeType)
	return c.Status(status).Send(result.Bytes)
}

// ParseOriginURL is a small helper used by startup wiring to turn a
// provider's configured src string into a *url.URL once, rather than
// re-parsing it on every request.
func ParseOriginURL(src string) (*url.URL, error) {
	return url.Parse(src)
}
