// Package server builds the fiber application: middleware stack, the
// generic image-serving route, the /ping health endpoint and the
// optional template-render surface. Grounded on the teacher's
// internal/server/kritiserver.go and main.go wiring.
package server

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/livesense-inc/fanlin-go/internal/config"
	"github.com/livesense-inc/fanlin-go/internal/gateway"
	"github.com/livesense-inc/fanlin-go/internal/template"
)

// New builds the fiber.App: admission limiter, security headers, access
// logging, panic recovery, the liveness probe, the generic image route,
// and — when enabled — the experimental template-render route.
func New(cfg *config.Config, gw *gateway.Gateway) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "fanlin-go",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:               cfg.Limiter.Max,
		Expiration:        cfg.Limiter.Expiration,
		LimiterMiddleware: limiter.SlidingWindow{},
		Next: func(c *fiber.Ctx) bool {
			return c.IP() == "127.0.0.1"
		},
	}))
	app.Use(helmet.New())
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint: "/ping",
	}))

	if cfg.Experimental.EnableTemplateRender {
		log.Info("registering experimental template-render endpoint")
		app.Get("/cgi/render/:template", templateRenderHandler(cfg.Experimental.TemplatesDir, cfg.Experimental.FontPath))
	}

	app.Get("/*", gw.Handle)

	return app
}

// templateRenderHandler loads {templatesDir}/{template}.json, substitutes
// {{var}} placeholders from the request's query string, and renders it
// to a PNG. It never touches the image gateway's origins — templates
// reference local image assets by path, by design (§6.2).
func templateRenderHandler(templatesDir, fontPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("template")
		if name == "" || strings.Contains(name, "..") {
			return c.Status(fiber.StatusBadRequest).SendString("invalid template name")
		}

		path := filepath.Join(templatesDir, name+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("template not found")
		}

		variables := make(map[string]string)
		c.Context().QueryArgs().VisitAll(func(key, value []byte) {
			variables[string(key)] = string(value)
		})

		png, err := template.Render(string(raw), variables, fontPath)
		if err != nil {
			log.Warnw("template render failed", "template", name, "error", err.Error())
			return c.Status(fiber.StatusInternalServerError).SendString("failed to render template")
		}

		c.Set(fiber.HeaderContentType, "image/png")
		return c.Status(fiber.StatusOK).Send(png)
	}
}
