package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dynsite/dynsite/internal/logging"
	"github.com/dynsite/dynsite/internal/pages"
)

// PageService describes the page operations the HTTP layer depends on. It
// allows injecting fakes during tests; *pages.Service satisfies it.
type PageService interface {
	GetPageContent(ctx context.Context, rawPath string) pages.Page
	DiscoverPage(ctx context.Context, query string) (pages.Discovery, error)
	Menu(ctx context.Context, current string) []pages.MenuItem
	Skipped(path string) bool
}

// AppOptions controls how the Fiber application is assembled.
type AppOptions struct {
	Logger    *logrus.Logger
	Pages     PageService
	Renderer  *Renderer
	StaticDir string
}

const contextKeyRequestID = "_dynsite_request_id"

// NewApp builds a Fiber application with request-ID/access-log middleware,
// the page data endpoints, static assets and the catch-all page renderer.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Pages == nil {
		return nil, errors.New("page service is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))

	h := &handlers{pages: opts.Pages, renderer: opts.Renderer, logger: opts.Logger}
	app.Get("/get_page_data", h.getPageData)
	app.Get("/ai_search", h.aiSearch)
	if opts.StaticDir != "" {
		app.Use("/static", static.New(opts.StaticDir))
	}
	app.Get("/*", func(c fiber.Ctx) error {
		if isDiagnosticsPath(c.Path()) {
			return c.Next()
		}
		return h.renderPage(c)
	})

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，并在请求结束后输出访问日志。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		started := time.Now()
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		fields := logging.RequestFields(reqID, c.Method(), c.Path(), status, time.Since(started).Milliseconds())
		if err != nil {
			logger.WithError(err).WithFields(fields).Warn("request_failed")
		} else {
			logger.WithFields(fields).Info("request_complete")
		}
		return err
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
