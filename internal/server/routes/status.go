package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dynsite/dynsite/internal/cache"
	"github.com/dynsite/dynsite/internal/version"
)

// StatusOptions 描述 /-/status 需要展示的运行信息。
type StatusOptions struct {
	Store   cache.Store
	Model   string
	Backend string
	Logger  *logrus.Logger
}

type statusPayload struct {
	Version     string `json:"version"`
	Model       string `json:"model"`
	Backend     string `json:"storage_backend"`
	CachedPages int    `json:"cached_pages"`
	CountError  string `json:"count_error,omitempty"`
}

// RegisterStatusRoutes 暴露 /-/status 诊断接口，供运维查看版本、模型与缓存规模。
func RegisterStatusRoutes(app *fiber.App, opts StatusOptions) {
	if app == nil || opts.Store == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		payload := statusPayload{
			Version: version.Full(),
			Model:   opts.Model,
			Backend: opts.Backend,
		}
		count, err := cache.CountKeys(c.Context(), opts.Store)
		payload.CachedPages = count
		if err != nil {
			payload.CountError = err.Error()
			if opts.Logger != nil {
				opts.Logger.WithError(err).WithField("action", "status").Warn("cache_count_failed")
			}
		}
		return c.JSON(payload)
	})
}
