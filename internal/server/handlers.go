package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dynsite/dynsite/internal/pages"
)

// FailedContentHTML 是生成失败时展示给访客的占位片段，不写入缓存。
const FailedContentHTML = "<h1>Error</h1><p>Failed to generate content for this page.</p>"

type handlers struct {
	pages    PageService
	renderer *Renderer
	logger   *logrus.Logger
}

type pageDataResponse struct {
	MainContentHTML string           `json:"main_content_html"`
	MenuItems       []pages.MenuItem `json:"menu_items"`
}

type searchResponse struct {
	NewPath         string           `json:"new_path"`
	MainContentHTML string           `json:"main_content_html"`
	MenuItems       []pages.MenuItem `json:"menu_items"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// getPageData 返回路径的主体片段与菜单，菜单在内容处理完之后构建以反映最新缓存。
func (h *handlers) getPageData(c fiber.Ctx) error {
	ctx := c.Context()
	page := h.pages.GetPageContent(ctx, c.Query("path", "/"))

	return c.JSON(pageDataResponse{
		MainContentHTML: presentable(page),
		MenuItems:       h.pages.Menu(ctx, page.Path),
	})
}

func (h *handlers) aiSearch(c fiber.Ctx) error {
	found, err := h.pages.DiscoverPage(c.Context(), c.Query("query"))
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action":     "ai_search",
			"request_id": RequestID(c),
		}).Warn("ai_search_failed")

		if errors.Is(err, pages.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid_input", Details: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "generation_failed", Details: err.Error()})
	}

	return c.JSON(searchResponse{
		NewPath:         found.Path,
		MainContentHTML: found.Content,
		MenuItems:       found.Menu,
	})
}

// renderPage 输出完整页面：跳过列表中的路径（如缺失的静态文件）直接 404。
func (h *handlers) renderPage(c fiber.Ctx) error {
	if h.pages.Skipped(c.Path()) {
		return c.SendStatus(fiber.StatusNotFound)
	}

	page := h.pages.GetPageContent(c.Context(), c.Path())
	html, err := h.renderer.Render(page.Path, presentable(page))
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action":     "render_page",
			"path":       page.Path,
			"request_id": RequestID(c),
		}).Error("template_unavailable")
		c.Type("html", "utf-8")
		return c.Status(fiber.StatusInternalServerError).SendString(ErrorPageHTML)
	}

	c.Type("html", "utf-8")
	return c.SendString(html)
}

func presentable(page pages.Page) string {
	if page.State == pages.StateFailed {
		return FailedContentHTML
	}
	return page.Content
}
