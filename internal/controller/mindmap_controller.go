package controller

import (
	"bufio"
	"fmt"

	"mindmap-server/internal/model"
	"mindmap-server/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	module = "MindmapController"

	htmlContentType  = "text/html; charset=utf-8"
	plainContentType = "text/plain; charset=utf-8"

	// DownloadChunkSize is the size of each write of a streamed download.
	DownloadChunkSize = 1024
)

// MindmapStore is the part of the registry the handlers use.
type MindmapStore interface {
	HTMLPulldown(uuid string) string
	GetLocalMindmap(uuid string) (*model.Stored, string)
	UpdateLoadedMindmap(uuid, content string, label *string)
	HTMLContent(uuid string) (string, bool)
}

// PageRenderer builds the editor page.
type PageRenderer interface {
	EditorPage(uuid, pulldown string, stored *model.Stored) string
}

type IMindmapController interface {
	RegisterRoutes(r fiber.Router)
	Index(ctx *fiber.Ctx) error
	Previous(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	NotFound(ctx *fiber.Ctx) error
}

type mindmapController struct {
	store    MindmapStore
	renderer PageRenderer
	logger   logger.ILogger
}

func NewMindmapController(store MindmapStore, renderer PageRenderer, log logger.ILogger) IMindmapController {
	return &mindmapController{
		store:    store,
		renderer: renderer,
		logger:   log,
	}
}

func (c *mindmapController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Index)
	r.Post("/update", c.Update)
	r.Get("/previous", c.Previous)
	r.Get("/download/:uuid", c.Download)
}

func (c *mindmapController) Index(ctx *fiber.Ctx) error {
	id := uuid.NewString()
	c.logger.Info(module, fmt.Sprintf("GET `%s`, create uuid: %s", ctx.Path(), id), map[string]interface{}{"uuid": id})

	return c.sendPage(ctx, id, c.store.HTMLPulldown(id), nil)
}

func (c *mindmapController) Previous(ctx *fiber.Ctx) error {
	id := ctx.Query("uuid")
	if id == "" {
		id = uuid.NewString()
		c.logger.Info(module, fmt.Sprintf("GET `%s`, missing uuid when redirect, create new uuid %s", ctx.Path(), id), map[string]interface{}{"uuid": id})
		return c.sendPage(ctx, id, c.store.HTMLPulldown(id), nil)
	}

	stored, pulldown := c.store.GetLocalMindmap(id)
	if stored == nil {
		c.logger.Info(module, fmt.Sprintf("GET `%s`, redirect to %s, but no such uuid in local, create new mindmap", ctx.Path(), id), map[string]interface{}{"uuid": id})
	} else {
		c.logger.Info(module, fmt.Sprintf("GET `%s`, redirect to %s", ctx.Path(), id), map[string]interface{}{"uuid": id})
	}
	return c.sendPage(ctx, id, pulldown, stored)
}

func (c *mindmapController) Update(ctx *fiber.Ctx) error {
	id := ctx.Query("uuid")
	if id == "" {
		c.logger.Error(module, fmt.Sprintf("missing uuid POST `%s`", ctx.Path()), nil)
		ctx.Status(fiber.StatusOK)
		return nil
	}
	c.logger.Info(module, fmt.Sprintf("%s POST `%s`", id, ctx.Path()), map[string]interface{}{"uuid": id, "bytes": len(ctx.Body())})

	c.store.UpdateLoadedMindmap(id, string(ctx.Body()), model.NormalizeLabel(ctx.Query("label")))
	ctx.Status(fiber.StatusOK)
	return nil
}

func (c *mindmapController) Download(ctx *fiber.Ctx) error {
	id := ctx.Params("uuid")

	body, ok := c.store.HTMLContent(id)
	if ok {
		c.logger.Info(module, fmt.Sprintf("GET `%s`, download %s.html", ctx.Path(), id), map[string]interface{}{"uuid": id})
		ctx.Set(fiber.HeaderContentType, htmlContentType)
		ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"%s.html\"", id))
	} else {
		c.logger.Info(module, fmt.Sprintf("GET `%s`, unable to retrieve the relevant mindmap due to uuid %s not found", ctx.Path(), id), map[string]interface{}{"uuid": id})
		ctx.Set(fiber.HeaderContentType, plainContentType)
		ctx.Set(fiber.HeaderContentDisposition, "attachment; filename=\"uuid_not_found.txt\"")
		body = fmt.Sprintf("Unable to retrieve the relevant mindmap due to uuid %s not found.", id)
	}

	ctx.Status(fiber.StatusOK)
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for start := 0; start < len(body); start += DownloadChunkSize {
			end := min(start+DownloadChunkSize, len(body))
			if _, err := w.WriteString(body[start:end]); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

func (c *mindmapController) NotFound(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusNotFound).SendString(fmt.Sprintf("No route %s", ctx.OriginalURL()))
}

func (c *mindmapController) sendPage(ctx *fiber.Ctx, id, pulldown string, stored *model.Stored) error {
	ctx.Set(fiber.HeaderContentType, htmlContentType)
	return ctx.SendString(c.renderer.EditorPage(id, pulldown, stored))
}
