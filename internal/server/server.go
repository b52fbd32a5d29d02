package server

import (
	"net"
	"time"

	"mindmap-server/internal/bootstrap"
	"mindmap-server/internal/config"
	"mindmap-server/internal/pkg/logger"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	params    *config.Params
	container *bootstrap.Container
}

func New(params *config.Params, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             64 * 1024 * 1024, // 64MB, maps with inline images get large
		Immutable:             true,             // query values and bodies outlive the handler
		DisableStartupMessage: true,
	})

	app.Use(recover.New())

	if container.TracingEnabled {
		app.Use(otelfiber.Middleware())
	}

	app.Use(requestLogger(container.Logger))

	registerRoutes(app, container)

	return &Server{
		app:       app,
		params:    params,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Run blocks serving on the configured address. It only returns on error.
func (s *Server) Run() error {
	s.container.Logger.Info("Server", "Running on http://"+s.params.ListenAddr(), map[string]interface{}{"outpath": s.params.Outpath, "language": s.params.Language})
	return s.app.Listen(s.params.ListenAddr())
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.MindmapController.RegisterRoutes(app)

	// anything not matched above
	app.Use(c.MindmapController.NotFound)
}

func requestLogger(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		log.Debug("HTTP", ctx.Method()+" "+ctx.Path(), map[string]interface{}{
			"status":  ctx.Response().StatusCode(),
			"latency": time.Since(start).String(),
			"ip":      ctx.IP(),
		})
		return err
	}
}
