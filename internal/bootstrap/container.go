package bootstrap

import (
	"context"

	"mindmap-server/internal/assets"
	"mindmap-server/internal/config"
	"mindmap-server/internal/controller"
	"mindmap-server/internal/pkg/logger"
	"mindmap-server/internal/registry"
	"mindmap-server/internal/render"
	"mindmap-server/internal/tracer"
)

type Container struct {
	Logger   logger.ILogger
	Renderer *render.Renderer
	Registry *registry.Registry

	// Controllers
	MindmapController controller.IMindmapController

	TracingEnabled bool
	ShutdownTracer func(context.Context) error
}

func NewContainer(params *config.Params, cfg *config.Config, log logger.ILogger) *Container {
	// 1. Rendering
	renderer := render.NewRenderer(assets.Page, assets.IndexCSS, assets.KatexCSS, params.ListenAddr(), params.Language)

	// 2. Registry, scans the output directory
	reg := registry.New(params.Outpath, renderer, log)

	// 3. Tracing
	shutdownTracer, tracing := tracer.InitTracer(cfg.Tracing, log)

	// 4. Controllers
	mindmapController := controller.NewMindmapController(reg, renderer, log)

	return &Container{
		Logger:            log,
		Renderer:          renderer,
		Registry:          reg,
		MindmapController: mindmapController,
		TracingEnabled:    tracing,
		ShutdownTracer:    shutdownTracer,
	}
}
