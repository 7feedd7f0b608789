package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ByLCY/pagelet/browser"
	"github.com/ByLCY/pagelet/config"
	"github.com/ByLCY/pagelet/fetch"
	canvasrenderer "github.com/ByLCY/pagelet/renderer/canvas"
)

// api routes
const (
	PingURL   = "/ping"
	LayoutURL = "/layout"
	LoadURL   = "/load"
	RenderURL = "/render"
)

// Source 是 /load 与 /render 使用的文档来源，需要返回完整响应以便报告状态码。
type Source interface {
	Do(ctx context.Context, ref fetch.Reference) (*fetch.Response, error)
}

// Service 把排版与渲染暴露为 HTTP 接口。每个请求创建独立的浏览会话，
// 字体度量与渲染器在请求之间共享。
type Service struct {
	config config.Config
	source Source
	logger zerolog.Logger
	server *http.Server
	router http.Handler

	// canvas 的字形对象不保证并发安全，绘制与度量串行进行
	renderMu  sync.Mutex
	renderers map[string]*canvasrenderer.Renderer
}

// NewService returns a service instance with provided config and document source.
func NewService(cfg config.Config, source Source, logger *zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fontPaths := canvasrenderer.FontPaths(cfg.FontPaths())
	service := &Service{
		config:    cfg,
		source:    source,
		logger:    zerolog.Nop(),
		renderers: map[string]*canvasrenderer.Renderer{},
	}
	for _, format := range []string{canvasrenderer.FormatPNG, canvasrenderer.FormatPDF} {
		service.renderers[format] = canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Format: format, Fonts: fontPaths})
	}
	if logger != nil {
		service.logger = *logger
	}

	server := &http.Server{
		Addr: cfg.HTTPServerAddress,
	}

	// caps how long a client can take to send just the headers
	server.ReadHeaderTimeout = 5 * time.Second
	server.ReadTimeout = 10 * time.Second
	// 抓取远端文档也计入写超时
	server.WriteTimeout = cfg.FetchTimeout + 15*time.Second
	server.IdleTimeout = 60 * time.Second

	service.setupRouter(server)
	service.server = server

	return service, nil
}

// Start runs the HTTP server
func (service *Service) Start() error {
	return service.server.ListenAndServe()
}

func (service *Service) Shutdown(ctx context.Context) error {
	return service.server.Shutdown(ctx)
}

// newSession 创建一次请求使用的会话，宽高缺省时取配置值。
func (service *Service) newSession(width, height float64) (*browser.Session, error) {
	vp := service.config.Viewport()
	if width > 0 {
		vp.Width = width
	}
	if height > 0 {
		vp.Height = height
	}
	return browser.New(browser.Options{
		Metrics:        service.renderers[canvasrenderer.FormatPNG],
		Viewport:       vp,
		FontSize:       service.config.FontSizePt(),
		ScrollStep:     service.config.ScrollStep,
		ScrollbarWidth: service.config.ScrollbarWidth,
		Logger:         &service.logger,
	})
}
