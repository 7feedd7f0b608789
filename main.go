package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/pagelet/api"
	"github.com/ByLCY/pagelet/browser"
	"github.com/ByLCY/pagelet/config"
	"github.com/ByLCY/pagelet/fetch"
	"github.com/ByLCY/pagelet/layout"
	"github.com/ByLCY/pagelet/renderer"
	canvasrenderer "github.com/ByLCY/pagelet/renderer/canvas"
)

var interruptSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGINT,
}

func main() {
	input := flag.String("in", "", "文档地址：http(s)://... 或 file:///绝对路径")
	output := flag.String("out", "output/page.png", "输出文件路径")
	format := flag.String("format", "", "输出格式 png 或 pdf，缺省时按 -out 扩展名判断")
	width := flag.Float64("width", 0, "视口宽度（px），缺省取配置")
	height := flag.Float64("height", 0, "视口高度（px），缺省取配置")
	scroll := flag.Float64("scroll", 0, "滚动偏移（px）")
	debug := flag.String("debug", "", "排版调试 JSON 输出路径")
	serve := flag.Bool("serve", false, "启动 HTTP 服务")
	configDir := flag.String("config", ".", "app.env 所在目录")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot read config")
	}
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), interruptSignals...)
	defer stop()

	fetcher := fetch.New(fetch.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.FetchTimeout,
		Logger:    &log.Logger,
	})

	if *serve {
		api.RegisterTagNames()
		waitGroup, ctx := errgroup.WithContext(ctx)
		runGinServer(ctx, waitGroup, cfg, fetcher)
		if err := waitGroup.Wait(); err != nil {
			log.Fatal().Err(err).Msg("error from wait group")
		}
		return
	}

	if *input == "" {
		log.Fatal().Msg("缺少 -in 文档地址")
	}
	if *format == "" {
		*format = strings.TrimPrefix(filepath.Ext(*output), ".")
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		Format: *format,
		Fonts:  canvasrenderer.FontPaths(cfg.FontPaths()),
	})

	vp := cfg.Viewport()
	if *width > 0 {
		vp.Width = *width
	}
	if *height > 0 {
		vp.Height = *height
	}
	session, err := browser.New(browser.Options{
		Fetcher:        fetcher,
		Metrics:        r,
		Viewport:       vp,
		FontSize:       cfg.FontSizePt(),
		ScrollStep:     cfg.ScrollStep,
		ScrollbarWidth: cfg.ScrollbarWidth,
		Logger:         &log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create session")
	}

	if err := run(ctx, session, *input, *scroll, *output, *debug, r); err != nil {
		log.Fatal().Err(err).Msg("生成页面失败")
	}
	fmt.Printf("已生成 %s：%s\n", strings.ToUpper(r.Format()), *output)
}

// run 串联抓取、词法、排版与渲染。抓取失败时照常输出空白页。
func run(ctx context.Context, session *browser.Session, ref string, scroll float64, outputPath, debugPath string, r renderer.Renderer) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	if err := session.Load(ctx, ref); err != nil {
		if !session.Loaded() {
			return fmt.Errorf("加载文档失败: %w", err)
		}
		log.Warn().Err(err).Str("ref", ref).Msg("文档缺失，输出空白页")
	}
	session.Scroll(scroll)

	if debugPath != "" {
		if err := writeDebug(session, debugPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := r.Render(session.Frame())
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	return nil
}

func writeDebug(session *browser.Session, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(debugPath, session.Tokens(), session.Result()); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func runGinServer(
	ctx context.Context,
	waitGroup *errgroup.Group,
	cfg config.Config,
	source api.Source,
) {
	service, err := api.NewService(cfg, source, &log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("cannot create HTTP service")
		return
	}

	waitGroup.Go(func() error {
		log.Info().Msgf("start HTTP server at %s", cfg.HTTPServerAddress)

		err := service.Start()
		if err != nil {
			// http.ErrServerClosed is returned once the server begins shutting down
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			log.Error().Err(err).Msg("cannot start HTTP server")
			return err
		}
		return nil
	})

	waitGroup.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("graceful shutdown HTTP server")

		toCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := service.Shutdown(toCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown HTTP server")
			return err
		}
		log.Info().Msg("HTTP server is stopped")
		return nil
	})
}
