package browser

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ByLCY/pagelet/layout"
	"github.com/ByLCY/pagelet/lexer"
)

// 默认窗口参数。
const (
	DefaultWidth          = 800.0
	DefaultHeight         = 600.0
	DefaultScrollStep     = 100.0
	DefaultScrollbarWidth = 24.0
)

// Fetcher 按地址返回文档文本，失败时返回错误。
type Fetcher interface {
	Fetch(ctx context.Context, raw string) (string, error)
}

// Options 配置一个浏览会话。
type Options struct {
	Fetcher        Fetcher
	Metrics        layout.Metrics
	Viewport       layout.Viewport
	FontSize       float64 // pt
	ScrollStep     float64
	ScrollbarWidth float64
	Logger         *zerolog.Logger
}

// Session 持有一个文档的显示状态：视口、滚动位置、词法单元与最近一次排版结果。
// 视口变化、滚动与重新加载都会整体重排，不做增量更新。Session 不是并发安全的。
type Session struct {
	ID uuid.UUID

	fetcher        Fetcher
	metrics        layout.Metrics
	fontSize       float64
	scrollStep     float64
	scrollbarWidth float64
	logger         zerolog.Logger

	viewport layout.Viewport
	scroll   float64
	tokens   []lexer.Token
	loaded   bool
	result   *layout.Result
}

// New 创建会话；缺少 Metrics 时返回错误。未加载文档前 Frame 为空白页。
func New(opts Options) (*Session, error) {
	if opts.Metrics == nil {
		return nil, fmt.Errorf("browser: 缺少字形度量后端 Metrics")
	}
	s := &Session{
		ID:             uuid.New(),
		fetcher:        opts.Fetcher,
		metrics:        opts.Metrics,
		fontSize:       opts.FontSize,
		scrollStep:     opts.ScrollStep,
		scrollbarWidth: opts.ScrollbarWidth,
		viewport:       opts.Viewport,
		logger:         zerolog.Nop(),
	}
	if s.viewport.Width <= 0 {
		s.viewport.Width = DefaultWidth
	}
	if s.viewport.Height <= 0 {
		s.viewport.Height = DefaultHeight
	}
	if s.scrollStep <= 0 {
		s.scrollStep = DefaultScrollStep
	}
	if s.scrollbarWidth <= 0 {
		s.scrollbarWidth = DefaultScrollbarWidth
	}
	if opts.Logger != nil {
		s.logger = opts.Logger.With().Str("session", s.ID.String()).Logger()
	}
	if err := s.relayout(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load 抓取并排版文档。抓取失败时按缺失文档处理（显示空白页），同时返回该错误。
func (s *Session) Load(ctx context.Context, raw string) error {
	if s.fetcher == nil {
		return fmt.Errorf("browser: 未配置文档来源 Fetcher")
	}
	body, fetchErr := s.fetcher.Fetch(ctx, raw)
	if fetchErr != nil {
		s.logger.Warn().Err(fetchErr).Str("ref", raw).Msg("fetch failed, showing empty document")
		body = ""
	}
	if err := s.LoadBody(body); err != nil {
		return err
	}
	return fetchErr
}

// LoadBody 排版已经取得的文档文本，并将滚动位置复位。
func (s *Session) LoadBody(body string) error {
	s.tokens = lexer.Lex(body)
	s.loaded = true
	s.scroll = 0
	return s.relayout()
}

// Resize 以新的视口尺寸重新排版，滚动位置重新限制在合法范围内。
func (s *Session) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("browser: 视口尺寸无效: %gx%g", width, height)
	}
	s.viewport = layout.Viewport{Width: width, Height: height}
	if err := s.relayout(); err != nil {
		return err
	}
	s.scroll = layout.ClampScroll(s.scroll, 0, s.result.MaxHeight, s.viewport.Height)
	return nil
}

// Scroll 应用滚动增量并返回新的滚动位置。未加载文档时保持为 0。
func (s *Session) Scroll(delta float64) float64 {
	if !s.loaded {
		return 0
	}
	s.scroll = layout.ClampScroll(s.scroll, delta, s.result.MaxHeight, s.viewport.Height)
	if err := s.relayout(); err != nil {
		s.logger.Error().Err(err).Msg("relayout after scroll failed")
	}
	return s.scroll
}

// ScrollDown 向下滚动一个步长。
func (s *Session) ScrollDown() float64 { return s.Scroll(s.scrollStep) }

// ScrollUp 向上滚动一个步长。
func (s *Session) ScrollUp() float64 { return s.Scroll(-s.scrollStep) }

// Wheel 处理鼠标滚轮：负值向下、正值向上，与常见的 ±120 约定一致。
func (s *Session) Wheel(delta int) float64 {
	switch {
	case delta < 0:
		return s.ScrollDown()
	case delta > 0:
		return s.ScrollUp()
	default:
		return s.scroll
	}
}

// Frame 返回当前的渲染输入。
func (s *Session) Frame() *layout.Frame {
	return layout.NewFrame(s.result, s.scroll, s.scrollbarWidth)
}

// Loaded 报告是否已经加载过文档（包括抓取失败后显示的空文档）。
func (s *Session) Loaded() bool { return s.loaded }

// Offset 返回当前滚动位置。
func (s *Session) Offset() float64 { return s.scroll }

// Tokens 返回当前文档的词法单元。
func (s *Session) Tokens() []lexer.Token { return s.tokens }

// Result 返回最近一次排版结果。
func (s *Session) Result() *layout.Result { return s.result }

func (s *Session) relayout() error {
	res, err := layout.Compute(s.tokens, s.viewport, layout.Options{Metrics: s.metrics, FontSize: s.fontSize})
	if err != nil {
		return fmt.Errorf("排版失败: %w", err)
	}
	s.result = res
	s.logger.Debug().
		Int("tokens", len(s.tokens)).
		Int("words", len(res.Words)).
		Float64("maxHeight", res.MaxHeight).
		Float64("width", s.viewport.Width).
		Float64("height", s.viewport.Height).
		Msg("laid out document")
	return nil
}
