package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/pagelet/fonts"
	"github.com/ByLCY/pagelet/layout"
	"github.com/ByLCY/pagelet/renderer"
)

// 输出格式。
const (
	FormatPNG = "png"
	FormatPDF = "pdf"
)

var (
	textColor      = canvas.Black
	pageColor      = canvas.White
	trackColor     = canvas.Hex("#0000ff")
	thumbColor     = canvas.Hex("#800080")
	fallbackFamily = "pagelet"
)

// Renderer paints frames via github.com/tdewolff/canvas and doubles as the
// glyph-metrics provider for the layout engine.
type Renderer struct {
	format string

	// injected resources
	fontBlobs map[string][]byte // by builtin font name

	fontMu sync.Mutex
	family *canvas.FontFamily
	faces  map[faceKey]*canvas.FontFace
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Metrics    = (*Renderer)(nil)
)

type faceKey struct {
	style canvas.FontStyle
	size  float64
}

// Options configures the canvas renderer.
type Options struct {
	Format string              // png (default) or pdf
	Fonts  map[string]Resource // overrides for fonts.Regular/Bold/Italic/BoldItalic
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// FontPaths 把按字体名给出的文件路径转换为 Options.Fonts，空路径被忽略。
func FontPaths(paths map[string]string) map[string]Resource {
	out := make(map[string]Resource, len(paths))
	for name, path := range paths {
		if path != "" {
			out[name] = Resource{Path: path}
		}
	}
	return out
}

// NewRenderer creates a canvas-based renderer writing the given format.
func NewRenderer(format string) *Renderer { return NewRendererWithOptions(Options{Format: format}) }

// NewRendererWithOptions creates a renderer with injected font resources.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		format:    normalizeFormat(opts.Format),
		fontBlobs: map[string][]byte{},
		faces:     map[faceKey]*canvas.FontFace{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 读取失败时回退到内置字体
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Format 返回渲染输出格式。
func (r *Renderer) Format() string { return r.format }

// MeasureText 实现 layout.Metrics：按字体状态测量文本宽度（px）。
func (r *Renderer) MeasureText(text string, font layout.Font) float64 {
	if text == "" {
		return 0
	}
	face, err := r.fontFace(font, textColor)
	if err != nil {
		// 字体不可用时按半个字号估算字宽
		return float64(utf8.RuneCountInString(text)) * font.Size * layout.PtToPx * 0.5
	}
	return layout.Px(face.TextWidth(text))
}

// LineHeight 实现 layout.Metrics：返回该字体的行高（px）。
func (r *Renderer) LineHeight(font layout.Font) float64 {
	face, err := r.fontFace(font, textColor)
	if err != nil {
		return font.Size * layout.PtToPx * 1.2
	}
	return layout.Px(face.Metrics().LineHeight)
}

// Render renders the visible part of the frame plus the scrollbar.
func (r *Renderer) Render(frame *layout.Frame) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("渲染帧为空")
	}
	if frame.Viewport.Width <= 0 || frame.Viewport.Height <= 0 {
		return nil, fmt.Errorf("视口尺寸无效: %gx%g", frame.Viewport.Width, frame.Viewport.Height)
	}

	width, height := layout.Mm(frame.Viewport.Width), layout.Mm(frame.Viewport.Height)
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	ctx.SetFillColor(pageColor)
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.DrawPath(0, 0, canvas.Rectangle(width, height))

	if err := r.drawWords(ctx, frame); err != nil {
		return nil, err
	}
	r.drawScrollbar(ctx, frame)

	var buf bytes.Buffer
	switch r.format {
	case FormatPDF:
		writer := pdf.New(&buf, width, height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	default:
		if err := renderers.PNG(canvas.DPMM(layout.MmToPx))(&buf, c); err != nil {
			return nil, fmt.Errorf("写入 PNG 失败: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// drawWords 只绘制滚动窗口内的词，坐标减去滚动偏移。
func (r *Renderer) drawWords(ctx *canvas.Context, frame *layout.Frame) error {
	size := frame.FontSize
	if size <= 0 {
		size = layout.DefaultFontSize
	}
	for _, w := range frame.VisibleWords() {
		face, err := r.fontFace(w.Font(size), textColor)
		if err != nil {
			return err
		}
		// 基线位置：词顶部加上字体上升部
		top := layout.Mm(w.Y - frame.Scroll)
		baseline := top + face.Metrics().Ascent
		ctx.DrawText(layout.Mm(w.X), baseline, canvas.NewTextLine(face, w.Text, canvas.Left))
	}
	return nil
}

// drawScrollbar 绘制右侧轨道与滑块。
func (r *Renderer) drawScrollbar(ctx *canvas.Context, frame *layout.Frame) {
	sb := frame.Scrollbar
	if sb.Width <= 0 {
		return
	}
	ctx.SetFillColor(trackColor)
	ctx.DrawPath(layout.Mm(sb.X), 0, canvas.Rectangle(layout.Mm(sb.Width), layout.Mm(frame.Viewport.Height)))

	thumbWidth := sb.Width - 2
	if thumbWidth <= 0 {
		thumbWidth = sb.Width
	}
	ctx.SetFillColor(thumbColor)
	ctx.DrawPath(layout.Mm(sb.X+1), layout.Mm(sb.Y), canvas.Rectangle(layout.Mm(thumbWidth), layout.Mm(sb.Height)))
}

func (r *Renderer) fontFace(font layout.Font, col color.Color) (*canvas.FontFace, error) {
	style := fontStyle(font)
	size := font.Size
	if size <= 0 {
		size = layout.DefaultFontSize
	}
	key := faceKey{style: style, size: size}

	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	family, err := r.ensureFamily()
	if err != nil {
		return nil, err
	}
	face := family.Face(size, col, style, canvas.FontNormal)
	r.faces[key] = face
	return face, nil
}

// ensureFamily 加载四种样式到同一字体家族；调用方需持有 fontMu。
func (r *Renderer) ensureFamily() (*canvas.FontFamily, error) {
	if r.family != nil {
		return r.family, nil
	}
	family := canvas.NewFontFamily(fallbackFamily)
	for _, variant := range []struct {
		name  string
		style canvas.FontStyle
	}{
		{fonts.Regular, canvas.FontRegular},
		{fonts.Bold, canvas.FontBold},
		{fonts.Italic, canvas.FontItalic},
		{fonts.BoldItalic, canvas.FontBold | canvas.FontItalic},
	} {
		data, err := r.loadFontBytes(variant.name)
		if err != nil {
			return nil, err
		}
		if err := family.LoadFont(data, 0, variant.style); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", variant.name, err)
		}
	}
	r.family = family
	return family, nil
}

func (r *Renderer) loadFontBytes(name string) ([]byte, error) {
	if blob, ok := r.fontBlobs[name]; ok {
		return blob, nil
	}
	return fonts.Load(name)
}

func fontStyle(font layout.Font) canvas.FontStyle {
	style := canvas.FontRegular
	if font.Weight == layout.WeightBold {
		style = canvas.FontBold
	}
	if font.Slant == layout.SlantItalic {
		style |= canvas.FontItalic
	}
	return style
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatPDF:
		return FormatPDF
	default:
		return FormatPNG
	}
}
