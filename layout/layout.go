package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/pagelet/lexer"
)

// State 是逐词折叠时携带的排版状态：光标位置与当前字重/倾斜。
// 样式是扁平的“后写覆盖”标志，闭合标记不会恢复外层样式。
type State struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Weight Weight  `json:"weight"`
	Slant  Slant   `json:"slant"`
}

// InitialState 返回位于左上边距、常规正体的初始状态。
func InitialState() State {
	return State{X: HStep, Y: VStep, Weight: WeightNormal, Slant: SlantRoman}
}

// Engine 在固定视口宽度与字号下执行单趟排版。
type Engine struct {
	metrics  Metrics
	viewport Viewport
	fontSize float64
}

// NewEngine 创建排版引擎；缺少 Metrics 时返回错误。
func NewEngine(vp Viewport, opts Options) (*Engine, error) {
	if opts.Metrics == nil {
		return nil, fmt.Errorf("layout: 缺少字形度量后端 Metrics")
	}
	return &Engine{metrics: opts.Metrics, viewport: vp, fontSize: opts.fontSize()}, nil
}

// Compute 对整段词法单元排版，返回所有词的位置、内容总高度与滚动条高度。
// 空输入（文档缺失）得到高度为 0 的空文档。
func Compute(tokens []lexer.Token, vp Viewport, opts Options) (*Result, error) {
	engine, err := NewEngine(vp, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Viewport: vp,
		FontSize: engine.fontSize,
		Words:    []Word{},
	}
	if len(tokens) == 0 {
		res.ScrollbarHeight = ScrollbarHeight(0, vp.Height)
		return res, nil
	}

	st := InitialState()
	for _, tok := range tokens {
		var words []Word
		st, words = engine.Step(st, tok)
		res.Words = append(res.Words, words...)
	}
	res.MaxHeight = st.Y
	res.ScrollbarHeight = ScrollbarHeight(res.MaxHeight, vp.Height)
	return res, nil
}

// Step 处理一个词法单元，返回新的状态以及本单元产生的词。
func (e *Engine) Step(st State, tok lexer.Token) (State, []Word) {
	switch t := tok.(type) {
	case lexer.Tag:
		return applyTag(st, t.Tag), nil
	case lexer.Text:
		return e.flowText(st, t.Text)
	default:
		return st, nil
	}
}

func applyTag(st State, tag string) State {
	switch tag {
	case "b":
		st.Weight = WeightBold
	case "/b":
		st.Weight = WeightNormal
	case "i":
		st.Slant = SlantItalic
	case "/i":
		st.Slant = SlantRoman
	}
	return st
}

// flowText 按换行符切段，每个换行执行一次换行操作；段内按空白切词。
func (e *Engine) flowText(st State, text string) (State, []Word) {
	var out []Word
	for {
		line, rest, found := strings.Cut(text, "\n")
		for _, word := range strings.Fields(line) {
			var w Word
			st, w = e.place(st, word)
			out = append(out, w)
		}
		if !found {
			break
		}
		st = e.lineBreak(st)
		text = rest
	}
	return st, out
}

// place 放置单个词：超出右边距时先换行，放置后光标前进词宽加一个空格宽。
func (e *Engine) place(st State, word string) (State, Word) {
	font := e.font(st)
	width := e.metrics.MeasureText(word, font)
	if st.X+width > e.viewport.Width-HStep {
		st = e.lineBreak(st)
	}
	w := Word{
		Text:   word,
		X:      st.X,
		Y:      st.Y,
		Width:  width,
		Weight: st.Weight,
		Slant:  st.Slant,
	}
	st.X += width + e.metrics.MeasureText(" ", font)
	return st, w
}

// lineBreak 使用换行时刻生效的字体行高。
func (e *Engine) lineBreak(st State) State {
	st.Y += math.Floor(e.metrics.LineHeight(e.font(st)) * lineSpacing)
	st.X = HStep
	return st
}

func (e *Engine) font(st State) Font {
	return Font{Weight: st.Weight, Slant: st.Slant, Size: e.fontSize}
}
