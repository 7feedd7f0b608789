package layout

// NewFrame 将排版结果与滚动位置组合为渲染输入。
// scrollbarWidth 为右侧轨道宽度（px）。
func NewFrame(res *Result, scroll, scrollbarWidth float64) *Frame {
	if res == nil {
		return &Frame{Words: []Word{}}
	}
	vp := res.Viewport
	return &Frame{
		Viewport:  vp,
		FontSize:  res.FontSize,
		Scroll:    scroll,
		Words:     res.Words,
		MaxHeight: res.MaxHeight,
		Scrollbar: Scrollbar{
			X:      vp.Width - scrollbarWidth,
			Y:      ScrollbarY(scroll, res.MaxHeight, vp.Height),
			Width:  scrollbarWidth,
			Height: res.ScrollbarHeight,
		},
	}
}

// VisibleWords 返回当前滚动窗口内需要绘制的词。
func (f *Frame) VisibleWords() []Word {
	out := make([]Word, 0, len(f.Words))
	for _, w := range f.Words {
		if Visible(w, f.Scroll, f.Viewport.Height) {
			out = append(out, w)
		}
	}
	return out
}
