package layout

import "math"

// ScrollbarHeight 按内容高度与视口高度计算滑块高度，最小 30px。
// 内容不超过视口时分母为零或负数，此时滑块占满整条轨道。
func ScrollbarHeight(maxHeight, viewportHeight float64) float64 {
	if maxHeight <= viewportHeight {
		return viewportHeight
	}
	return math.Max(viewportHeight*(viewportHeight/(maxHeight-viewportHeight)), minScrollbarHeight)
}

// MaxScroll 返回允许的最大滚动偏移。
func MaxScroll(maxHeight, viewportHeight float64) float64 {
	return math.Max(0, maxHeight-viewportHeight)
}

// ClampScroll 应用滚动增量并限制在 [0, MaxScroll] 内。
func ClampScroll(scroll, delta, maxHeight, viewportHeight float64) float64 {
	next := scroll + delta
	if next < 0 {
		return 0
	}
	if limit := MaxScroll(maxHeight, viewportHeight); next > limit {
		return limit
	}
	return next
}

// ScrollbarY 返回滑块顶部位置；空文档时为 0。
func ScrollbarY(scroll, maxHeight, viewportHeight float64) float64 {
	if maxHeight <= 0 {
		return 0
	}
	return math.Floor(scroll / maxHeight * viewportHeight)
}

// Visible 判断词是否落在当前滚动窗口内。
func Visible(w Word, scroll, viewportHeight float64) bool {
	if w.Y > scroll+viewportHeight {
		return false
	}
	if w.Y+VStep < scroll {
		return false
	}
	return true
}
