package renderer

import "github.com/ByLCY/pagelet/layout"

// Renderer 将一帧排版结果绘制为最终文件，例如 PNG 或 PDF。
// Render 只绘制可见区域内的词以及滚动条，返回生成的二进制数据。
type Renderer interface {
	Render(frame *layout.Frame) ([]byte, error)
}
