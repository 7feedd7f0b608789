package layout

// Options 配置布局阶段所需的依赖，例如字形度量后端。
type Options struct {
	Metrics  Metrics
	FontSize float64 // pt，<=0 时使用 DefaultFontSize
}

// Metrics 负责按字体状态测量文本宽度与行高，返回值均为像素。
// 布局引擎本身不内置任何字形数据。
type Metrics interface {
	MeasureText(text string, font Font) float64
	LineHeight(font Font) float64
}

func (o Options) fontSize() float64 {
	if o.FontSize <= 0 {
		return DefaultFontSize
	}
	return o.FontSize
}
