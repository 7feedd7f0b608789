package layout

// 该文件定义布局结果与绘制输入，供布局计算、渲染与调试 JSON 共用。

// 页边距与默认行距，单位为像素。
const (
	HStep = 13.0
	VStep = 18.0
)

// DefaultFontSize 为未显式配置时的字号（pt）。
const DefaultFontSize = 16.0

const (
	lineSpacing        = 1.25
	minScrollbarHeight = 30.0
)

// Weight 表示字重，只区分常规与粗体。
type Weight string

const (
	WeightNormal Weight = "normal"
	WeightBold   Weight = "bold"
)

// Slant 表示字形倾斜，只区分正体与斜体。
type Slant string

const (
	SlantRoman  Slant = "roman"
	SlantItalic Slant = "italic"
)

// Font 是向字形度量后端请求数据时使用的字体描述。
type Font struct {
	Weight Weight  `json:"weight"`
	Slant  Slant   `json:"slant"`
	Size   float64 `json:"size"` // pt
}

// Viewport 为可视区域尺寸（px）。
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Word 表示一个已经排好坐标的词，Text 中不会出现换行符。
type Word struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Weight Weight  `json:"weight"`
	Slant  Slant   `json:"slant"`
}

// Font 返回排版该词时生效的字体。
func (w Word) Font(size float64) Font {
	return Font{Weight: w.Weight, Slant: w.Slant, Size: size}
}

// Result 保存一次完整排版的输出。每次视口或内容变化都会整体重算。
type Result struct {
	Viewport        Viewport `json:"viewport"`
	FontSize        float64  `json:"fontSize"`
	Words           []Word   `json:"words"`
	MaxHeight       float64  `json:"maxHeight"`
	ScrollbarHeight float64  `json:"scrollbarHeight"`
}

// Scrollbar 描述滚动条滑块的几何信息（px）。
type Scrollbar struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame 是渲染器的输入：排版结果加上当前滚动位置。
type Frame struct {
	Viewport  Viewport  `json:"viewport"`
	FontSize  float64   `json:"fontSize"`
	Scroll    float64   `json:"scroll"`
	Words     []Word    `json:"words"`
	MaxHeight float64   `json:"maxHeight"`
	Scrollbar Scrollbar `json:"scrollbar"`
}
